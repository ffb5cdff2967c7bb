// internal/database/user_repository.go
package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nest-hub/internal/models"
	"nest-hub/internal/utils"
)

// normalizeUser replaces nil arrays so later $push/$addToSet updates have an array to work on.
func normalizeUser(user *models.User) {
	if user.Skills == nil {
		user.Skills = []string{}
	}
	if user.Posts == nil {
		user.Posts = []string{}
	}
	if user.Votes.Voters == nil {
		user.Votes.Voters = []string{}
	}
}

// CreateUser inserts a new user. A taken email yields DUPLICATE.
func (m *MongoDB) CreateUser(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	normalizeUser(user)

	if _, err := m.Users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.NewAppError(utils.ErrDuplicate, "User already exists", err)
		}
		return storeError("create user", err)
	}
	return nil
}

// GetUser retrieves a user from MongoDB by their ID
func (m *MongoDB) GetUser(ctx context.Context, id string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"_id": id}, id)
}

// GetUserByEmail retrieves a user from MongoDB by their email address
func (m *MongoDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"email": email}, email)
}

func (m *MongoDB) findUser(ctx context.Context, filter bson.M, key string) (*models.User, error) {
	var user models.User
	err := m.Users.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewUserNotFoundError(key)
	}
	if err != nil {
		return nil, storeError("get user", err)
	}
	return &user, nil
}

func (m *MongoDB) ListUsers(ctx context.Context) ([]*models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := m.Users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storeError("list users", err)
	}
	defer cursor.Close(ctx)

	users := []*models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, storeError("decode users", err)
	}
	return users, nil
}

// UpdateUser merges the non-nil fields of update. An empty update returns the stored user.
func (m *MongoDB) UpdateUser(ctx context.Context, id string, update models.UserUpdate) (*models.User, error) {
	if update.IsEmpty() {
		return m.GetUser(ctx, id)
	}

	set := bson.M{"updatedAt": m.now()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Bio != nil {
		set["bio"] = *update.Bio
	}
	if update.Github != nil {
		set["github"] = *update.Github
	}
	if update.Leetcode != nil {
		set["leetcode"] = *update.Leetcode
	}
	if update.Linkedin != nil {
		set["linkedin"] = *update.Linkedin
	}
	if update.Skills != nil {
		skills := *update.Skills
		if skills == nil {
			skills = []string{}
		}
		set["skills"] = skills
	}
	return m.setUserFields(ctx, id, set)
}

// UpdateUserProfile stores data fetched from GitHub and LeetCode.
func (m *MongoDB) UpdateUserProfile(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, error) {
	if update.IsEmpty() {
		return m.GetUser(ctx, id)
	}

	set := bson.M{"updatedAt": m.now()}
	if update.ProfileURL != nil {
		set["profileurl"] = *update.ProfileURL
	}
	if update.ProfilePicture != nil {
		set["profilePicture"] = *update.ProfilePicture
	}
	if update.Readme != nil {
		set["readme"] = *update.Readme
	}
	if update.Activity != nil {
		set["activity"] = models.Activity{Last30Days: update.Activity}
	}
	return m.setUserFields(ctx, id, set)
}

func (m *MongoDB) setUserFields(ctx context.Context, id string, set bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err := m.Users.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewUserNotFoundError(id)
	}
	if err != nil {
		return nil, storeError("update user", err)
	}
	return &user, nil
}

// DeleteUser removes the user only; posts keep their postedBy reference.
func (m *MongoDB) DeleteUser(ctx context.Context, id string) error {
	res, err := m.Users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeError("delete user", err)
	}
	if res.DeletedCount == 0 {
		return utils.NewUserNotFoundError(id)
	}
	return nil
}

func (m *MongoDB) AddUserPost(ctx context.Context, userID, postID string) error {
	return m.updateUserPosts(ctx, userID, bson.M{"$addToSet": bson.M{"posts": postID}})
}

func (m *MongoDB) RemoveUserPost(ctx context.Context, userID, postID string) error {
	return m.updateUserPosts(ctx, userID, bson.M{"$pull": bson.M{"posts": postID}})
}

func (m *MongoDB) updateUserPosts(ctx context.Context, userID string, update bson.M) error {
	res, err := m.Users.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return storeError("update user posts", err)
	}
	if res.MatchedCount == 0 {
		return utils.NewUserNotFoundError(userID)
	}
	return nil
}
