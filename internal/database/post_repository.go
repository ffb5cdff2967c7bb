// internal/database/post_repository.go
package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nest-hub/internal/listing"
	"nest-hub/internal/models"
	"nest-hub/internal/utils"
)

// normalizePost replaces nil arrays so later array updates never hit a null field.
func normalizePost(post *models.Post) {
	if post.Tags == nil {
		post.Tags = []string{}
	}
	if post.Votes.Voters == nil {
		post.Votes.Voters = []string{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	for i := range post.Comments {
		normalizeComment(&post.Comments[i])
	}
}

func normalizeComment(c *models.Comment) {
	if c.Replies == nil {
		c.Replies = []models.Reply{}
	}
	normalizeLedger(&c.Votes)
	for i := range c.Replies {
		normalizeLedger(&c.Replies[i].Votes)
	}
}

func normalizeLedger(l *models.SwitchableLedger) {
	if l.Upvoters == nil {
		l.Upvoters = []string{}
	}
	if l.Downvoters == nil {
		l.Downvoters = []string{}
	}
}

func (m *MongoDB) CreatePost(ctx context.Context, post *models.Post) error {
	if err := post.Validate(); err != nil {
		return err
	}
	normalizePost(post)

	if _, err := m.Posts.InsertOne(ctx, post); err != nil {
		return storeError("create post", err)
	}
	return nil
}

// GetPost retrieves a post by its ID.
func (m *MongoDB) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := m.Posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewPostNotFoundError(id)
	}
	if err != nil {
		return nil, storeError("get post", err)
	}
	return &post, nil
}

// UpdatePost merges the non-nil fields of update. An empty update returns the stored post.
func (m *MongoDB) UpdatePost(ctx context.Context, id string, update models.PostUpdate) (*models.Post, error) {
	if update.IsEmpty() {
		return m.GetPost(ctx, id)
	}

	set := bson.M{"updatedAt": m.now()}
	if update.Content != nil {
		set["content"] = *update.Content
	}
	if update.ContentHTML != nil {
		set["contentHtml"] = *update.ContentHTML
	}
	if update.Tags != nil {
		tags := *update.Tags
		if tags == nil {
			tags = []string{}
		}
		set["tags"] = tags
	}
	if update.Summary != nil {
		set["summary"] = *update.Summary
	}
	if update.AIStatus != nil {
		set["aiStatus"] = *update.AIStatus
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var post models.Post
	err := m.Posts.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewPostNotFoundError(id)
	}
	if err != nil {
		return nil, storeError("update post", err)
	}
	return &post, nil
}

// DeletePost removes a post and returns it so the caller can update the author.
func (m *MongoDB) DeletePost(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := m.Posts.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewPostNotFoundError(id)
	}
	if err != nil {
		return nil, storeError("delete post", err)
	}
	return &post, nil
}

func (m *MongoDB) ListPosts(ctx context.Context, q listing.Query) (listing.Result[models.Post], error) {
	return findPage[models.Post](ctx, m.Posts, q)
}
