// internal/database/vote_repository.go
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

func lockoutCounter(voteType models.VoteType) string {
	if voteType == models.Downvote {
		return "votes.downvotes"
	}
	return "votes.upvotes"
}

// switchableSets returns the set the voter joins and the set they leave.
func switchableSets(voteType models.VoteType) (join, leave string) {
	if voteType == models.Downvote {
		return "downvoters", "upvoters"
	}
	return "upvoters", "downvoters"
}

// castLockoutVote increments the counter and records the voter in one
// conditional update. When nothing matches, a probe tells a missing document
// apart from a repeat voter.
func (m *MongoDB) castLockoutVote(
	ctx context.Context,
	coll *mongo.Collection,
	id, voterID string,
	voteType models.VoteType,
	notFound func(string) *utils.AppError,
	out any,
) error {
	filter := bson.M{"_id": id, "votes.voters": bson.M{"$ne": voterID}}
	update := bson.M{
		"$inc":  bson.M{lockoutCounter(voteType): 1},
		"$push": bson.M{"votes.voters": voterID},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	err := coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(out)
	if err == nil {
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return storeError("vote on "+coll.Name(), err)
	}

	count, err := coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return storeError("vote probe on "+coll.Name(), err)
	}
	if count == 0 {
		return notFound(id)
	}
	return utils.NewAppError(utils.ErrAlreadyVoted, "You have already voted", nil)
}

func (m *MongoDB) VoteUser(ctx context.Context, userID, voterID string, voteType models.VoteType) (*models.User, error) {
	var user models.User
	if err := m.castLockoutVote(ctx, m.Users, userID, voterID, voteType, utils.NewUserNotFoundError, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (m *MongoDB) VotePost(ctx context.Context, postID, voterID string, voteType models.VoteType) (*models.Post, error) {
	var post models.Post
	if err := m.castLockoutVote(ctx, m.Posts, postID, voterID, voteType, utils.NewPostNotFoundError, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// VoteComment moves the voter between the comment's two voter sets.
func (m *MongoDB) VoteComment(ctx context.Context, postID, commentID, voterID string, voteType models.VoteType) (*models.Post, error) {
	join, leave := switchableSets(voteType)
	filter := bson.M{"_id": postID, "comments._id": commentID}
	update := bson.M{
		"$pull":     bson.M{"comments.$.votes." + leave: voterID},
		"$addToSet": bson.M{"comments.$.votes." + join: voterID},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var post models.Post
	err := m.Posts.FindOneAndUpdate(ctx, filter, update, opts).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, m.probeNested(ctx, postID, commentID, "")
	}
	if err != nil {
		return nil, storeError("vote on comment", err)
	}
	return &post, nil
}

// VoteReply addresses the reply through array filters on both levels.
func (m *MongoDB) VoteReply(ctx context.Context, postID, commentID, replyID, voterID string, voteType models.VoteType) (*models.Post, error) {
	join, leave := switchableSets(voteType)
	filter := bson.M{
		"_id": postID,
		"comments": bson.M{"$elemMatch": bson.M{
			"_id":         commentID,
			"replies._id": replyID,
		}},
	}
	target := "comments.$[c].replies.$[r].votes."
	update := bson.M{
		"$pull":     bson.M{target + leave: voterID},
		"$addToSet": bson.M{target + join: voterID},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetArrayFilters(options.ArrayFilters{Filters: []interface{}{
			bson.M{"c._id": commentID},
			bson.M{"r._id": replyID},
		}})

	var post models.Post
	err := m.Posts.FindOneAndUpdate(ctx, filter, update, opts).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, m.probeNested(ctx, postID, commentID, replyID)
	}
	if err != nil {
		return nil, storeError("vote on reply", err)
	}
	return &post, nil
}

// probeNested reports which level of post/comment/reply is missing.
func (m *MongoDB) probeNested(ctx context.Context, postID, commentID, replyID string) error {
	post, err := m.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	comment, err := post.FindComment(commentID)
	if err != nil {
		return err
	}
	if replyID == "" {
		return utils.NewCommentNotFoundError(commentID)
	}
	if _, err := comment.FindReply(replyID); err != nil {
		return err
	}
	// Present on re-read: the document changed between the update and the probe.
	return utils.NewAppError(utils.ErrUnavailable, "Concurrent modification, retry the request", nil)
}
