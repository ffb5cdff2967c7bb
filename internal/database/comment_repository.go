// internal/database/comment_repository.go
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

// AppendComment pushes a comment onto the post's embedded comment array.
func (m *MongoDB) AppendComment(ctx context.Context, postID string, comment models.Comment) (*models.Post, error) {
	normalizeComment(&comment)

	update := bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updatedAt": m.now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var post models.Post
	err := m.Posts.FindOneAndUpdate(ctx, bson.M{"_id": postID}, update, opts).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewPostNotFoundError(postID)
	}
	if err != nil {
		return nil, storeError("append comment", err)
	}
	return &post, nil
}

// AppendReply pushes a reply under the comment matched by the positional operator.
func (m *MongoDB) AppendReply(ctx context.Context, postID, commentID string, reply models.Reply) (*models.Post, error) {
	normalizeLedger(&reply.Votes)

	filter := bson.M{"_id": postID, "comments._id": commentID}
	update := bson.M{
		"$push": bson.M{"comments.$.replies": reply},
		"$set":  bson.M{"updatedAt": m.now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var post models.Post
	err := m.Posts.FindOneAndUpdate(ctx, filter, update, opts).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, m.probeNested(ctx, postID, commentID, "")
	}
	if err != nil {
		return nil, storeError("append reply", err)
	}
	return &post, nil
}
