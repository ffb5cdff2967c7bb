// internal/database/chat_repository.go
package database

import (
	"context"
	"slices"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nest-hub/internal/models"
)

// SaveChatMessage persists a relayed chat message
func (m *MongoDB) SaveChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	if _, err := m.Messages.InsertOne(ctx, msg); err != nil {
		return storeError("save chat message", err)
	}
	return nil
}

// RecentChatMessages returns up to limit of the newest messages, oldest first.
func (m *MongoDB) RecentChatMessages(ctx context.Context, limit int) ([]*models.ChatMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.Messages.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storeError("get chat messages", err)
	}
	defer cursor.Close(ctx)

	messages := []*models.ChatMessage{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, storeError("decode chat messages", err)
	}
	slices.Reverse(messages)
	return messages, nil
}
