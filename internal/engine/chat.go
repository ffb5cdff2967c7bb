package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"nest-hub/internal/engine/actors"
	"nest-hub/internal/models"
	"nest-hub/internal/utils"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
	maxChatMessageLen   = 2000
)

// PostChatMessage stamps and stores a chat line sent over connection connID.
// A failed write is logged; the message is still returned for relaying.
func (e *Engine) PostChatMessage(ctx context.Context, connID, username, message string) (_ *models.ChatMessage, err error) {
	defer e.observe("chat_message", e.clock.Now(), &err)

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, utils.NewValidationError("message is required")
	}
	if len(message) > maxChatMessageLen {
		return nil, utils.NewValidationError("message exceeds %d characters", maxChatMessageLen)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		username = "Anonymous"
	}

	msg := &models.ChatMessage{
		ID:        uuid.NewString(),
		Username:  username,
		Message:   message,
		Timestamp: e.now(),
	}
	e.presence.SetUsername(connID, username)
	if err := e.store.SaveChatMessage(ctx, msg); err != nil {
		slog.Warn("chat message not persisted", "err", err)
	}
	return msg, nil
}

// ChatHistory returns up to limit recent messages, oldest first.
func (e *Engine) ChatHistory(ctx context.Context, limit int) (_ []*models.ChatMessage, err error) {
	defer e.observe("chat_history", e.clock.Now(), &err)

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)
	return e.store.RecentChatMessages(ctx, limit)
}

func (e *Engine) ChatConnected(connID, userID, username string) {
	e.presence.Connect(connID, userID, username)
}

func (e *Engine) ChatDisconnected(connID string) {
	e.presence.Disconnect(connID)
}

func (e *Engine) OnlineUsers() ([]actors.OnlineUser, error) {
	return e.presence.Online()
}
