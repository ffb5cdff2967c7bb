// internal/database/store.go
package database

import (
	"context"
	"fmt"

	"nest-hub/internal/config"
	"nest-hub/internal/listing"
	"nest-hub/internal/models"
)

// Store defines the persistence operations shared by every backend.
// Vote and append operations are atomic per document.
type Store interface {
	// Connection
	Close(ctx context.Context) error

	// User methods
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, id string, update models.UserUpdate) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	AddUserPost(ctx context.Context, userID, postID string) error
	RemoveUserPost(ctx context.Context, userID, postID string) error
	VoteUser(ctx context.Context, userID, voterID string, voteType models.VoteType) (*models.User, error)

	// Post methods
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	UpdatePost(ctx context.Context, id string, update models.PostUpdate) (*models.Post, error)
	DeletePost(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context, q listing.Query) (listing.Result[models.Post], error)
	VotePost(ctx context.Context, postID, voterID string, voteType models.VoteType) (*models.Post, error)

	// Comment tree methods
	AppendComment(ctx context.Context, postID string, comment models.Comment) (*models.Post, error)
	AppendReply(ctx context.Context, postID, commentID string, reply models.Reply) (*models.Post, error)
	VoteComment(ctx context.Context, postID, commentID, voterID string, voteType models.VoteType) (*models.Post, error)
	VoteReply(ctx context.Context, postID, commentID, replyID, voterID string, voteType models.VoteType) (*models.Post, error)

	// Opportunity methods
	GetOpportunity(ctx context.Context, id string) (*models.Opportunity, error)
	ListOpportunities(ctx context.Context, q listing.Query) (listing.Result[models.Opportunity], error)
	// UpsertOpportunity matches on title and reports whether a new listing was inserted.
	UpsertOpportunity(ctx context.Context, opp *models.Opportunity) (*models.Opportunity, bool, error)

	// Chat methods
	SaveChatMessage(ctx context.Context, msg *models.ChatMessage) error
	RecentChatMessages(ctx context.Context, limit int) ([]*models.ChatMessage, error)
}

var (
	_ Store = (*MongoDB)(nil)
	_ Store = (*MemoryStore)(nil)
)

// NewStore opens the backend selected by cfg.Type.
func NewStore(ctx context.Context, cfg *config.DatabaseConfig) (Store, error) {
	switch cfg.Type {
	case "mongo":
		db, err := NewMongoDB(ctx, cfg.URI, cfg.Name)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureIndexes(ctx); err != nil {
			_ = db.Close(ctx)
			return nil, err
		}
		return db, nil
	case "memory":
		return NewMemoryStore(nil), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}
