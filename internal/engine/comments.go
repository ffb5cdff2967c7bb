package engine

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"nest-hub/internal/models"
	"nest-hub/internal/utils"
)

type CommentInput struct {
	Text        string
	CommentedBy string
}

func (in CommentInput) validate() error {
	if strings.TrimSpace(in.Text) == "" {
		return utils.NewValidationError("text is required")
	}
	if strings.TrimSpace(in.CommentedBy) == "" {
		return utils.NewValidationError("commentedBy is required")
	}
	return nil
}

// AppendComment adds a top-level comment and returns the updated post.
func (e *Engine) AppendComment(ctx context.Context, postID string, in CommentInput) (_ *models.Post, err error) {
	defer e.observe("append_comment", e.clock.Now(), &err)

	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := e.resolveAuthor(ctx, "commentedBy", in.CommentedBy); err != nil {
		return nil, err
	}

	comment := models.Comment{
		ID:          uuid.NewString(),
		Text:        strings.TrimSpace(in.Text),
		CommentedBy: in.CommentedBy,
		Votes:       models.NewSwitchableLedger(),
		Replies:     []models.Reply{},
		CreatedAt:   e.now(),
	}
	return e.store.AppendComment(ctx, postID, comment)
}

// AppendReply adds a reply under commentID. A missing post and a missing
// comment are reported as different errors.
func (e *Engine) AppendReply(ctx context.Context, postID, commentID string, in CommentInput) (_ *models.Post, err error) {
	defer e.observe("append_reply", e.clock.Now(), &err)

	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := e.resolveAuthor(ctx, "commentedBy", in.CommentedBy); err != nil {
		return nil, err
	}

	reply := models.Reply{
		ID:          uuid.NewString(),
		Text:        strings.TrimSpace(in.Text),
		CommentedBy: in.CommentedBy,
		Votes:       models.NewSwitchableLedger(),
		CreatedAt:   e.now(),
	}
	return e.store.AppendReply(ctx, postID, commentID, reply)
}
