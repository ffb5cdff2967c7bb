package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"nest-hub/internal/listing"
	"nest-hub/internal/models"
	"nest-hub/internal/utils"
)

// Content at or below this length is not worth summarizing.
const minSummaryLength = 10

type CreatePostInput struct {
	Content string
	UserID  string
}

// CreatePost stores a post, attaches the AI summary when available and links
// the post to its author.
func (e *Engine) CreatePost(ctx context.Context, in CreatePostInput) (_ *models.Post, err error) {
	defer e.observe("create_post", e.clock.Now(), &err)

	content := strings.TrimSpace(in.Content)
	if content == "" || strings.TrimSpace(in.UserID) == "" {
		return nil, utils.NewValidationError("Content and userId are required")
	}
	if _, err := e.resolveAuthor(ctx, "userId", in.UserID); err != nil {
		return nil, err
	}

	now := e.now()
	post := &models.Post{
		ID:          uuid.NewString(),
		PostedBy:    in.UserID,
		Content:     in.Content,
		ContentHTML: utils.RenderMarkdown(in.Content),
		Tags:        []string{},
		AIStatus:    models.AIStatusDisabled,
		Votes:       models.NewLockoutLedger(),
		Comments:    []models.Comment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if e.summarizerEnabled() && len(content) > minSummaryLength {
		summary, sumErr := e.summarizer.Summarize(ctx, content)
		if sumErr != nil {
			slog.Warn("AI analysis failed, creating post without AI features", "err", sumErr)
			post.AIStatus = models.AIStatusFailed
		} else {
			post.Summary = summary.Summary
			post.Tags = summary.Tags
			post.AIStatus = models.AIStatusSuccess
		}
	}

	if err := e.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	if err := e.store.AddUserPost(ctx, post.PostedBy, post.ID); err != nil {
		slog.Error("failed to link post to author", "post_id", post.ID, "user_id", post.PostedBy, "err", err)
	}

	slog.Info("post created", "post_id", post.ID, "ai_status", post.AIStatus)
	return post, nil
}

func (e *Engine) summarizerEnabled() bool {
	return e.summarizer != nil && e.summarizer.Enabled()
}

// GetPost returns the post with its author and commenters attached.
func (e *Engine) GetPost(ctx context.Context, id string) (_ *models.Post, err error) {
	defer e.observe("get_post", e.clock.Now(), &err)

	post, err := e.store.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := newAuthorCache(e).attach(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// UpdatePost replaces the content and re-runs the summarizer when it is enabled.
func (e *Engine) UpdatePost(ctx context.Context, id, content string) (_ *models.Post, err error) {
	defer e.observe("update_post", e.clock.Now(), &err)

	if strings.TrimSpace(content) == "" {
		return nil, utils.NewValidationError("Content is required for update")
	}

	html := utils.RenderMarkdown(content)
	update := models.PostUpdate{Content: &content, ContentHTML: &html}

	if e.summarizerEnabled() {
		var status string
		summary, sumErr := e.summarizer.Summarize(ctx, content)
		if sumErr != nil {
			slog.Warn("AI re-analysis failed during update", "post_id", id, "err", sumErr)
			status = models.AIStatusUpdateFailed
		} else {
			status = models.AIStatusUpdated
			update.Summary = &summary.Summary
			update.Tags = &summary.Tags
		}
		update.AIStatus = &status
	}

	return e.store.UpdatePost(ctx, id, update)
}

// DeletePost removes the post and unlinks it from its author.
func (e *Engine) DeletePost(ctx context.Context, id string) (err error) {
	defer e.observe("delete_post", e.clock.Now(), &err)

	post, err := e.store.DeletePost(ctx, id)
	if err != nil {
		return err
	}
	if err := e.store.RemoveUserPost(ctx, post.PostedBy, post.ID); err != nil && !utils.IsNotFound(err) {
		slog.Error("failed to unlink post from author", "post_id", post.ID, "user_id", post.PostedBy, "err", err)
	}
	return nil
}

func (e *Engine) ListPosts(ctx context.Context, q listing.Query) (_ listing.Result[models.Post], err error) {
	defer e.observe("list_posts", e.clock.Now(), &err)

	res, err := e.store.ListPosts(ctx, q)
	if err != nil {
		return res, err
	}
	authors := newAuthorCache(e)
	for i := range res.Data {
		if err := authors.attach(ctx, &res.Data[i]); err != nil {
			return res, err
		}
	}
	return res, nil
}

// authorCache resolves user ids to summaries once per response. Users that no
// longer exist resolve to nil and leave the bare id in place.
type authorCache struct {
	e    *Engine
	seen map[string]*models.AuthorSummary
}

func newAuthorCache(e *Engine) *authorCache {
	return &authorCache{e: e, seen: make(map[string]*models.AuthorSummary)}
}

func (c *authorCache) lookup(ctx context.Context, id string) (*models.AuthorSummary, error) {
	if summary, ok := c.seen[id]; ok {
		return summary, nil
	}
	var summary *models.AuthorSummary
	user, err := c.e.store.GetUser(ctx, id)
	switch {
	case err == nil:
		summary = user.AuthorSummary()
	case !utils.IsNotFound(err):
		return nil, err
	}
	c.seen[id] = summary
	return summary, nil
}

func (c *authorCache) attach(ctx context.Context, post *models.Post) error {
	var err error
	if post.Author, err = c.lookup(ctx, post.PostedBy); err != nil {
		return err
	}
	for i := range post.Comments {
		comment := &post.Comments[i]
		if comment.Author, err = c.lookup(ctx, comment.CommentedBy); err != nil {
			return err
		}
		for j := range comment.Replies {
			if comment.Replies[j].Author, err = c.lookup(ctx, comment.Replies[j].CommentedBy); err != nil {
				return err
			}
		}
	}
	return nil
}
