package models

import (
	"slices"
	"strings"
	"time"

	"nest-hub/internal/utils"
)

// AI summary states recorded on a post.
const (
	AIStatusDisabled     = "disabled"
	AIStatusSuccess      = "success"
	AIStatusFailed       = "failed"
	AIStatusUpdated      = "updated"
	AIStatusUpdateFailed = "update_failed"
)

type Post struct {
	ID          string         `json:"id" bson:"_id"`
	PostedBy    string         `json:"postedBy" bson:"postedBy"` // immutable after creation
	Author      *AuthorSummary `json:"author,omitempty" bson:"-"`
	Content     string         `json:"content" bson:"content"`
	ContentHTML string         `json:"contentHtml" bson:"contentHtml"`
	Tags        []string       `json:"tags" bson:"tags"`
	Summary     string         `json:"summary" bson:"summary"`
	AIStatus    string         `json:"aiStatus" bson:"aiStatus"`
	Votes       LockoutLedger  `json:"votes" bson:"votes"`
	Comments    []Comment      `json:"comments" bson:"comments"`
	CreatedAt   time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt" bson:"updatedAt"`
}

// PostUpdate carries a partial update; nil fields are left unchanged.
type PostUpdate struct {
	Content     *string
	ContentHTML *string
	Tags        *[]string
	Summary     *string
	AIStatus    *string
}

func (u PostUpdate) IsEmpty() bool {
	return u.Content == nil && u.ContentHTML == nil && u.Tags == nil && u.Summary == nil && u.AIStatus == nil
}

// Apply merges the non-nil fields into p.
func (u PostUpdate) Apply(p *Post) {
	if u.Content != nil {
		p.Content = *u.Content
	}
	if u.ContentHTML != nil {
		p.ContentHTML = *u.ContentHTML
	}
	if u.Tags != nil {
		p.Tags = slices.Clone(*u.Tags)
	}
	if u.Summary != nil {
		p.Summary = *u.Summary
	}
	if u.AIStatus != nil {
		p.AIStatus = *u.AIStatus
	}
}

// Validate checks the fields required to persist a new post.
func (p *Post) Validate() error {
	if strings.TrimSpace(p.PostedBy) == "" {
		return utils.NewValidationError("postedBy is required")
	}
	if strings.TrimSpace(p.Content) == "" {
		return utils.NewValidationError("content is required")
	}
	return nil
}

// FindComment locates a comment by its local id.
func (p *Post) FindComment(commentID string) (*Comment, error) {
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			return &p.Comments[i], nil
		}
	}
	return nil, utils.NewCommentNotFoundError(commentID)
}

// ListingField exposes filterable and sortable fields to in-memory listings.
func (p Post) ListingField(name string) any {
	switch name {
	case "postedBy":
		return p.PostedBy
	case "tags":
		return p.Tags
	case "createdAt":
		return p.CreatedAt
	case "updatedAt":
		return p.UpdatedAt
	case "votes.upvotes":
		return p.Votes.Upvotes
	case "votes.downvotes":
		return p.Votes.Downvotes
	default:
		return nil
	}
}

// Clone returns a deep copy so stored posts never share slices with callers.
func (p Post) Clone() Post {
	out := p
	out.Tags = slices.Clone(p.Tags)
	out.Votes.Voters = slices.Clone(p.Votes.Voters)
	out.Comments = make([]Comment, len(p.Comments))
	for i, c := range p.Comments {
		out.Comments[i] = c.Clone()
	}
	return out
}
