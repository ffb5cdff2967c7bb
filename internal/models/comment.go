package models

import (
	"time"

	"nest-hub/internal/utils"
)

// Comment is embedded in a Post. Its ID is unique only within that post.
type Comment struct {
	ID          string           `json:"id" bson:"_id"`
	Text        string           `json:"text" bson:"text"`
	CommentedBy string           `json:"commentedBy" bson:"commentedBy"`
	Author      *AuthorSummary   `json:"author,omitempty" bson:"-"`
	Votes       SwitchableLedger `json:"votes" bson:"votes"`
	Replies     []Reply          `json:"replies" bson:"replies"`
	CreatedAt   time.Time        `json:"createdAt" bson:"createdAt"`
}

// Reply is embedded in a Comment. Its ID is unique only within that comment.
type Reply struct {
	ID          string           `json:"id" bson:"_id"`
	Text        string           `json:"text" bson:"text"`
	CommentedBy string           `json:"commentedBy" bson:"commentedBy"`
	Author      *AuthorSummary   `json:"author,omitempty" bson:"-"`
	Votes       SwitchableLedger `json:"votes" bson:"votes"`
	CreatedAt   time.Time        `json:"createdAt" bson:"createdAt"`
}

// FindReply locates a reply by its local id.
func (c *Comment) FindReply(replyID string) (*Reply, error) {
	for i := range c.Replies {
		if c.Replies[i].ID == replyID {
			return &c.Replies[i], nil
		}
	}
	return nil, utils.NewReplyNotFoundError(replyID)
}

func (c Comment) Clone() Comment {
	out := c
	out.Votes = c.Votes.clone()
	out.Replies = make([]Reply, len(c.Replies))
	for i, r := range c.Replies {
		r.Votes = r.Votes.clone()
		out.Replies[i] = r
	}
	return out
}

func (l SwitchableLedger) clone() SwitchableLedger {
	return SwitchableLedger{
		Upvoters:   append([]string{}, l.Upvoters...),
		Downvoters: append([]string{}, l.Downvoters...),
	}
}
