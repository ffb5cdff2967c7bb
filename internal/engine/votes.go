package engine

import (
	"context"
	"strings"

	"nest-hub/internal/models"
	"nest-hub/internal/utils"
)

// Users and posts use the lockout ledger: a voter's first vote is final.
// Comments and replies use the switchable ledger: voters may change sides.

// parseVote validates the request before any store access.
func parseVote(rawType, voterID string) (models.VoteType, error) {
	voteType, err := models.ParseVoteType(rawType)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(voterID) == "" {
		return "", utils.NewValidationError("voter id is required")
	}
	return voteType, nil
}

func (e *Engine) VoteUser(ctx context.Context, userID, voterID, rawType string) (_ *models.User, err error) {
	defer e.observe("vote_user", e.clock.Now(), &err)

	voteType, err := parseVote(rawType, voterID)
	if err != nil {
		return nil, err
	}
	user, err := e.store.VoteUser(ctx, userID, voterID, voteType)
	if err != nil {
		return nil, err
	}
	e.metrics.RecordVote("user", string(voteType))
	return user, nil
}

func (e *Engine) VotePost(ctx context.Context, postID, voterID, rawType string) (_ *models.Post, err error) {
	defer e.observe("vote_post", e.clock.Now(), &err)

	voteType, err := parseVote(rawType, voterID)
	if err != nil {
		return nil, err
	}
	post, err := e.store.VotePost(ctx, postID, voterID, voteType)
	if err != nil {
		return nil, err
	}
	e.metrics.RecordVote("post", string(voteType))
	return post, nil
}

func (e *Engine) VoteComment(ctx context.Context, postID, commentID, voterID, rawType string) (_ *models.Post, err error) {
	defer e.observe("vote_comment", e.clock.Now(), &err)

	voteType, err := parseVote(rawType, voterID)
	if err != nil {
		return nil, err
	}
	post, err := e.store.VoteComment(ctx, postID, commentID, voterID, voteType)
	if err != nil {
		return nil, err
	}
	e.metrics.RecordVote("comment", string(voteType))
	return post, nil
}

func (e *Engine) VoteReply(ctx context.Context, postID, commentID, replyID, voterID, rawType string) (_ *models.Post, err error) {
	defer e.observe("vote_reply", e.clock.Now(), &err)

	voteType, err := parseVote(rawType, voterID)
	if err != nil {
		return nil, err
	}
	post, err := e.store.VoteReply(ctx, postID, commentID, replyID, voterID, voteType)
	if err != nil {
		return nil, err
	}
	e.metrics.RecordVote("reply", string(voteType))
	return post, nil
}
