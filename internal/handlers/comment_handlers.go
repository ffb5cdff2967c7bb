package handlers

import (
	"net/http"

	"nest-hub/internal/api"
	"nest-hub/internal/engine"
)

// CommentRequest represents a comment or reply body
type CommentRequest struct {
	Text        string `json:"text" validate:"required"`
	CommentedBy string `json:"commentedBy" validate:"required"`
}

// HandleComment appends a top-level comment to a post
func (s *Server) HandleComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CommentRequest
		if !s.decode(w, r, &req) {
			return
		}
		if err := checkActor(r, req.CommentedBy); err != nil {
			writeError(w, err)
			return
		}
		ctx, cancel := s.requestContext(r)
		defer cancel()

		post, err := s.Engine.AppendComment(ctx, r.PathValue("id"), engine.CommentInput{
			Text:        req.Text,
			CommentedBy: req.CommentedBy,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, api.OK(post))
	}
}

// HandleReply appends a reply under a comment
func (s *Server) HandleReply() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CommentRequest
		if !s.decode(w, r, &req) {
			return
		}
		if err := checkActor(r, req.CommentedBy); err != nil {
			writeError(w, err)
			return
		}
		ctx, cancel := s.requestContext(r)
		defer cancel()

		post, err := s.Engine.AppendReply(ctx, r.PathValue("id"), r.PathValue("commentId"), engine.CommentInput{
			Text:        req.Text,
			CommentedBy: req.CommentedBy,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, api.OK(post))
	}
}

// HandleCommentVote casts or switches a vote on a comment
func (s *Server) HandleCommentVote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VoteRequest
		if !s.decode(w, r, &req) {
			return
		}
		if err := checkActor(r, req.UserID); err != nil {
			writeError(w, err)
			return
		}
		ctx, cancel := s.requestContext(r)
		defer cancel()

		post, err := s.Engine.VoteComment(ctx, r.PathValue("id"), r.PathValue("commentId"), req.UserID, req.VoteType)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, api.OK(post))
	}
}

// HandleReplyVote casts or switches a vote on a reply
func (s *Server) HandleReplyVote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VoteRequest
		if !s.decode(w, r, &req) {
			return
		}
		if err := checkActor(r, req.UserID); err != nil {
			writeError(w, err)
			return
		}
		ctx, cancel := s.requestContext(r)
		defer cancel()

		post, err := s.Engine.VoteReply(ctx, r.PathValue("id"), r.PathValue("commentId"), r.PathValue("replyId"), req.UserID, req.VoteType)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, api.OK(post))
	}
}
