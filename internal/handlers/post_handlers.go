package handlers

import (
	"context"
	"net/http"

	"nest-hub/internal/api"
	"nest-hub/internal/engine"
	"nest-hub/internal/listing"
	"nest-hub/internal/middleware"
	"nest-hub/internal/utils"
)

// CreatePostRequest represents a request to create a new post
type CreatePostRequest struct {
	Content string `json:"content" validate:"required"`
	UserID  string `json:"userId" validate:"required"`
}

// UpdatePostRequest replaces a post's content
type UpdatePostRequest struct {
	Content string `json:"content" validate:"required"`
}

// VoteRequest represents a vote on a post, comment or reply
type VoteRequest struct {
	VoteType string `json:"voteType"`
	UserID   string `json:"userId"`
}

// HandleCreatePost creates a post for the authenticated user
func (s *Server) HandleCreatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePostRequest
		if !s.decode(w, r, &req) {
			return
		}
		if err := checkActor(r, req.UserID); err != nil {
			writeError(w, err)
			return
		}
		ctx, cancel := s.requestContext(r)
		defer cancel()

		post, err := s.Engine.CreatePost(ctx, engine.CreatePostInput{Content: req.Content, UserID: req.UserID})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, api.OK(post))
	}
}

// HandleListPosts pages through posts with filters and sorting
func (s *Server) HandleListPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := listing.ParseParams(r.URL.Query(), listing.PostSchema)
		if err != nil {
			writeError(w, err)
			return
		}
		ctx, cancel := s.requestContext(r)
		defer cancel()

		res, err := s.Engine.ListPosts(ctx, q)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, api.List(res))
	}
}

func (s *Server) HandleGetPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := s.requestContext(r)
		defer cancel()

		post, err := s.Engine.GetPost(ctx, r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, api.OK(post))
	}
}

// HandleUpdatePost replaces the content and re-runs the summary
func (s *Server) HandleUpdatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdatePostRequest
		if !s.decode(w, r, &req) {
			return
		}
		ctx, cancel := s.requestContext(r)
		defer cancel()

		if err := s.checkPostOwner(ctx, r); err != nil {
			writeError(w, err)
			return
		}
		post, err := s.Engine.UpdatePost(ctx, r.PathValue("id"), req.Content)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, api.OK(post))
	}
}

func (s *Server) HandleDeletePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := s.requestContext(r)
		defer cancel()

		if err := s.checkPostOwner(ctx, r); err != nil {
			writeError(w, err)
			return
		}
		if err := s.Engine.DeletePost(ctx, r.PathValue("id")); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, api.Response{Success: true, Message: "Post deleted"})
	}
}

// checkPostOwner rejects edits from anyone but the post's author.
func (s *Server) checkPostOwner(ctx context.Context, r *http.Request) error {
	post, err := s.Engine.GetPost(ctx, r.PathValue("id"))
	if err != nil {
		return err
	}
	subject, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || subject != post.PostedBy {
		return utils.NewAppError(utils.ErrForbidden, "Only the author can modify this post", nil)
	}
	return nil
}

// HandlePostVote records a one-time vote on a post
func (s *Server) HandlePostVote() http.HandlerFunc {
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

		post, err := s.Engine.VotePost(ctx, r.PathValue("id"), req.UserID, req.VoteType)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, api.OK(post))
	}
}
