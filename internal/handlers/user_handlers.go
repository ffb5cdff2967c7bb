package handlers

import (
	"log/slog"
	"net/http"

	"nest-hub/internal/api"
	"nest-hub/internal/engine"
	"nest-hub/internal/models"
)

// UserRequest represents the profile fields accepted on create
type UserRequest struct {
	Name     string   `json:"name" validate:"required"`
	Username string   `json:"username"`
	Email    string   `json:"email" validate:"omitempty,email"`
	Github   string   `json:"github"`
	Leetcode string   `json:"leetcode"`
	Linkedin string   `json:"linkedin"`
	Bio      string   `json:"bio"`
	Skills   []string `json:"skills"`
}

func (req UserRequest) input() engine.UserInput {
	return engine.UserInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Github:   req.Github,
		Leetcode: req.Leetcode,
		Linkedin: req.Linkedin,
		Bio:      req.Bio,
		Skills:   req.Skills,
	}
}

// RegisterUserRequest represents a request to register a new user. Name may
// be omitted; email and password may not.
type RegisterUserRequest struct {
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=6"`
	Github   string   `json:"github"`
	Leetcode string   `json:"leetcode"`
	Linkedin string   `json:"linkedin"`
	Bio      string   `json:"bio"`
	Skills   []string `json:"skills"`
}

func (req RegisterUserRequest) input() engine.UserInput {
	return engine.UserInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Github:   req.Github,
		Leetcode: req.Leetcode,
		Linkedin: req.Linkedin,
		Bio:      req.Bio,
		Skills:   req.Skills,
	}
}

// LoginRequest represents a request to log in a user
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest carries a partial update; absent fields are left alone
type UpdateUserRequest struct {
	Name     *string   `json:"name"`
	Bio      *string   `json:"bio"`
	Github   *string   `json:"github"`
	Leetcode *string   `json:"leetcode"`
	Linkedin *string   `json:"linkedin"`
	Skills   *[]string `json:"skills"`
}

// UserVoteRequest represents a vote on a user
type UserVoteRequest struct {
	VoteType string `json:"voteType"`
	VoterID  string `json:"voterId"`
}

// HandleUserRegistration handles requests to register a new user
func (s *Server) HandleUserRegistration() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterUserRequest
		if !s.decode(w, r, &req) {
			return
		}
		ctx, cancel := s.requestContext(r)
		defer cancel()

		res, err := s.Engine.Register(ctx, engine.RegisterInput{UserInput: req.input(), Password: req.Password})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, api.LoginResponse{
			Success: true,
			Token:   res.Token,
			UserID:  res.User.ID,
			User:    res.User,
		})
	}
}

// HandleUserLogin handles requests to log in a user
func (s *Server) HandleUserLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if !s.decode(w, r, &req) {
			return
		}
		ctx, cancel := s.requestContext(r)
		defer cancel()

		res, err := s.Engine.Login(ctx, req.Email, req.Password)
		if err != nil {
			slog.Debug("login rejected", "email", req.Email, "err", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, api.LoginResponse{
			Success: true,
			Token:   res.Token,
			UserID:  res.User.ID,
			User:    res.User,
		})
	}
}

// HandleCreateUser creates a user without credentials
func (s *Server) HandleCreateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UserRequest
		if !s.decode(w, r, &req) {
			return
		}
		ctx, cancel := s.requestContext(r)
		defer cancel()

		user, err := s.Engine.CreateUser(ctx, req.input())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, api.OK(user))
	}
}

// HandleGetAllUsers lists every user
func (s *Server) HandleGetAllUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := s.requestContext(r)
		defer cancel()

		users, err := s.Engine.ListUsers(ctx)
		if err != nil {
			writeError(w, err)
			return
		}
		if users == nil {
			users = []*models.User{}
		}
		writeJSON(w, http.StatusOK, api.OK(users))
	}
}

// HandleGetUser returns a user with its posts
func (s *Server) HandleGetUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := s.requestContext(r)
		defer cancel()

		user, err := s.Engine.GetUser(ctx, r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, api.OK(user))
	}
}

// HandleUpdateUser applies a partial profile update
func (s *Server) HandleUpdateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateUserRequest
		if !s.decode(w, r, &req) {
			return
		}
		ctx, cancel := s.requestContext(r)
		defer cancel()

		user, err := s.Engine.UpdateUser(ctx, r.PathValue("id"), models.UserUpdate{
			Name:     req.Name,
			Bio:      req.Bio,
			Github:   req.Github,
			Leetcode: req.Leetcode,
			Linkedin: req.Linkedin,
			Skills:   req.Skills,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, api.OK(user))
	}
}

// HandleDeleteUser removes a user; their posts are kept
func (s *Server) HandleDeleteUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := s.requestContext(r)
		defer cancel()

		if err := s.Engine.DeleteUser(ctx, r.PathValue("id")); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, api.Response{Success: true, Message: "User deleted"})
	}
}

// HandleUserVote records a vote on a user profile
func (s *Server) HandleUserVote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UserVoteRequest
		if !s.decode(w, r, &req) {
			return
		}
		ctx, cancel := s.requestContext(r)
		defer cancel()

		user, err := s.Engine.VoteUser(ctx, r.PathValue("id"), req.VoterID, req.VoteType)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, api.OK(user))
	}
}

// HandleRefreshProfile pulls GitHub and LeetCode data for one user
func (s *Server) HandleRefreshProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := s.requestContext(r)
		defer cancel()

		user, err := s.Engine.RefreshProfile(ctx, r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, api.OK(user))
	}
}

// HandleRefreshAllProfiles refreshes every user's linked profiles
func (s *Server) HandleRefreshAllProfiles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Walks every user, so it is bound only by the client connection.
		updated, err := s.Engine.RefreshAllProfiles(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, api.Response{
			Success: true,
			Message: "Profiles refreshed",
			Data:    map[string]int{"updated": updated},
		})
	}
}
