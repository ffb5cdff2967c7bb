package api

import "nest-hub/internal/models"

// LoginResponse is returned by register and login.
type LoginResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token,omitempty"`
	Error   string       `json:"error,omitempty"`
	UserID  string       `json:"userId"`
	User    *models.User `json:"user,omitempty"`
}
