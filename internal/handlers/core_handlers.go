package handlers

import (
	"net/http"

	"nest-hub/internal/api"
)

// HandleSimpleHealth reports liveness only
func (s *Server) HandleSimpleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"chatClients": s.Hub.ClientCount(),
		})
	}
}

// HandleAPIInfo describes the service and its top-level endpoints
func (s *Server) HandleAPIInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, api.Response{
			Success: true,
			Message: "Welcome to the nest-hub API",
			Data: map[string]any{
				"version": "1.0.0",
				"endpoints": map[string]string{
					"users":         "/api/users",
					"posts":         "/api/posts",
					"opportunities": "/api/opportunities",
					"chat":          "/ws/chat",
					"health":        "/health",
				},
			},
		})
	}
}
