package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"nest-hub/internal/api"
	"nest-hub/internal/engine/actors"
	"nest-hub/internal/middleware"
	"nest-hub/internal/models"
	"nest-hub/internal/utils"
	"nest-hub/internal/websocket"
)

// HandleWebSocket upgrades an authenticated request to a chat connection.
// The token arrives as a query parameter and is checked by RequireAuth.
func (s *Server) HandleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			writeError(w, utils.NewUnauthorizedError("missing user"))
			return
		}

		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// The upgrader already wrote the HTTP error.
			slog.Warn("websocket upgrade failed", "user_id", userID, "err", err)
			return
		}
		client := websocket.ServeClient(s.Hub, conn, userID)
		slog.Info("chat connection opened", "user_id", userID, "conn_id", client.ID())
	}
}

// HandleOnlineUsers lists the open chat connections
func (s *Server) HandleOnlineUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		online, err := s.Engine.OnlineUsers()
		if err != nil {
			writeError(w, err)
			return
		}
		if online == nil {
			online = []actors.OnlineUser{}
		}
		writeJSON(w, http.StatusOK, api.OK(online))
	}
}

// HandleChatHistory returns recent chat messages, oldest first
func (s *Server) HandleChatHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeError(w, utils.NewValidationError("Invalid limit: %s", raw))
				return
			}
			limit = n
		}
		ctx, cancel := s.requestContext(r)
		defer cancel()

		history, err := s.Engine.ChatHistory(ctx, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		if history == nil {
			history = []*models.ChatMessage{}
		}
		writeJSON(w, http.StatusOK, api.OK(history))
	}
}
