package handlers

import (
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	ws "github.com/gorilla/websocket"

	"nest-hub/internal/engine"
	"nest-hub/internal/middleware"
	"nest-hub/internal/utils"
	"nest-hub/internal/websocket"
)

// Server holds all server dependencies
type Server struct {
	Engine         *engine.Engine
	Hub            *websocket.Hub
	Tokens         *middleware.TokenManager
	Metrics        *utils.MetricsCollector
	CORS           *middleware.CORSConfig
	RequestTimeout time.Duration
	// MetricsEnabled exposes GET /metrics.
	MetricsEnabled bool

	validate *validator.Validate
	upgrader ws.Upgrader
}

// NewServer creates a new Server instance with the given components
func NewServer(
	eng *engine.Engine,
	hub *websocket.Hub,
	tokens *middleware.TokenManager,
	metrics *utils.MetricsCollector,
	allowedOrigins []string,
) *Server {
	validate := validator.New(validator.WithRequiredStructEnabled())
	// Report json names in validation details.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	cors := middleware.DefaultCORSConfig(allowedOrigins)
	return &Server{
		Engine:         eng,
		Hub:            hub,
		Tokens:         tokens,
		Metrics:        metrics,
		CORS:           cors,
		RequestTimeout: 10 * time.Second,
		MetricsEnabled: true,
		validate:       validate,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || cors.OriginAllowed(origin)
			},
		},
	}
}

// Routes registers every endpoint and wraps the mux with CORS and request metrics.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	auth := func(h http.HandlerFunc) http.Handler { return s.Tokens.RequireAuth(h) }

	mux.Handle("GET /health", s.HandleSimpleHealth())
	mux.Handle("GET /api", s.HandleAPIInfo())
	if s.MetricsEnabled {
		mux.Handle("GET /metrics", s.Metrics.Handler())
	}

	// Users
	mux.Handle("POST /api/users/register", s.HandleUserRegistration())
	mux.Handle("POST /api/users/login", s.HandleUserLogin())
	mux.Handle("POST /api/users", s.HandleCreateUser())
	mux.Handle("GET /api/users", s.HandleGetAllUsers())
	mux.Handle("GET /api/users/profiles", s.HandleRefreshAllProfiles())
	mux.Handle("GET /api/users/{id}", s.HandleGetUser())
	mux.Handle("PUT /api/users/{id}", s.HandleUpdateUser())
	mux.Handle("DELETE /api/users/{id}", s.HandleDeleteUser())
	mux.Handle("POST /api/users/{id}/vote", s.HandleUserVote())
	mux.Handle("GET /api/users/{id}/profile", s.HandleRefreshProfile())

	// Posts and comment trees
	mux.Handle("POST /api/posts", auth(s.HandleCreatePost()))
	mux.Handle("GET /api/posts", auth(s.HandleListPosts()))
	mux.Handle("GET /api/posts/{id}", auth(s.HandleGetPost()))
	mux.Handle("PUT /api/posts/{id}", auth(s.HandleUpdatePost()))
	mux.Handle("DELETE /api/posts/{id}", auth(s.HandleDeletePost()))
	mux.Handle("POST /api/posts/{id}/vote", auth(s.HandlePostVote()))
	mux.Handle("POST /api/posts/{id}/comment", auth(s.HandleComment()))
	mux.Handle("POST /api/posts/{id}/comment/{commentId}/reply", auth(s.HandleReply()))
	mux.Handle("POST /api/posts/{id}/comment/{commentId}/vote", auth(s.HandleCommentVote()))
	mux.Handle("POST /api/posts/{id}/comment/{commentId}/reply/{replyId}/vote", auth(s.HandleReplyVote()))

	// Opportunities
	mux.Handle("GET /api/opportunities", auth(s.HandleListOpportunities()))
	mux.Handle("GET /api/opportunities/{id}", auth(s.HandleGetOpportunity()))

	// Chat
	mux.Handle("GET /ws/chat", auth(s.HandleWebSocket()))
	mux.Handle("GET /api/chat/online", auth(s.HandleOnlineUsers()))
	mux.Handle("GET /api/chat/history", auth(s.HandleChatHistory()))

	var h http.Handler = mux
	h = middleware.RequestMetrics(s.Metrics)(h)
	h = middleware.CORSMiddleware(s.CORS)(h)
	return h
}
