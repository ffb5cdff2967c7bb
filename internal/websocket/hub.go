package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"nest-hub/internal/models"
)

// ChatService records chat traffic and presence for the hub.
type ChatService interface {
	PostChatMessage(ctx context.Context, connID, username, message string) (*models.ChatMessage, error)
	ChatConnected(connID, userID, username string)
	ChatDisconnected(connID string)
}

// IncomingMessage is what clients send.
type IncomingMessage struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

// OutgoingMessage is relayed to every client. Timestamp is Unix milliseconds.
type OutgoingMessage struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type errorMessage struct {
	Error string `json:"error"`
}

// directMessage is a payload for one client only.
type directMessage struct {
	client  *Client
	payload []byte
}

// Hub maintains the set of active clients and broadcasts messages.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Outbound payloads for every client.
	broadcast chan []byte

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Replies addressed to a single client, such as validation errors.
	direct chan directMessage

	// Closed when Run returns.
	done chan struct{}

	chat ChatService

	// Mutex to protect concurrent access to the clients map.
	mu sync.RWMutex
}

func NewHub(chat ChatService) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan directMessage, 16),
		done:       make(chan struct{}),
		chat:       chat,
	}
}

// Run processes registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	slog.Info("chat hub started")
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			slog.Info("chat hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.chat.ChatConnected(client.id, client.userID, "")
			slog.Debug("chat client registered", "conn_id", client.id, "user_id", client.userID, "clients", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.mu.Unlock()
				h.chat.ChatDisconnected(client.id)
				slog.Debug("chat client unregistered", "conn_id", client.id, "user_id", client.userID)
			} else {
				h.mu.Unlock()
			}

		case dm := <-h.direct:
			h.mu.RLock()
			if h.clients[dm.client] {
				select {
				case dm.client.send <- dm.payload:
				default:
				}
			}
			h.mu.RUnlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					slog.Warn("chat send buffer full, dropping message", "conn_id", client.id)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// ClientCount reports the number of registered connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues payload for every client. It is a no-op once the hub stopped.
func (h *Hub) Broadcast(payload []byte) {
	select {
	case h.broadcast <- payload:
	case <-h.done:
	}
}

func (h *Hub) sendTo(client *Client, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case h.direct <- directMessage{client: client, payload: payload}:
	case <-h.done:
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// relay records an incoming line and fans it out to every client.
func (h *Hub) relay(ctx context.Context, from *Client, in IncomingMessage) {
	msg, err := h.chat.PostChatMessage(ctx, from.id, in.Username, in.Message)
	if err != nil {
		h.sendTo(from, errorMessage{Error: err.Error()})
		return
	}

	payload, err := json.Marshal(OutgoingMessage{
		Username:  msg.Username,
		Message:   msg.Message,
		Timestamp: msg.Timestamp.UnixMilli(),
	})
	if err != nil {
		slog.Error("failed to encode chat message", "err", err)
		return
	}
	h.Broadcast(payload)
}
