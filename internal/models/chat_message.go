package models

import (
	"time"
)

// ChatMessage is one relayed chat line, persisted for history.
type ChatMessage struct {
	ID        string    `json:"id" bson:"_id"`
	Username  string    `json:"username" bson:"username"`
	Message   string    `json:"message" bson:"message"`
	Timestamp time.Time `json:"timestamp" bson:"createdAt"`
}
