package domain

import (
	"time"

	"github.com/google/uuid"
)

// SenderRole is the originator class of a conversation message
type SenderRole string

const (
	SenderExternalUser SenderRole = "external_user"
	SenderVendor       SenderRole = "vendor"
	SenderAdmin        SenderRole = "admin"
	SenderChatbot      SenderRole = "chatbot"
)

// Valid reports whether r is one of the known sender roles.
func (r SenderRole) Valid() bool {
	switch r {
	case SenderExternalUser, SenderVendor, SenderAdmin, SenderChatbot:
		return true
	}
	return false
}

// Message is one turn of a session. Seq orders messages within the session.
type Message struct {
	ID         uuid.UUID  `json:"id"`
	SessionID  uuid.UUID  `json:"session_id"`
	Seq        int64      `json:"seq"`
	SenderRole SenderRole `json:"sender_role"`
	Content    string     `json:"content"`
	TokenCount int        `json:"token_count"`
	CreatedAt  time.Time  `json:"created_at"`
}
