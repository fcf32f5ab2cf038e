package messaging

import (
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/messaging"
)

// SendRequest starts a new thread. Exactly one of RecipientID and
// RecipientEmail must be set.
type SendRequest struct {
	RecipientID    *uuid.UUID
	RecipientEmail string
	Subject        string
	Body           string
	DossierID      *uuid.UUID
}

// ListFilter narrows mailbox listings.
type ListFilter struct {
	UnreadOnly bool
	DossierID  *uuid.UUID
	Page       int
	PageSize   int
}

// MessageResponse is a message as returned by the API.
type MessageResponse struct {
	ID             uuid.UUID  `json:"id"`
	ThreadID       string     `json:"thread_id"`
	ParentID       *uuid.UUID `json:"parent_id,omitempty"`
	DossierID      *uuid.UUID `json:"dossier_id,omitempty"`
	SenderID       uuid.UUID  `json:"sender_id"`
	RecipientID    *uuid.UUID `json:"recipient_id,omitempty"`
	RecipientEmail string     `json:"recipient_email,omitempty"`
	Channel        string     `json:"channel"`
	Subject        string     `json:"subject"`
	Body           string     `json:"body"`
	Read           bool       `json:"read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	SentAt         time.Time  `json:"sent_at"`
}

// ToMessageResponse converts a domain message.
func ToMessageResponse(m *messaging.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ThreadID:       m.ThreadID,
		ParentID:       m.ParentID,
		DossierID:      m.DossierID,
		SenderID:       m.SenderID,
		RecipientID:    m.RecipientID,
		RecipientEmail: m.RecipientEmail,
		Channel:        string(m.Channel),
		Subject:        m.Subject,
		Body:           m.Body,
		Read:           m.IsRead(),
		ReadAt:         m.ReadAt,
		SentAt:         m.SentAt,
	}
}
