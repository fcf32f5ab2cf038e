package assistant

import (
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/assistant"
	"github.com/shopspring/decimal"
)

// CreateSessionRequest starts a conversation, optionally about one dossier.
type CreateSessionRequest struct {
	Title     string
	DossierID *uuid.UUID
}

// MessageResponse is a chat turn as returned by the API.
type MessageResponse struct {
	ID               uuid.UUID       `json:"id"`
	Role             string          `json:"role"`
	Content          string          `json:"content"`
	HTML             string          `json:"html,omitempty"`
	PromptTokens     int             `json:"prompt_tokens,omitempty"`
	CompletionTokens int             `json:"completion_tokens,omitempty"`
	Cost             decimal.Decimal `json:"cost"`
	CreatedAt        time.Time       `json:"created_at"`
}

func toMessageResponse(m assistant.ChatMessage) MessageResponse {
	return MessageResponse{
		ID:               m.ID,
		Role:             string(m.Role),
		Content:          m.Content,
		HTML:             m.HTML,
		PromptTokens:     m.PromptTokens,
		CompletionTokens: m.CompletionTokens,
		Cost:             m.Cost,
		CreatedAt:        m.CreatedAt,
	}
}

// SessionResponse is a chat session as returned by the API.
type SessionResponse struct {
	ID               uuid.UUID         `json:"id"`
	Title            string            `json:"title"`
	Model            string            `json:"model"`
	DossierID        *uuid.UUID        `json:"dossier_id,omitempty"`
	PromptTokens     int               `json:"prompt_tokens"`
	CompletionTokens int               `json:"completion_tokens"`
	Cost             decimal.Decimal   `json:"cost"`
	Messages         []MessageResponse `json:"messages,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// ToSessionResponse converts a domain session.
func ToSessionResponse(s *assistant.ChatSession) SessionResponse {
	out := SessionResponse{
		ID:               s.ID,
		Title:            s.Title,
		Model:            s.Model,
		DossierID:        s.DossierID,
		PromptTokens:     s.PromptTokens,
		CompletionTokens: s.CompletionTokens,
		Cost:             s.Cost,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
	for _, m := range s.Messages {
		out.Messages = append(out.Messages, toMessageResponse(m))
	}
	return out
}

// SourceRef points at a knowledge chunk used to answer.
type SourceRef struct {
	Kind     string    `json:"kind"`
	SourceID uuid.UUID `json:"source_id"`
	Index    int       `json:"index"`
	Score    float64   `json:"score"`
}

// AskResponse carries both new turns of the conversation.
type AskResponse struct {
	SessionID uuid.UUID       `json:"session_id"`
	Question  MessageResponse `json:"question"`
	Answer    MessageResponse `json:"answer"`
	Sources   []SourceRef     `json:"sources"`
}

// UsageRowResponse is the usage of one user.
type UsageRowResponse struct {
	UserID           uuid.UUID       `json:"user_id"`
	UserName         string          `json:"user_name,omitempty"`
	Sessions         int64           `json:"sessions"`
	PromptTokens     int64           `json:"prompt_tokens"`
	CompletionTokens int64           `json:"completion_tokens"`
	Cost             decimal.Decimal `json:"cost"`
}

// UsageSummary aggregates assistant usage over a period.
type UsageSummary struct {
	From             time.Time          `json:"from"`
	To               time.Time          `json:"to"`
	Users            []UsageRowResponse `json:"users"`
	PromptTokens     int64              `json:"prompt_tokens"`
	CompletionTokens int64              `json:"completion_tokens"`
	Cost             decimal.Decimal    `json:"cost"`
}
