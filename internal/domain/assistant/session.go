// Package assistant models the AI chat assistant: sessions, messages and the
// office knowledge base used for retrieval.
package assistant

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MessageRole is the author of a chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// MaxQuestionLength bounds a single question, in runes.
const MaxQuestionLength = 4000

// ErrSessionDeleted is returned when asking a deleted session.
var ErrSessionDeleted = shared.NewDomainError("SESSION_DELETED", "Chat session has been deleted")

// ChatSession is one conversation of a user with the assistant.
type ChatSession struct {
	shared.TenantAggregateRoot
	UserID           uuid.UUID
	Title            string
	Model            string
	DossierID        *uuid.UUID
	PromptTokens     int
	CompletionTokens int
	Cost             decimal.Decimal
	Messages         []ChatMessage
}

// NewChatSession starts an empty session.
func NewChatSession(tenantID, userID uuid.UUID, title, model string, dossierID *uuid.UUID) (*ChatSession, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Session owner is required")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "New conversation"
	}
	if len(title) > 200 {
		return nil, shared.NewDomainError("INVALID_TITLE", "Session title cannot exceed 200 characters")
	}
	return &ChatSession{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, userID),
		UserID:              userID,
		Title:               title,
		Model:               strings.TrimSpace(model),
		DossierID:           dossierID,
		Cost:                decimal.Zero,
	}, nil
}

// OwnedBy reports whether the session belongs to user.
func (s *ChatSession) OwnedBy(userID uuid.UUID) bool {
	return s.UserID == userID
}

// Rename changes the session title.
func (s *ChatSession) Rename(title string) error {
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > 200 {
		return shared.NewDomainError("INVALID_TITLE", "Session title must be between 1 and 200 characters")
	}
	s.Title = title
	s.IncrementVersion()
	return nil
}

// RecordUsage adds a completion's usage to the session totals.
func (s *ChatSession) RecordUsage(prompt, completion int, cost decimal.Decimal) {
	s.PromptTokens += prompt
	s.CompletionTokens += completion
	s.Cost = s.Cost.Add(cost)
	s.IncrementVersion()
}

// TitleFromQuestion derives a session title from the first question.
func TitleFromQuestion(q string) string {
	q = strings.Join(strings.Fields(q), " ")
	r := []rune(q)
	if len(r) <= 60 {
		return q
	}
	cut := 60
	for i := 60; i > 30; i-- {
		if r[i] == ' ' {
			cut = i
			break
		}
	}
	return string(r[:cut]) + "…"
}

// ChatMessage is one turn of a session.
type ChatMessage struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	SessionID        uuid.UUID
	Role             MessageRole
	Content          string
	HTML             string
	PromptTokens     int
	CompletionTokens int
	Cost             decimal.Decimal
	CreatedAt        time.Time
}

// NewChatMessage builds a message for a session.
func NewChatMessage(s *ChatSession, role MessageRole, content string) ChatMessage {
	return ChatMessage{
		ID:        uuid.New(),
		TenantID:  s.TenantID,
		SessionID: s.ID,
		Role:      role,
		Content:   content,
		Cost:      decimal.Zero,
		CreatedAt: time.Now(),
	}
}

// ValidateQuestion trims and checks a user question.
func ValidateQuestion(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", shared.NewDomainError("INVALID_QUESTION", "Question cannot be empty")
	}
	if len([]rune(q)) > MaxQuestionLength {
		return "", shared.NewDomainError("INVALID_QUESTION", "Question is too long")
	}
	return q, nil
}

// SourceKind identifies where knowledge chunks come from.
type SourceKind string

const (
	SourceDocument SourceKind = "document"
	SourceDossier  SourceKind = "dossier"
	SourceNote     SourceKind = "note"
)

// KnowledgeChunk is one retrievable slice of office knowledge.
type KnowledgeChunk struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	SourceKind SourceKind
	SourceID   uuid.UUID
	DossierID  *uuid.UUID
	Index      int
	Content    string
	Tokens     int
	CreatedAt  time.Time
}

// BuildChunks splits text and wraps the pieces as chunks of one source.
func BuildChunks(tenantID uuid.UUID, kind SourceKind, sourceID uuid.UUID, dossierID *uuid.UUID, text string, size, overlap int) []*KnowledgeChunk {
	pieces := Chunk(text, size, overlap)
	now := time.Now()
	out := make([]*KnowledgeChunk, 0, len(pieces))
	for i, p := range pieces {
		out = append(out, &KnowledgeChunk{
			ID:         uuid.New(),
			TenantID:   tenantID,
			SourceKind: kind,
			SourceID:   sourceID,
			DossierID:  dossierID,
			Index:      i,
			Content:    p,
			Tokens:     EstimateTokens(p),
			CreatedAt:  now,
		})
	}
	return out
}

// UsageRow aggregates assistant usage of one user.
type UsageRow struct {
	UserID           uuid.UUID
	Sessions         int64
	PromptTokens     int64
	CompletionTokens int64
	Cost             decimal.Decimal
}
