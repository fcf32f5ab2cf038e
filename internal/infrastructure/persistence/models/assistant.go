package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/assistant"
	"github.com/shopspring/decimal"
)

// ChatSessionModel is the persistence model for an assistant conversation.
type ChatSessionModel struct {
	TenantAggregateModel
	UserID           uuid.UUID          `gorm:"type:uuid;not null;index"`
	Title            string             `gorm:"type:varchar(200);not null"`
	Model            string             `gorm:"type:varchar(100)"`
	DossierID        *uuid.UUID         `gorm:"type:uuid;index"`
	PromptTokens     int                `gorm:"not null;default:0"`
	CompletionTokens int                `gorm:"not null;default:0"`
	Cost             decimal.Decimal    `gorm:"type:decimal(18,6);not null;default:0"`
	Messages         []ChatMessageModel `gorm:"foreignKey:SessionID"`
}

// TableName returns the table name for GORM
func (ChatSessionModel) TableName() string {
	return "chat_sessions"
}

// ToDomain converts to a domain ChatSession.
func (m *ChatSessionModel) ToDomain() *assistant.ChatSession {
	s := &assistant.ChatSession{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		UserID:              m.UserID,
		Title:               m.Title,
		Model:               m.Model,
		DossierID:           m.DossierID,
		PromptTokens:        m.PromptTokens,
		CompletionTokens:    m.CompletionTokens,
		Cost:                m.Cost,
	}
	for i := range m.Messages {
		s.Messages = append(s.Messages, m.Messages[i].ToDomain())
	}
	return s
}

// ChatSessionModelFromDomain creates a persistence model without messages;
// messages are appended separately.
func ChatSessionModelFromDomain(s *assistant.ChatSession) *ChatSessionModel {
	m := &ChatSessionModel{
		UserID:           s.UserID,
		Title:            s.Title,
		Model:            s.Model,
		DossierID:        s.DossierID,
		PromptTokens:     s.PromptTokens,
		CompletionTokens: s.CompletionTokens,
		Cost:             s.Cost,
	}
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	return m
}

// ChatMessageModel is one stored turn.
type ChatMessageModel struct {
	ID               uuid.UUID             `gorm:"type:uuid;primary_key"`
	TenantID         uuid.UUID             `gorm:"type:uuid;not null;index"`
	SessionID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	Role             assistant.MessageRole `gorm:"type:varchar(20);not null"`
	Content          string                `gorm:"type:text;not null"`
	HTML             string                `gorm:"type:text"`
	PromptTokens     int                   `gorm:"not null;default:0"`
	CompletionTokens int                   `gorm:"not null;default:0"`
	Cost             decimal.Decimal       `gorm:"type:decimal(18,6);not null;default:0"`
	CreatedAt        time.Time             `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ChatMessageModel) TableName() string {
	return "chat_messages"
}

// ToDomain converts to a domain ChatMessage.
func (m *ChatMessageModel) ToDomain() assistant.ChatMessage {
	return assistant.ChatMessage{
		ID:               m.ID,
		TenantID:         m.TenantID,
		SessionID:        m.SessionID,
		Role:             m.Role,
		Content:          m.Content,
		HTML:             m.HTML,
		PromptTokens:     m.PromptTokens,
		CompletionTokens: m.CompletionTokens,
		Cost:             m.Cost,
		CreatedAt:        m.CreatedAt,
	}
}

// ChatMessageModelFromDomain creates a persistence model from a domain ChatMessage.
func ChatMessageModelFromDomain(msg assistant.ChatMessage) ChatMessageModel {
	return ChatMessageModel{
		ID:               msg.ID,
		TenantID:         msg.TenantID,
		SessionID:        msg.SessionID,
		Role:             msg.Role,
		Content:          msg.Content,
		HTML:             msg.HTML,
		PromptTokens:     msg.PromptTokens,
		CompletionTokens: msg.CompletionTokens,
		Cost:             msg.Cost,
		CreatedAt:        msg.CreatedAt,
	}
}

// KnowledgeChunkModel is one retrievable text slice.
type KnowledgeChunkModel struct {
	ID         uuid.UUID            `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	SourceKind assistant.SourceKind `gorm:"type:varchar(20);not null"`
	SourceID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	DossierID  *uuid.UUID           `gorm:"type:uuid;index"`
	Position   int                  `gorm:"not null"`
	Content    string               `gorm:"type:text;not null"`
	Tokens     int                  `gorm:"not null"`
	CreatedAt  time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (KnowledgeChunkModel) TableName() string {
	return "knowledge_chunks"
}

// ToDomain converts to a domain KnowledgeChunk.
func (m *KnowledgeChunkModel) ToDomain() *assistant.KnowledgeChunk {
	return &assistant.KnowledgeChunk{
		ID:         m.ID,
		TenantID:   m.TenantID,
		SourceKind: m.SourceKind,
		SourceID:   m.SourceID,
		DossierID:  m.DossierID,
		Index:      m.Position,
		Content:    m.Content,
		Tokens:     m.Tokens,
		CreatedAt:  m.CreatedAt,
	}
}

// KnowledgeChunkModelFromDomain creates a persistence model from a domain chunk.
func KnowledgeChunkModelFromDomain(c *assistant.KnowledgeChunk) *KnowledgeChunkModel {
	return &KnowledgeChunkModel{
		ID:         c.ID,
		TenantID:   c.TenantID,
		SourceKind: c.SourceKind,
		SourceID:   c.SourceID,
		DossierID:  c.DossierID,
		Position:   c.Index,
		Content:    c.Content,
		Tokens:     c.Tokens,
		CreatedAt:  c.CreatedAt,
	}
}
