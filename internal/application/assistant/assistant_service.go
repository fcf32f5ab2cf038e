// Package assistant implements the chat assistant: sessions, retrieval
// over the office knowledge base and usage accounting.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/assistant"
	"github.com/notaris/backend/internal/domain/dossier"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/notaris/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const defaultSessionTitle = "New conversation"

// Options tune prompting and retrieval.
type Options struct {
	Model          string
	Temperature    float64
	MaxTokens      int
	ChunkSize      int
	ChunkOverlap   int
	TopK           int
	CandidateLimit int
	HistoryTurns   int
}

func (o Options) withDefaults() Options {
	if o.Model == "" {
		o.Model = "gpt-4o-mini"
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = 1200
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		o.ChunkOverlap = 150
	}
	if o.TopK <= 0 {
		o.TopK = 5
	}
	if o.CandidateLimit <= 0 {
		o.CandidateLimit = 500
	}
	if o.HistoryTurns <= 0 {
		o.HistoryTurns = 10
	}
	return o
}

// MarkdownRenderer renders answers to HTML.
type MarkdownRenderer interface {
	Render(source string) (string, error)
}

// Service handles assistant operations.
type Service struct {
	sessions  assistant.SessionRepository
	knowledge assistant.KnowledgeRepository
	dossiers  dossier.Repository
	documents dossier.DocumentRepository
	users     identity.UserRepository
	provider  assistant.CompletionProvider
	prices    *assistant.PriceTable
	markdown  MarkdownRenderer
	opts      Options
	metrics   *telemetry.BusinessMetrics
	now       func() time.Time
	logger    *zap.Logger
}

// Deps groups the collaborators of the assistant service.
type Deps struct {
	Sessions  assistant.SessionRepository
	Knowledge assistant.KnowledgeRepository
	Dossiers  dossier.Repository
	Documents dossier.DocumentRepository
	Users     identity.UserRepository
	Provider  assistant.CompletionProvider
	Prices    *assistant.PriceTable
	Markdown  MarkdownRenderer
}

// NewService creates a new assistant service
func NewService(deps Deps, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	prices := deps.Prices
	if prices == nil {
		prices = assistant.NewPriceTable(nil)
	}
	return &Service{
		sessions:  deps.Sessions,
		knowledge: deps.Knowledge,
		dossiers:  deps.Dossiers,
		documents: deps.Documents,
		users:     deps.Users,
		provider:  deps.Provider,
		prices:    prices,
		markdown:  deps.Markdown,
		opts:      opts.withDefaults(),
		now:       time.Now,
		logger:    logger,
	}
}

// SetMetrics enables business metrics.
func (s *Service) SetMetrics(m *telemetry.BusinessMetrics) {
	s.metrics = m
}

// CreateSession starts a conversation.
func (s *Service) CreateSession(ctx context.Context, tenantID, userID uuid.UUID, req CreateSessionRequest) (*SessionResponse, error) {
	if req.DossierID != nil {
		if _, err := s.dossiers.FindByID(ctx, tenantID, *req.DossierID); err != nil {
			return nil, err
		}
	}
	title := req.Title
	if strings.TrimSpace(title) == "" {
		title = defaultSessionTitle
	}
	sess, err := assistant.NewChatSession(tenantID, userID, title, s.opts.Model, req.DossierID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	out := ToSessionResponse(sess)
	return &out, nil
}

// ListSessions returns the caller's sessions, most recent first.
func (s *Service) ListSessions(ctx context.Context, tenantID, userID uuid.UUID, page, pageSize int) (shared.Paginated[SessionResponse], error) {
	filter := shared.Filter{Page: page, PageSize: pageSize, OrderBy: "updated_at", OrderDir: "desc"}.Normalize()
	items, total, err := s.sessions.FindByUser(ctx, tenantID, userID, filter)
	if err != nil {
		return shared.Paginated[SessionResponse]{}, err
	}
	out := make([]SessionResponse, 0, len(items))
	for _, sess := range items {
		out = append(out, ToSessionResponse(sess))
	}
	return shared.NewPaginated(out, total, filter.Page, filter.PageSize), nil
}

func (s *Service) owned(ctx context.Context, tenantID, userID, id uuid.UUID, withMessages bool) (*assistant.ChatSession, error) {
	sess, err := s.sessions.FindByID(ctx, tenantID, id, withMessages)
	if err != nil {
		return nil, err
	}
	if !sess.OwnedBy(userID) {
		return nil, shared.ErrNotFound
	}
	return sess, nil
}

// GetSession returns a session with its messages.
func (s *Service) GetSession(ctx context.Context, tenantID, userID, id uuid.UUID) (*SessionResponse, error) {
	sess, err := s.owned(ctx, tenantID, userID, id, true)
	if err != nil {
		return nil, err
	}
	out := ToSessionResponse(sess)
	return &out, nil
}

// RenameSession changes a session title.
func (s *Service) RenameSession(ctx context.Context, tenantID, userID, id uuid.UUID, title string) (*SessionResponse, error) {
	sess, err := s.owned(ctx, tenantID, userID, id, false)
	if err != nil {
		return nil, err
	}
	if err := sess.Rename(title); err != nil {
		return nil, err
	}
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, err
	}
	out := ToSessionResponse(sess)
	return &out, nil
}

// DeleteSession soft-deletes a session.
func (s *Service) DeleteSession(ctx context.Context, tenantID, userID, id uuid.UUID) error {
	if _, err := s.owned(ctx, tenantID, userID, id, false); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, tenantID, id)
}

// Ask answers a question within a session using retrieved office knowledge.
func (s *Service) Ask(ctx context.Context, tenantID, userID, sessionID uuid.UUID, question string) (resp *AskResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "assistant", "ask",
		telemetry.TenantAttr(tenantID), telemetry.IDAttr("session.id", sessionID))
	defer func() { telemetry.End(span, err) }()

	q, err := assistant.ValidateQuestion(question)
	if err != nil {
		return nil, err
	}
	sess, err := s.owned(ctx, tenantID, userID, sessionID, true)
	if err != nil {
		return nil, err
	}

	candidates, err := s.knowledge.Candidates(ctx, tenantID, sess.DossierID, s.opts.CandidateLimit)
	if err != nil {
		return nil, err
	}
	hits := assistant.TopK(q, candidates, s.opts.TopK)

	model := sess.Model
	if model == "" {
		model = s.opts.Model
	}
	req := &assistant.CompletionRequest{
		Model:       model,
		Messages:    s.buildPrompt(sess, hits, q),
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
	}

	started := s.now()
	completion, err := s.provider.Complete(ctx, req)
	if err != nil {
		s.logger.Error("Assistant completion failed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("provider", s.provider.Name()),
			zap.Error(err))
		if !errors.Is(err, assistant.ErrProviderUnavailable) {
			err = fmt.Errorf("%w: %v", assistant.ErrProviderUnavailable, err)
		}
		return nil, err
	}

	promptTokens := completion.PromptTokens
	if promptTokens == 0 {
		for _, m := range req.Messages {
			promptTokens += assistant.EstimateTokens(m.Content)
		}
	}
	completionTokens := completion.CompletionTokens
	if completionTokens == 0 {
		completionTokens = assistant.EstimateTokens(completion.Content)
	}
	cost := s.prices.EstimateCost(model, promptTokens, completionTokens)

	userMsg := assistant.NewChatMessage(sess, assistant.RoleUser, q)
	userMsg.CreatedAt = started
	answer := assistant.NewChatMessage(sess, assistant.RoleAssistant, completion.Content)
	answer.PromptTokens = promptTokens
	answer.CompletionTokens = completionTokens
	answer.Cost = cost
	answer.CreatedAt = s.now()
	if s.markdown != nil {
		if html, err := s.markdown.Render(completion.Content); err == nil {
			answer.HTML = html
		} else {
			s.logger.Warn("Failed to render answer markdown", zap.Error(err))
		}
	}

	if len(sess.Messages) == 0 && sess.Title == defaultSessionTitle {
		if err := sess.Rename(assistant.TitleFromQuestion(q)); err != nil {
			s.logger.Warn("Keeping default session title",
				zap.String("session_id", sess.ID.String()),
				zap.Error(err))
		}
	}
	sess.RecordUsage(promptTokens, completionTokens, cost)
	if err := s.sessions.RecordExchange(ctx, sess, userMsg, answer); err != nil {
		return nil, err
	}

	s.logger.Info("Assistant answered",
		zap.String("tenant_id", tenantID.String()),
		zap.String("session_id", sess.ID.String()),
		zap.String("model", model),
		zap.Int("context_chunks", len(hits)),
		zap.Int("prompt_tokens", promptTokens),
		zap.Int("completion_tokens", completionTokens),
		zap.String("cost", cost.String()))
	s.metrics.AssistantTokens(ctx, tenantID, model, promptTokens, completionTokens)

	sources := make([]SourceRef, 0, len(hits))
	for _, h := range hits {
		sources = append(sources, SourceRef{
			Kind: string(h.Chunk.SourceKind), SourceID: h.Chunk.SourceID, Index: h.Chunk.Index, Score: h.Score,
		})
	}
	return &AskResponse{
		SessionID: sess.ID,
		Question:  toMessageResponse(userMsg),
		Answer:    toMessageResponse(answer),
		Sources:   sources,
	}, nil
}

const systemPrompt = `You are the assistant of a notary office. Answer questions from office staff
accurately and concisely. Use the context excerpts below when they are relevant
and say so when the context does not contain the answer. Do not invent legal
references, amounts or dates. Answer in the language of the question.`

func (s *Service) buildPrompt(sess *assistant.ChatSession, hits []assistant.Scored, question string) []assistant.PromptMessage {
	var sys strings.Builder
	sys.WriteString(systemPrompt)
	if len(hits) > 0 {
		sys.WriteString("\n\nContext:\n")
		for i, h := range hits {
			fmt.Fprintf(&sys, "\n[%d] (%s)\n%s\n", i+1, h.Chunk.SourceKind, h.Chunk.Content)
		}
	}
	msgs := []assistant.PromptMessage{{Role: assistant.RoleSystem, Content: sys.String()}}

	history := sess.Messages
	if max := s.opts.HistoryTurns * 2; len(history) > max {
		history = history[len(history)-max:]
	}
	for _, m := range history {
		if m.Role == assistant.RoleSystem {
			continue
		}
		msgs = append(msgs, assistant.PromptMessage{Role: m.Role, Content: m.Content})
	}
	return append(msgs, assistant.PromptMessage{Role: assistant.RoleUser, Content: question})
}

// IndexDocument replaces the knowledge chunks of a document with chunks of text.
func (s *Service) IndexDocument(ctx context.Context, tenantID, documentID uuid.UUID, text string) (int, error) {
	doc, err := s.documents.FindByID(ctx, tenantID, documentID)
	if err != nil {
		return 0, err
	}
	dossierID := doc.DossierID
	chunks := assistant.BuildChunks(tenantID, assistant.SourceDocument, doc.ID, &dossierID, text, s.opts.ChunkSize, s.opts.ChunkOverlap)
	if err := s.knowledge.ReplaceSource(ctx, tenantID, assistant.SourceDocument, doc.ID, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// ForgetDocument drops the knowledge chunks of a document.
func (s *Service) ForgetDocument(ctx context.Context, tenantID, documentID uuid.UUID) error {
	return s.knowledge.DeleteSource(ctx, tenantID, assistant.SourceDocument, documentID)
}

// IndexDossier indexes the descriptive fields and parties of a dossier.
func (s *Service) IndexDossier(ctx context.Context, tenantID, dossierID uuid.UUID) (int, error) {
	d, err := s.dossiers.FindByID(ctx, tenantID, dossierID)
	if err != nil {
		return 0, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Dossier %s: %s\nDeed type: %s\nStatus: %s\n", d.Reference, d.Title, d.DeedType, d.Status)
	if d.Description != "" {
		b.WriteString("\n" + d.Description + "\n")
	}
	if len(d.Parties) > 0 {
		b.WriteString("\nParties:\n")
		for _, p := range d.Parties {
			fmt.Fprintf(&b, "- %s (%s)\n", p.DisplayName(), p.Capacity)
		}
	}
	id := d.ID
	chunks := assistant.BuildChunks(tenantID, assistant.SourceDossier, d.ID, &id, b.String(), s.opts.ChunkSize, s.opts.ChunkOverlap)
	if err := s.knowledge.ReplaceSource(ctx, tenantID, assistant.SourceDossier, d.ID, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// IndexNote stores office-wide knowledge under noteID. A nil noteID creates a new note.
func (s *Service) IndexNote(ctx context.Context, tenantID uuid.UUID, noteID *uuid.UUID, text string) (uuid.UUID, int, error) {
	if strings.TrimSpace(text) == "" {
		return uuid.Nil, 0, shared.NewDomainError("INVALID_INPUT", "Note text cannot be empty")
	}
	id := uuid.New()
	if noteID != nil {
		id = *noteID
	}
	chunks := assistant.BuildChunks(tenantID, assistant.SourceNote, id, nil, text, s.opts.ChunkSize, s.opts.ChunkOverlap)
	if err := s.knowledge.ReplaceSource(ctx, tenantID, assistant.SourceNote, id, chunks); err != nil {
		return uuid.Nil, 0, err
	}
	return id, len(chunks), nil
}

// UsageSummary returns tokens and cost per user for [from, to).
func (s *Service) UsageSummary(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*UsageSummary, error) {
	if !to.After(from) {
		return nil, shared.NewDomainError("INVALID_TIME_RANGE", "'to' must be after 'from'")
	}
	rows, err := s.sessions.Usage(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	out := &UsageSummary{From: from, To: to, Users: make([]UsageRowResponse, 0, len(rows))}
	for _, r := range rows {
		row := UsageRowResponse{
			UserID:           r.UserID,
			Sessions:         r.Sessions,
			PromptTokens:     r.PromptTokens,
			CompletionTokens: r.CompletionTokens,
			Cost:             r.Cost,
		}
		if s.users != nil {
			if u, err := s.users.FindByID(ctx, tenantID, r.UserID); err == nil {
				row.UserName = u.Name()
			}
		}
		out.PromptTokens += r.PromptTokens
		out.CompletionTokens += r.CompletionTokens
		out.Cost = out.Cost.Add(r.Cost)
		out.Users = append(out.Users, row)
	}
	return out, nil
}
