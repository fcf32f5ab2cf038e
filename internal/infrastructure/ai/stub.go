package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/notaris/backend/internal/domain/assistant"
)

// StubProvider answers without a network call. The reply quotes the last
// user message and reports how much context it received, which keeps
// demos and tests deterministic.
type StubProvider struct {
	// Err, when set, is returned by every call.
	Err error

	mu       sync.Mutex
	requests []assistant.CompletionRequest
}

func NewStubProvider() *StubProvider {
	return &StubProvider{}
}

func (s *StubProvider) Name() string { return "stub" }

func (s *StubProvider) Complete(_ context.Context, req *assistant.CompletionRequest) (*assistant.Completion, error) {
	if req == nil || len(req.Messages) == 0 {
		return nil, errors.New("completion request has no messages")
	}
	s.mu.Lock()
	s.requests = append(s.requests, *req)
	s.mu.Unlock()
	if s.Err != nil {
		return nil, fmt.Errorf("%w: %v", assistant.ErrProviderUnavailable, s.Err)
	}

	var question string
	prompt := 0
	for _, m := range req.Messages {
		prompt += assistant.EstimateTokens(m.Content)
		if m.Role == assistant.RoleUser {
			question = m.Content
		}
	}
	answer := fmt.Sprintf("**Samenvatting** van uw vraag: %s\n\n_(testantwoord, %d berichten in de context)_",
		strings.TrimSpace(question), len(req.Messages))

	return &assistant.Completion{
		Content:          answer,
		Model:            req.Model,
		PromptTokens:     prompt,
		CompletionTokens: assistant.EstimateTokens(answer),
		FinishReason:     "stop",
	}, nil
}

// Requests returns a copy of the requests received so far.
func (s *StubProvider) Requests() []assistant.CompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]assistant.CompletionRequest(nil), s.requests...)
}

var _ assistant.CompletionProvider = (*StubProvider)(nil)
