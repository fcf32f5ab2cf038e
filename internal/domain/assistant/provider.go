package assistant

import (
	"context"

	"github.com/notaris/backend/internal/domain/shared"
)

// PromptMessage is one turn sent to a completion provider.
type PromptMessage struct {
	Role    MessageRole
	Content string
}

// CompletionRequest asks a provider to continue a conversation.
type CompletionRequest struct {
	Model       string
	Messages    []PromptMessage
	Temperature float64
	MaxTokens   int
}

// Completion is a provider answer with its reported token usage. Providers
// that do not report usage leave the counts at zero.
type Completion struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	FinishReason     string
}

// CompletionProvider produces answers for the assistant.
type CompletionProvider interface {
	Complete(ctx context.Context, req *CompletionRequest) (*Completion, error)
	Name() string
}

// ErrProviderUnavailable wraps failures of the completion backend.
var ErrProviderUnavailable = shared.NewDomainError("AI_PROVIDER_UNAVAILABLE", "The assistant is temporarily unavailable")
