package printing

import (
	"context"
	"fmt"
	"sync"
)

// StubRenderer returns a one-page placeholder PDF and remembers the
// requests it was given. Used in tests and where no browser is installed.
type StubRenderer struct {
	mu       sync.Mutex
	requests []RenderRequest
}

func NewStubRenderer() *StubRenderer {
	return &StubRenderer{}
}

func (s *StubRenderer) Render(_ context.Context, req *RenderRequest) (*RenderResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.requests = append(s.requests, *req)
	s.mu.Unlock()

	body := fmt.Sprintf("%%PDF-1.4\n%% %s\n1 0 obj << /Type /Page >> endobj\n%%%%EOF\n", req.Title)
	return &RenderResult{PDFData: []byte(body), PageCount: 1}, nil
}

// Requests returns a copy of everything rendered so far.
func (s *StubRenderer) Requests() []RenderRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RenderRequest(nil), s.requests...)
}

func (s *StubRenderer) Close() error { return nil }

var _ PDFRenderer = (*StubRenderer)(nil)
