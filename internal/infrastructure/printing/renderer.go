// Package printing turns register and invoice data into PDF documents.
package printing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/notaris/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// PaperSize names a supported sheet format.
type PaperSize string

const (
	PaperA4     PaperSize = "A4"
	PaperLetter PaperSize = "Letter"
)

// ParsePaperSize accepts configuration values case-insensitively.
func ParsePaperSize(s string) (PaperSize, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "a4":
		return PaperA4, nil
	case "letter":
		return PaperLetter, nil
	}
	return "", fmt.Errorf("unsupported paper size %q", s)
}

// IsValid reports whether the size is known.
func (p PaperSize) IsValid() bool {
	return p == PaperA4 || p == PaperLetter
}

// Dimensions returns width and height in millimetres, portrait.
func (p PaperSize) Dimensions() (width, height float64) {
	if p == PaperLetter {
		return 215.9, 279.4
	}
	return 210, 297
}

// Margins in millimetres.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// DefaultMargins returns 15mm on every side.
func DefaultMargins() Margins {
	return Margins{Top: 15, Right: 15, Bottom: 15, Left: 15}
}

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	HTML      string
	Title     string
	PaperSize PaperSize
	Landscape bool
	Margins   Margins
	// HeaderHTML and FooterHTML are Chrome print templates; the
	// pageNumber and totalPages classes are filled in per page.
	HeaderHTML string
	FooterHTML string
	Timeout    time.Duration
}

// Validate checks the request before a browser is involved.
func (r *RenderRequest) Validate() error {
	if r == nil {
		return NewRenderError(ErrCodeInvalidHTML, "render request is nil", nil)
	}
	if strings.TrimSpace(r.HTML) == "" {
		return NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}
	if !r.PaperSize.IsValid() {
		return NewRenderError(ErrCodeInvalidPaperSize, "invalid paper size: "+string(r.PaperSize), nil)
	}
	return nil
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	PDFData        []byte
	PageCount      int
	RenderDuration time.Duration
}

// PDFRenderer defines the interface for rendering HTML to PDF
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// RenderError represents an error during PDF rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

const (
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
	ErrCodeTemplateFailed   = "TEMPLATE_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewRenderer picks the renderer named by cfg.Driver.
func NewRenderer(cfg config.PrintingConfig, logger *zap.Logger) (PDFRenderer, error) {
	switch cfg.Driver {
	case "stub":
		return NewStubRenderer(), nil
	case "", "chrome":
		return NewChromedpRenderer(&ChromedpConfig{
			ExecPath:       cfg.ChromePath,
			DefaultTimeout: cfg.Timeout,
			MaxConcurrent:  cfg.MaxConcurrent,
			NoSandbox:      true,
			Logger:         logger,
		})
	}
	return nil, fmt.Errorf("unknown printing driver %q", cfg.Driver)
}
