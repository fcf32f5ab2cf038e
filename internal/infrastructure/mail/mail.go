// Package mail sends outgoing e-mail: appointment notices, external
// messages and invoices.
package mail

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"
	"strings"

	"github.com/notaris/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Attachment is a file sent along with a message.
type Attachment struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Message is a single outgoing e-mail.
type Message struct {
	To          []string
	Cc          []string
	ReplyTo     string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

var (
	ErrNoRecipients = errors.New("mail: message has no recipients")
	ErrNoBody       = errors.New("mail: message has no body")
)

// Validate checks addresses and that there is something to send.
func (m *Message) Validate() error {
	if m == nil || len(m.To) == 0 {
		return ErrNoRecipients
	}
	for _, addr := range append(append([]string{}, m.To...), m.Cc...) {
		if _, err := netmail.ParseAddress(addr); err != nil {
			return fmt.Errorf("mail: invalid recipient %q: %w", addr, err)
		}
	}
	if m.ReplyTo != "" {
		if _, err := netmail.ParseAddress(m.ReplyTo); err != nil {
			return fmt.Errorf("mail: invalid reply-to %q: %w", m.ReplyTo, err)
		}
	}
	if strings.TrimSpace(m.Text) == "" && strings.TrimSpace(m.HTML) == "" && len(m.Attachments) == 0 {
		return ErrNoBody
	}
	return nil
}

// Recipients returns To and Cc as bare addresses for the SMTP envelope.
func (m *Message) Recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.Cc))
	for _, addr := range append(append([]string{}, m.To...), m.Cc...) {
		if a, err := netmail.ParseAddress(addr); err == nil {
			out = append(out, a.Address)
		}
	}
	return out
}

// NewSender builds the sender named by cfg.Driver.
func NewSender(cfg config.SMTPConfig, logger *zap.Logger) (Sender, error) {
	switch cfg.Driver {
	case "", "log":
		return NewLogSender(logger), nil
	case "smtp":
		return NewSMTPSender(cfg, logger)
	}
	return nil, fmt.Errorf("unknown smtp driver %q", cfg.Driver)
}
