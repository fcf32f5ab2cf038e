package mail

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const logSenderKeep = 100

// LogSender writes messages to the log instead of delivering them. It
// keeps the most recent ones for inspection in development and tests.
type LogSender struct {
	logger *zap.Logger

	mu   sync.Mutex
	sent []Message
}

func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.FileName)
	}
	s.logger.Info("mail not delivered (log driver)",
		zap.Strings("to", msg.To),
		zap.Strings("cc", msg.Cc),
		zap.String("subject", msg.Subject),
		zap.Strings("attachments", names))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, *msg)
	if len(s.sent) > logSenderKeep {
		s.sent = s.sent[len(s.sent)-logSenderKeep:]
	}
	return nil
}

// Sent returns the kept messages, oldest first.
func (s *LogSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}

var _ Sender = (*LogSender)(nil)
