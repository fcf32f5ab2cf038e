// Package messaging implements office-internal messages and client e-mail.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/messaging"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/notaris/backend/internal/infrastructure/mail"
	"github.com/notaris/backend/internal/infrastructure/telemetry"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

var (
	ErrRecipientRequired = shared.NewDomainError("INVALID_RECIPIENT", "Provide either a recipient user or an e-mail address")
	ErrRecipientUnknown  = shared.NewDomainError("INVALID_RECIPIENT", "Recipient is not a user of this office")
	ErrMailUnavailable   = shared.NewDomainError("MAIL_UNAVAILABLE", "E-mail could not be delivered")
)

// Service handles messaging operations.
type Service struct {
	repo   messaging.Repository
	users  identity.UserRepository
	mailer mail.Sender
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a new messaging service
func NewService(repo messaging.Repository, users identity.UserRepository, mailer mail.Sender, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, users: users, mailer: mailer, now: time.Now, logger: logger}
}

func newThreadID(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String()
}

// Send starts a new thread.
func (s *Service) Send(ctx context.Context, tenantID, senderID uuid.UUID, req SendRequest) (resp *MessageResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "messaging", "send", telemetry.TenantAttr(tenantID))
	defer func() { telemetry.End(span, err) }()

	if (req.RecipientID == nil) == (req.RecipientEmail == "") {
		return nil, ErrRecipientRequired
	}
	threadID := newThreadID(s.now())

	var m *messaging.Message
	if req.RecipientID != nil {
		if err := s.checkRecipient(ctx, tenantID, *req.RecipientID); err != nil {
			return nil, err
		}
		m, err = messaging.NewInternalMessage(tenantID, senderID, *req.RecipientID, threadID, req.Subject, req.Body)
	} else {
		m, err = messaging.NewEmailMessage(tenantID, senderID, req.RecipientEmail, threadID, req.Subject, req.Body)
	}
	if err != nil {
		return nil, err
	}
	m.DossierID = req.DossierID

	if err := s.deliver(ctx, tenantID, m); err != nil {
		return nil, err
	}
	out := ToMessageResponse(m)
	return &out, nil
}

func (s *Service) checkRecipient(ctx context.Context, tenantID, recipientID uuid.UUID) error {
	u, err := s.users.FindByID(ctx, tenantID, recipientID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrRecipientUnknown
		}
		return err
	}
	if u.Status == identity.UserStatusDeactivated {
		return ErrRecipientUnknown
	}
	return nil
}

// deliver mails external messages before storing them so a failed
// delivery leaves no trace in the sent box.
func (s *Service) deliver(ctx context.Context, tenantID uuid.UUID, m *messaging.Message) error {
	if m.Channel == messaging.ChannelEmail {
		if s.mailer == nil {
			return ErrMailUnavailable
		}
		msg := &mail.Message{To: []string{m.RecipientEmail}, Subject: m.Subject, Text: m.Body}
		if sender, err := s.users.FindByID(ctx, tenantID, m.SenderID); err == nil && sender.Email != "" {
			msg.ReplyTo = sender.Email
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			s.logger.Error("Failed to deliver e-mail message",
				zap.String("tenant_id", tenantID.String()),
				zap.String("to", m.RecipientEmail),
				zap.Error(err))
			return fmt.Errorf("%w: %v", ErrMailUnavailable, err)
		}
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return err
	}
	s.logger.Info("Message sent",
		zap.String("tenant_id", tenantID.String()),
		zap.String("message_id", m.ID.String()),
		zap.String("thread_id", m.ThreadID),
		zap.String("channel", string(m.Channel)))
	return nil
}

// Reply answers a message in the same thread. Replies to e-mail go out
// by e-mail again; internal replies go to the other participant.
func (s *Service) Reply(ctx context.Context, tenantID, userID, messageID uuid.UUID, body string) (*MessageResponse, error) {
	parent, err := s.visible(ctx, tenantID, userID, messageID)
	if err != nil {
		return nil, err
	}
	subject := messaging.ReplySubject(parent.Subject)

	var m *messaging.Message
	switch {
	case parent.Channel == messaging.ChannelEmail:
		m, err = messaging.NewEmailMessage(tenantID, userID, parent.RecipientEmail, parent.ThreadID, subject, body)
	case parent.SenderID == userID:
		m, err = messaging.NewInternalMessage(tenantID, userID, *parent.RecipientID, parent.ThreadID, subject, body)
	default:
		m, err = messaging.NewInternalMessage(tenantID, userID, parent.SenderID, parent.ThreadID, subject, body)
	}
	if err != nil {
		return nil, err
	}
	m.ParentID = &parent.ID
	m.DossierID = parent.DossierID

	if err := s.deliver(ctx, tenantID, m); err != nil {
		return nil, err
	}
	out := ToMessageResponse(m)
	return &out, nil
}

// Inbox lists messages received by the user.
func (s *Service) Inbox(ctx context.Context, tenantID, userID uuid.UUID, f ListFilter) (shared.Paginated[MessageResponse], error) {
	return s.mailbox(ctx, tenantID, userID, messaging.MailboxInbox, f)
}

// Sent lists messages sent by the user.
func (s *Service) Sent(ctx context.Context, tenantID, userID uuid.UUID, f ListFilter) (shared.Paginated[MessageResponse], error) {
	f.UnreadOnly = false
	return s.mailbox(ctx, tenantID, userID, messaging.MailboxSent, f)
}

func (s *Service) mailbox(ctx context.Context, tenantID, userID uuid.UUID, box messaging.Mailbox, f ListFilter) (shared.Paginated[MessageResponse], error) {
	filter := messaging.Filter{
		Filter:     shared.Filter{Page: f.Page, PageSize: f.PageSize, OrderBy: "sent_at", OrderDir: "desc"}.Normalize(),
		Mailbox:    box,
		UnreadOnly: f.UnreadOnly,
		DossierID:  f.DossierID,
	}
	items, total, err := s.repo.FindMailbox(ctx, tenantID, userID, filter)
	if err != nil {
		return shared.Paginated[MessageResponse]{}, err
	}
	out := make([]MessageResponse, 0, len(items))
	for _, m := range items {
		out = append(out, ToMessageResponse(m))
	}
	return shared.NewPaginated(out, total, filter.Page, filter.PageSize), nil
}

// Thread returns the messages of a thread the user can see, oldest first.
func (s *Service) Thread(ctx context.Context, tenantID, userID uuid.UUID, threadID string) ([]MessageResponse, error) {
	msgs, err := s.repo.FindThread(ctx, tenantID, threadID)
	if err != nil {
		return nil, err
	}
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		if m.VisibleTo(userID) {
			out = append(out, ToMessageResponse(m))
		}
	}
	if len(out) == 0 {
		return nil, shared.ErrNotFound
	}
	return out, nil
}

// Get returns a message and marks it read when the recipient opens it.
func (s *Service) Get(ctx context.Context, tenantID, userID, id uuid.UUID) (*MessageResponse, error) {
	m, err := s.visible(ctx, tenantID, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.markRead(ctx, m, userID); err != nil {
		return nil, err
	}
	out := ToMessageResponse(m)
	return &out, nil
}

// MarkRead marks a received message as read.
func (s *Service) MarkRead(ctx context.Context, tenantID, userID, id uuid.UUID) error {
	m, err := s.visible(ctx, tenantID, userID, id)
	if err != nil {
		return err
	}
	return s.markRead(ctx, m, userID)
}

func (s *Service) markRead(ctx context.Context, m *messaging.Message, userID uuid.UUID) error {
	if !m.MarkRead(userID, s.now()) {
		return nil
	}
	return s.repo.Update(ctx, m)
}

// UnreadCount returns the number of unread messages in the user's inbox.
func (s *Service) UnreadCount(ctx context.Context, tenantID, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, tenantID, userID)
}

// Delete hides the message for the caller only.
func (s *Service) Delete(ctx context.Context, tenantID, userID, id uuid.UUID) error {
	m, err := s.visible(ctx, tenantID, userID, id)
	if err != nil {
		return err
	}
	if err := m.HideFor(userID, s.now()); err != nil {
		return err
	}
	return s.repo.Update(ctx, m)
}

func (s *Service) visible(ctx context.Context, tenantID, userID, id uuid.UUID) (*messaging.Message, error) {
	m, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !m.VisibleTo(userID) {
		return nil, shared.ErrNotFound
	}
	return m, nil
}
