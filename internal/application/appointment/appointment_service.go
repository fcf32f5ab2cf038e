// Package appointment implements agenda use cases for the notaries of an office.
package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/appointment"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/notaris/backend/internal/infrastructure/mail"
	"github.com/notaris/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrInvalidNotary is returned when the booked user cannot hold appointments.
var ErrInvalidNotary = shared.NewDomainError("INVALID_NOTARY", "Appointments can only be booked for a notary or candidate of this office")

type notice int

const (
	noticeScheduled notice = iota
	noticeRescheduled
	noticeCancelled
)

// Service handles agenda operations.
type Service struct {
	repo   appointment.Repository
	users  identity.UserRepository
	mailer mail.Sender
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a new appointment service. mailer may be nil.
func NewService(repo appointment.Repository, users identity.UserRepository, mailer mail.Sender, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, users: users, mailer: mailer, now: time.Now, logger: logger}
}

// Schedule books an appointment after checking the notary's agenda.
func (s *Service) Schedule(ctx context.Context, tenantID, userID uuid.UUID, req ScheduleRequest) (resp *AppointmentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "appointment", "schedule", telemetry.TenantAttr(tenantID))
	defer func() { telemetry.End(span, err) }()

	a, err := appointment.NewAppointment(tenantID, userID, req.NotaryID, req.Title,
		appointment.Kind(req.Kind), req.StartAt, req.EndAt, s.now())
	if err != nil {
		return nil, err
	}
	if err := a.SetAttendees(req.Attendees); err != nil {
		return nil, err
	}
	a.Location = strings.TrimSpace(req.Location)
	a.Notes = req.Notes
	a.DossierID = req.DossierID

	if err := s.checkNotary(ctx, tenantID, req.NotaryID); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("Appointment scheduled",
		zap.String("tenant_id", tenantID.String()),
		zap.String("appointment_id", a.ID.String()),
		zap.Time("start_at", a.StartAt))
	s.notify(ctx, a, noticeScheduled)

	out := ToAppointmentResponse(a)
	return &out, nil
}

func (s *Service) checkNotary(ctx context.Context, tenantID, notaryID uuid.UUID) error {
	if s.users == nil {
		return nil
	}
	u, err := s.users.FindByID(ctx, tenantID, notaryID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrInvalidNotary
		}
		return err
	}
	if u.Role != identity.RoleNotary && u.Role != identity.RoleCandidate {
		return ErrInvalidNotary
	}
	return nil
}

// Get returns one appointment.
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*AppointmentResponse, error) {
	a, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	out := ToAppointmentResponse(a)
	return &out, nil
}

// List returns a page of appointments ordered by start time.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, f ListFilter) (shared.Paginated[AppointmentResponse], error) {
	filter := appointment.Filter{
		Filter:    shared.Filter{Page: f.Page, PageSize: f.PageSize, OrderBy: "start_at", OrderDir: "asc"}.Normalize(),
		From:      f.From,
		To:        f.To,
		NotaryID:  f.NotaryID,
		DossierID: f.DossierID,
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return shared.Paginated[AppointmentResponse]{}, shared.NewDomainError("INVALID_TIME_RANGE", "'to' must not be before 'from'")
	}
	if f.Status != "" {
		st := appointment.Status(f.Status)
		switch st {
		case appointment.StatusScheduled, appointment.StatusConfirmed, appointment.StatusCancelled, appointment.StatusCompleted:
		default:
			return shared.Paginated[AppointmentResponse]{}, shared.NewDomainError("INVALID_STATUS", "Unknown appointment status")
		}
		filter.Status = &st
	}

	items, total, err := s.repo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[AppointmentResponse]{}, err
	}
	out := make([]AppointmentResponse, 0, len(items))
	for _, a := range items {
		out = append(out, ToAppointmentResponse(a))
	}
	return shared.NewPaginated(out, total, filter.Page, filter.PageSize), nil
}

// Update changes location, notes, dossier link and attendees.
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateRequest) (*AppointmentResponse, error) {
	return s.mutate(ctx, tenantID, id, func(a *appointment.Appointment) error {
		if !a.IsActive() {
			return shared.NewDomainError("INVALID_STATE", "Appointment is already "+string(a.Status))
		}
		if err := a.SetAttendees(req.Attendees); err != nil {
			return err
		}
		a.SetDetails(req.Location, req.Notes, req.DossierID)
		return nil
	})
}

// Reschedule moves the appointment. The store refuses a slot taken by another booking.
func (s *Service) Reschedule(ctx context.Context, tenantID, id uuid.UUID, req RescheduleRequest) (resp *AppointmentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "appointment", "reschedule",
		telemetry.TenantAttr(tenantID), telemetry.IDAttr("appointment.id", id))
	defer func() { telemetry.End(span, err) }()

	a, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := a.Reschedule(req.StartAt, req.EndAt, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.notify(ctx, a, noticeRescheduled)
	out := ToAppointmentResponse(a)
	return &out, nil
}

// Confirm marks a scheduled appointment as confirmed.
func (s *Service) Confirm(ctx context.Context, tenantID, id uuid.UUID) (*AppointmentResponse, error) {
	return s.mutate(ctx, tenantID, id, func(a *appointment.Appointment) error {
		return a.Confirm()
	})
}

// Cancel frees the slot and informs the attendees.
func (s *Service) Cancel(ctx context.Context, tenantID, id uuid.UUID, reason string) (*AppointmentResponse, error) {
	var cancelled *appointment.Appointment
	resp, err := s.mutate(ctx, tenantID, id, func(a *appointment.Appointment) error {
		cancelled = a
		return a.Cancel(reason)
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, cancelled, noticeCancelled)
	return resp, nil
}

// Complete marks an appointment as held.
func (s *Service) Complete(ctx context.Context, tenantID, id uuid.UUID) (*AppointmentResponse, error) {
	return s.mutate(ctx, tenantID, id, func(a *appointment.Appointment) error {
		return a.Complete(s.now())
	})
}

// Delete soft-deletes an appointment.
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, tenantID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, tenantID, id)
}

func (s *Service) mutate(ctx context.Context, tenantID, id uuid.UUID, fn func(*appointment.Appointment) error) (*AppointmentResponse, error) {
	a, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(a); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	out := ToAppointmentResponse(a)
	return &out, nil
}

// notify mails the attendees. Delivery problems are logged only.
func (s *Service) notify(ctx context.Context, a *appointment.Appointment, kind notice) {
	if s.mailer == nil || len(a.Attendees) == 0 {
		return
	}
	msg := composeNotice(a, kind)
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Warn("Failed to send appointment notice",
			zap.String("appointment_id", a.ID.String()),
			zap.Strings("to", a.Attendees),
			zap.Error(err))
	}
}

const noticeTimeLayout = "Monday 2 January 2006 15:04"

func composeNotice(a *appointment.Appointment, kind notice) *mail.Message {
	var subject, intro string
	switch kind {
	case noticeRescheduled:
		subject = "Appointment moved: " + a.Title
		intro = "Your appointment has been moved to a new time."
	case noticeCancelled:
		subject = "Appointment cancelled: " + a.Title
		intro = "Your appointment has been cancelled."
	default:
		subject = "Appointment: " + a.Title
		intro = "An appointment has been scheduled for you."
	}

	var b strings.Builder
	b.WriteString(intro)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "What:  %s\n", a.Title)
	fmt.Fprintf(&b, "When:  %s - %s\n", a.StartAt.Format(noticeTimeLayout), a.EndAt.Format("15:04"))
	if a.Location != "" {
		fmt.Fprintf(&b, "Where: %s\n", a.Location)
	}
	if kind == noticeCancelled && a.CancelReason != "" {
		fmt.Fprintf(&b, "\nReason: %s\n", a.CancelReason)
	}

	return &mail.Message{
		To:      append([]string(nil), a.Attendees...),
		Subject: subject,
		Text:    b.String(),
	}
}
