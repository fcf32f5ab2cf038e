// Package appointment models office agenda entries such as signings and consultations.
package appointment

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/shared"
)

// Kind of appointment.
type Kind string

const (
	KindSigning      Kind = "signing"
	KindConsultation Kind = "consultation"
	KindPhone        Kind = "phone"
	KindOther        Kind = "other"
)

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindSigning, KindConsultation, KindPhone, KindOther:
		return true
	}
	return false
}

// Status of an appointment.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// MaxDuration bounds a single appointment.
const MaxDuration = 12 * time.Hour

// ErrOverlap is returned when a notary is already booked.
var ErrOverlap = shared.NewDomainError("APPOINTMENT_OVERLAP", "The notary already has an appointment in this time slot")

// Appointment is an agenda entry for a notary.
type Appointment struct {
	shared.TenantAggregateRoot
	DossierID    *uuid.UUID
	Title        string
	Kind         Kind
	Location     string
	StartAt      time.Time
	EndAt        time.Time
	NotaryID     uuid.UUID
	Attendees    []string
	Status       Status
	Notes        string
	CancelReason string
}

// Slot is a time window.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open windows intersect.
func (s Slot) Overlaps(o Slot) bool {
	return s.Start.Before(o.End) && o.Start.Before(s.End)
}

// NewAppointment validates and creates a scheduled appointment.
func NewAppointment(tenantID, createdBy, notaryID uuid.UUID, title string, kind Kind, start, end, now time.Time) (*Appointment, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > 200 {
		return nil, shared.NewDomainError("INVALID_TITLE", "Title must be between 1 and 200 characters")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", "Unknown appointment kind")
	}
	if notaryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_NOTARY", "A notary is required")
	}
	if err := validateSlot(start, end, now); err != nil {
		return nil, err
	}

	return &Appointment{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, createdBy),
		Title:               title,
		Kind:                kind,
		StartAt:             start,
		EndAt:               end,
		NotaryID:            notaryID,
		Attendees:           []string{},
		Status:              StatusScheduled,
	}, nil
}

func validateSlot(start, end, now time.Time) error {
	if !end.After(start) {
		return shared.NewDomainError("INVALID_TIME_RANGE", "End time must be after start time")
	}
	if end.Sub(start) > MaxDuration {
		return shared.NewDomainError("INVALID_TIME_RANGE", "An appointment cannot last longer than 12 hours")
	}
	if start.Before(now) {
		return shared.NewDomainError("INVALID_TIME_RANGE", "Appointments cannot start in the past")
	}
	return nil
}

// Slot returns the appointment's time window.
func (a *Appointment) Slot() Slot {
	return Slot{Start: a.StartAt, End: a.EndAt}
}

// IsActive reports whether the appointment still occupies the agenda.
func (a *Appointment) IsActive() bool {
	return a.Status == StatusScheduled || a.Status == StatusConfirmed
}

// SetAttendees normalizes and validates attendee e-mail addresses.
func (a *Appointment) SetAttendees(emails []string) error {
	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || seen[e] {
			continue
		}
		if !identity.ValidEmail(e) {
			return shared.NewDomainError("INVALID_ATTENDEE", "Invalid attendee e-mail: "+e)
		}
		seen[e] = true
		out = append(out, e)
	}
	if len(out) > 50 {
		return shared.NewDomainError("INVALID_ATTENDEE", "At most 50 attendees are allowed")
	}
	a.Attendees = out
	return nil
}

// SetDetails updates free-form details.
func (a *Appointment) SetDetails(location, notes string, dossierID *uuid.UUID) {
	a.Location = strings.TrimSpace(location)
	a.Notes = notes
	a.DossierID = dossierID
	a.IncrementVersion()
}

// Reschedule moves the appointment to a new window.
func (a *Appointment) Reschedule(start, end, now time.Time) error {
	if !a.IsActive() {
		return shared.NewDomainError("INVALID_STATE", "Only scheduled or confirmed appointments can be rescheduled")
	}
	if err := validateSlot(start, end, now); err != nil {
		return err
	}
	a.StartAt = start
	a.EndAt = end
	a.Status = StatusScheduled
	a.IncrementVersion()
	return nil
}

// Confirm marks the appointment as confirmed by the attendees.
func (a *Appointment) Confirm() error {
	if a.Status != StatusScheduled {
		return shared.NewDomainError("INVALID_STATE", "Only scheduled appointments can be confirmed")
	}
	a.Status = StatusConfirmed
	a.IncrementVersion()
	return nil
}

// Cancel frees the slot.
func (a *Appointment) Cancel(reason string) error {
	if !a.IsActive() {
		return shared.NewDomainError("INVALID_STATE", "Appointment is already "+string(a.Status))
	}
	a.Status = StatusCancelled
	a.CancelReason = strings.TrimSpace(reason)
	a.IncrementVersion()
	return nil
}

// Complete marks a past appointment as held.
func (a *Appointment) Complete(now time.Time) error {
	if !a.IsActive() {
		return shared.NewDomainError("INVALID_STATE", "Appointment is already "+string(a.Status))
	}
	if now.Before(a.StartAt) {
		return shared.NewDomainError("INVALID_STATE", "An appointment cannot be completed before it starts")
	}
	a.Status = StatusCompleted
	a.IncrementVersion()
	return nil
}
