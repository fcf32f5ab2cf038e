package appointment

import (
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/appointment"
)

// ScheduleRequest books a new appointment.
type ScheduleRequest struct {
	Title     string
	Kind      string
	Location  string
	Notes     string
	StartAt   time.Time
	EndAt     time.Time
	NotaryID  uuid.UUID
	DossierID *uuid.UUID
	Attendees []string
}

// UpdateRequest replaces the details that do not affect the slot.
type UpdateRequest struct {
	Location  string
	Notes     string
	DossierID *uuid.UUID
	Attendees []string
}

// RescheduleRequest moves an appointment.
type RescheduleRequest struct {
	StartAt time.Time
	EndAt   time.Time
}

// ListFilter narrows agenda listings.
type ListFilter struct {
	From      *time.Time
	To        *time.Time
	NotaryID  *uuid.UUID
	DossierID *uuid.UUID
	Status    string
	Page      int
	PageSize  int
}

// AppointmentResponse is an appointment as returned by the API.
type AppointmentResponse struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Kind         string     `json:"kind"`
	Location     string     `json:"location,omitempty"`
	StartAt      time.Time  `json:"start_at"`
	EndAt        time.Time  `json:"end_at"`
	NotaryID     uuid.UUID  `json:"notary_id"`
	DossierID    *uuid.UUID `json:"dossier_id,omitempty"`
	Attendees    []string   `json:"attendees"`
	Status       string     `json:"status"`
	Notes        string     `json:"notes,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
	Version      int        `json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ToAppointmentResponse converts a domain appointment.
func ToAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	attendees := a.Attendees
	if attendees == nil {
		attendees = []string{}
	}
	return AppointmentResponse{
		ID:           a.ID,
		Title:        a.Title,
		Kind:         string(a.Kind),
		Location:     a.Location,
		StartAt:      a.StartAt,
		EndAt:        a.EndAt,
		NotaryID:     a.NotaryID,
		DossierID:    a.DossierID,
		Attendees:    attendees,
		Status:       string(a.Status),
		Notes:        a.Notes,
		CancelReason: a.CancelReason,
		Version:      a.Version,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
