package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/appointment"
)

// AppointmentModel is the persistence model for an agenda item.
type AppointmentModel struct {
	TenantAggregateModel
	DossierID    *uuid.UUID         `gorm:"type:uuid;index"`
	Title        string             `gorm:"type:varchar(300);not null"`
	Kind         appointment.Kind   `gorm:"type:varchar(20);not null"`
	Location     string             `gorm:"type:varchar(300)"`
	StartAt      time.Time          `gorm:"not null;index"`
	EndAt        time.Time          `gorm:"not null"`
	NotaryID     uuid.UUID          `gorm:"type:uuid;not null;index"`
	Attendees    []string           `gorm:"serializer:json;type:text"`
	Status       appointment.Status `gorm:"type:varchar(20);not null"`
	Notes        string             `gorm:"type:text"`
	CancelReason string             `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (AppointmentModel) TableName() string {
	return "appointments"
}

// ToDomain converts to a domain Appointment.
func (m *AppointmentModel) ToDomain() *appointment.Appointment {
	attendees := m.Attendees
	if attendees == nil {
		attendees = []string{}
	}
	return &appointment.Appointment{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		DossierID:           m.DossierID,
		Title:               m.Title,
		Kind:                m.Kind,
		Location:            m.Location,
		StartAt:             m.StartAt,
		EndAt:               m.EndAt,
		NotaryID:            m.NotaryID,
		Attendees:           attendees,
		Status:              m.Status,
		Notes:               m.Notes,
		CancelReason:        m.CancelReason,
	}
}

// AppointmentModelFromDomain creates a persistence model from a domain Appointment.
func AppointmentModelFromDomain(a *appointment.Appointment) *AppointmentModel {
	m := &AppointmentModel{
		DossierID:    a.DossierID,
		Title:        a.Title,
		Kind:         a.Kind,
		Location:     a.Location,
		StartAt:      a.StartAt,
		EndAt:        a.EndAt,
		NotaryID:     a.NotaryID,
		Attendees:    a.Attendees,
		Status:       a.Status,
		Notes:        a.Notes,
		CancelReason: a.CancelReason,
	}
	m.FromDomainTenantAggregateRoot(a.TenantAggregateRoot)
	return m
}
