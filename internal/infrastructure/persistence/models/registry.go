package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/registry"
	"github.com/shopspring/decimal"
)

// RepertoriumEntryModel is one numbered deed. Rows are voided, never deleted.
type RepertoriumEntryModel struct {
	TenantAggregateModel
	Year             int        `gorm:"not null;index"`
	Number           int        `gorm:"not null"`
	DeedDate         time.Time  `gorm:"not null"`
	DeedType         string     `gorm:"type:varchar(50);not null"`
	Title            string     `gorm:"type:varchar(500);not null"`
	NotaryID         uuid.UUID  `gorm:"type:uuid;not null"`
	DossierID        *uuid.UUID `gorm:"type:uuid;index"`
	RegistrationDate *time.Time
	RegistrationRef  string               `gorm:"type:varchar(100)"`
	Fee              decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	Remarks          string               `gorm:"type:text"`
	Status           registry.EntryStatus `gorm:"type:varchar(20);not null"`
	VoidReason       string               `gorm:"type:varchar(500)"`
	Parties          []KlapperEntryModel  `gorm:"foreignKey:EntryID"`
}

// TableName returns the table name for GORM
func (RepertoriumEntryModel) TableName() string {
	return "repertorium_entries"
}

// ToDomain converts to a domain RepertoriumEntry.
func (m *RepertoriumEntryModel) ToDomain() *registry.RepertoriumEntry {
	e := &registry.RepertoriumEntry{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Year:                m.Year,
		Number:              m.Number,
		DeedDate:            m.DeedDate,
		DeedType:            m.DeedType,
		Title:               m.Title,
		NotaryID:            m.NotaryID,
		DossierID:           m.DossierID,
		RegistrationDate:    m.RegistrationDate,
		RegistrationRef:     m.RegistrationRef,
		Fee:                 m.Fee,
		Remarks:             m.Remarks,
		Status:              m.Status,
		VoidReason:          m.VoidReason,
		Parties:             make([]registry.KlapperEntry, 0, len(m.Parties)),
	}
	for i := range m.Parties {
		e.Parties = append(e.Parties, m.Parties[i].ToDomain())
	}
	return e
}

// RepertoriumEntryModelFromDomain creates a persistence model. Klapper rows
// are denormalized with the entry's number, deed data and void flag.
func RepertoriumEntryModelFromDomain(e *registry.RepertoriumEntry) *RepertoriumEntryModel {
	m := &RepertoriumEntryModel{
		Year:             e.Year,
		Number:           e.Number,
		DeedDate:         e.DeedDate,
		DeedType:         e.DeedType,
		Title:            e.Title,
		NotaryID:         e.NotaryID,
		DossierID:        e.DossierID,
		RegistrationDate: e.RegistrationDate,
		RegistrationRef:  e.RegistrationRef,
		Fee:              e.Fee,
		Remarks:          e.Remarks,
		Status:           e.Status,
		VoidReason:       e.VoidReason,
	}
	m.FromDomainTenantAggregateRoot(e.TenantAggregateRoot)
	for _, p := range e.Parties {
		k := KlapperEntryModelFromDomain(p)
		k.TenantID = e.TenantID
		k.EntryID = e.ID
		k.Year = e.Year
		k.EntryNumber = e.Number
		k.DeedDate = e.DeedDate
		k.DeedTitle = e.Title
		k.Voided = e.Status == registry.EntryVoided
		m.Parties = append(m.Parties, k)
	}
	return m
}

// KlapperEntryModel is one party row of the alphabetical index.
type KlapperEntryModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index"`
	EntryID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Year        int       `gorm:"not null;index"`
	LastName    string    `gorm:"type:varchar(200);not null"`
	FirstName   string    `gorm:"type:varchar(200)"`
	IsCompany   bool      `gorm:"not null;default:false"`
	Capacity    string    `gorm:"type:varchar(50)"`
	BirthDate   *time.Time
	EntryNumber int       `gorm:"not null"`
	DeedDate    time.Time `gorm:"not null"`
	DeedTitle   string    `gorm:"type:varchar(500)"`
	SortKey     string    `gorm:"type:varchar(410);not null;index"`
	IndexLetter string    `gorm:"type:varchar(4);not null;index"`
	Voided      bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (KlapperEntryModel) TableName() string {
	return "klapper_entries"
}

// ToDomain converts to a domain KlapperEntry.
func (m *KlapperEntryModel) ToDomain() registry.KlapperEntry {
	return registry.KlapperEntry{
		ID:          m.ID,
		TenantID:    m.TenantID,
		EntryID:     m.EntryID,
		Year:        m.Year,
		LastName:    m.LastName,
		FirstName:   m.FirstName,
		IsCompany:   m.IsCompany,
		Capacity:    m.Capacity,
		BirthDate:   m.BirthDate,
		EntryNumber: m.EntryNumber,
		DeedDate:    m.DeedDate,
		DeedTitle:   m.DeedTitle,
	}
}

// KlapperEntryModelFromDomain maps a party and derives its search columns.
func KlapperEntryModelFromDomain(k registry.KlapperEntry) KlapperEntryModel {
	return KlapperEntryModel{
		ID:          k.ID,
		TenantID:    k.TenantID,
		EntryID:     k.EntryID,
		Year:        k.Year,
		LastName:    k.LastName,
		FirstName:   k.FirstName,
		IsCompany:   k.IsCompany,
		Capacity:    k.Capacity,
		BirthDate:   k.BirthDate,
		EntryNumber: k.EntryNumber,
		DeedDate:    k.DeedDate,
		DeedTitle:   k.DeedTitle,
		SortKey:     registry.FoldName(k.LastName + " " + k.FirstName),
		IndexLetter: registry.IndexLetter(k.LastName),
	}
}
