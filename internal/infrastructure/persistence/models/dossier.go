package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/dossier"
)

// DossierModel is the persistence model for a dossier.
type DossierModel struct {
	TenantAggregateModel
	Reference   string           `gorm:"type:varchar(20);not null;index"`
	Year        int              `gorm:"not null"`
	Sequence    int              `gorm:"not null"`
	Title       string           `gorm:"type:varchar(300);not null"`
	DeedType    dossier.DeedType `gorm:"type:varchar(30);not null"`
	Status      dossier.Status   `gorm:"type:varchar(20);not null;index"`
	NotaryID    *uuid.UUID       `gorm:"type:uuid;index"`
	Description string           `gorm:"type:text"`
	ClosedAt    *time.Time
	Parties     []PartyModel `gorm:"foreignKey:DossierID"`
}

// TableName returns the table name for GORM
func (DossierModel) TableName() string {
	return "dossiers"
}

// ToDomain converts the persistence model to a domain Dossier.
func (m *DossierModel) ToDomain() *dossier.Dossier {
	d := &dossier.Dossier{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Reference:           m.Reference,
		Year:                m.Year,
		Sequence:            m.Sequence,
		Title:               m.Title,
		DeedType:            m.DeedType,
		Status:              m.Status,
		NotaryID:            m.NotaryID,
		Description:         m.Description,
		ClosedAt:            m.ClosedAt,
		Parties:             make([]dossier.Party, 0, len(m.Parties)),
	}
	for i := range m.Parties {
		d.Parties = append(d.Parties, m.Parties[i].ToDomain())
	}
	return d
}

// DossierModelFromDomain creates a persistence model including parties.
func DossierModelFromDomain(d *dossier.Dossier) *DossierModel {
	m := &DossierModel{
		Reference:   d.Reference,
		Year:        d.Year,
		Sequence:    d.Sequence,
		Title:       d.Title,
		DeedType:    d.DeedType,
		Status:      d.Status,
		NotaryID:    d.NotaryID,
		Description: d.Description,
		ClosedAt:    d.ClosedAt,
	}
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	for i := range d.Parties {
		p := PartyModelFromDomain(d.Parties[i])
		p.Position = i
		m.Parties = append(m.Parties, p)
	}
	return m
}

// PartyModel is the persistence model for a dossier party.
type PartyModel struct {
	ID          uuid.UUID         `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	DossierID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	Position    int               `gorm:"not null;default:0"`
	Kind        dossier.PartyKind `gorm:"type:varchar(20);not null"`
	FirstName   string            `gorm:"type:varchar(200)"`
	LastName    string            `gorm:"type:varchar(200)"`
	CompanyName string            `gorm:"type:varchar(300)"`
	Capacity    dossier.Capacity  `gorm:"type:varchar(30);not null"`
	NationalID  string            `gorm:"type:varchar(30)"`
	Email       string            `gorm:"type:varchar(200)"`
	Phone       string            `gorm:"type:varchar(50)"`
	Address     string            `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PartyModel) TableName() string {
	return "dossier_parties"
}

// ToDomain converts to a domain Party.
func (m *PartyModel) ToDomain() dossier.Party {
	return dossier.Party{
		ID:          m.ID,
		TenantID:    m.TenantID,
		DossierID:   m.DossierID,
		Kind:        m.Kind,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		CompanyName: m.CompanyName,
		Capacity:    m.Capacity,
		NationalID:  m.NationalID,
		Email:       m.Email,
		Phone:       m.Phone,
		Address:     m.Address,
	}
}

// PartyModelFromDomain creates a persistence model from a domain Party.
func PartyModelFromDomain(p dossier.Party) PartyModel {
	return PartyModel{
		ID:          p.ID,
		TenantID:    p.TenantID,
		DossierID:   p.DossierID,
		Kind:        p.Kind,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		CompanyName: p.CompanyName,
		Capacity:    p.Capacity,
		NationalID:  p.NationalID,
		Email:       p.Email,
		Phone:       p.Phone,
		Address:     p.Address,
	}
}

// DocumentModel is the persistence model for uploaded document metadata.
type DocumentModel struct {
	TenantAggregateModel
	DossierID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Title       string    `gorm:"type:varchar(300);not null"`
	FileName    string    `gorm:"type:varchar(300);not null"`
	ContentType string    `gorm:"type:varchar(150);not null"`
	Size        int64     `gorm:"not null"`
	Checksum    string    `gorm:"type:varchar(64)"`
	StorageKey  string    `gorm:"type:varchar(500);not null"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// ToDomain converts to a domain Document.
func (m *DocumentModel) ToDomain() *dossier.Document {
	return &dossier.Document{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		DossierID:           m.DossierID,
		Title:               m.Title,
		FileName:            m.FileName,
		ContentType:         m.ContentType,
		Size:                m.Size,
		Checksum:            m.Checksum,
		StorageKey:          m.StorageKey,
	}
}

// DocumentModelFromDomain creates a persistence model from a domain Document.
func DocumentModelFromDomain(d *dossier.Document) *DocumentModel {
	m := &DocumentModel{
		DossierID:   d.DossierID,
		Title:       d.Title,
		FileName:    d.FileName,
		ContentType: d.ContentType,
		Size:        d.Size,
		Checksum:    d.Checksum,
		StorageKey:  d.StorageKey,
	}
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	return m
}
