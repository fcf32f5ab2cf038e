package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for an invoice header.
type InvoiceModel struct {
	TenantAggregateModel
	Number          string     `gorm:"type:varchar(40);index"`
	Year            int        `gorm:"not null;default:0"`
	Sequence        int        `gorm:"not null;default:0"`
	DossierID       *uuid.UUID `gorm:"type:uuid;index"`
	ClientName      string     `gorm:"type:varchar(300);not null"`
	ClientAddress   string     `gorm:"type:text"`
	ClientEmail     string     `gorm:"type:varchar(200)"`
	ClientVATNumber string     `gorm:"type:varchar(30)"`
	Currency        string     `gorm:"type:varchar(3);not null;default:'EUR'"`
	IssueDate       *time.Time `gorm:"index"`
	DueDate         *time.Time
	Status          invoicing.Status `gorm:"type:varchar(20);not null;index"`
	Notes           string           `gorm:"type:text"`
	PaidAt          *time.Time
	CancelReason    string             `gorm:"type:varchar(500)"`
	NetTotal        decimal.Decimal    `gorm:"type:decimal(18,2);not null;default:0"`
	VATTotal        decimal.Decimal    `gorm:"type:decimal(18,2);not null;default:0"`
	GrossTotal      decimal.Decimal    `gorm:"type:decimal(18,2);not null;default:0"`
	Lines           []InvoiceLineModel `gorm:"foreignKey:InvoiceID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts to a domain Invoice including lines.
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	inv := &invoicing.Invoice{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Number:              m.Number,
		Year:                m.Year,
		Sequence:            m.Sequence,
		DossierID:           m.DossierID,
		Client: invoicing.Client{
			Name:      m.ClientName,
			Address:   m.ClientAddress,
			Email:     m.ClientEmail,
			VATNumber: m.ClientVATNumber,
		},
		Currency:     m.Currency,
		IssueDate:    m.IssueDate,
		DueDate:      m.DueDate,
		Status:       m.Status,
		Notes:        m.Notes,
		PaidAt:       m.PaidAt,
		CancelReason: m.CancelReason,
		NetTotal:     m.NetTotal,
		VATTotal:     m.VATTotal,
		GrossTotal:   m.GrossTotal,
		Lines:        make([]invoicing.Line, 0, len(m.Lines)),
	}
	for _, l := range m.Lines {
		inv.Lines = append(inv.Lines, invoicing.Line{
			ID:          l.ID,
			Position:    l.Position,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			VATRate:     l.VATRate,
		})
	}
	return inv
}

// InvoiceModelFromDomain creates a persistence model including lines.
func InvoiceModelFromDomain(inv *invoicing.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		Number:          inv.Number,
		Year:            inv.Year,
		Sequence:        inv.Sequence,
		DossierID:       inv.DossierID,
		ClientName:      inv.Client.Name,
		ClientAddress:   inv.Client.Address,
		ClientEmail:     inv.Client.Email,
		ClientVATNumber: inv.Client.VATNumber,
		Currency:        inv.Currency,
		IssueDate:       inv.IssueDate,
		DueDate:         inv.DueDate,
		Status:          inv.Status,
		Notes:           inv.Notes,
		PaidAt:          inv.PaidAt,
		CancelReason:    inv.CancelReason,
		NetTotal:        inv.NetTotal,
		VATTotal:        inv.VATTotal,
		GrossTotal:      inv.GrossTotal,
	}
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	for _, l := range inv.Lines {
		m.Lines = append(m.Lines, InvoiceLineModel{
			ID:          l.ID,
			TenantID:    inv.TenantID,
			InvoiceID:   inv.ID,
			Position:    l.Position,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			VATRate:     l.VATRate,
		})
	}
	return m
}

// InvoiceLineModel is one invoice line.
type InvoiceLineModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position    int             `gorm:"not null"`
	Description string          `gorm:"type:varchar(500);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	VATRate     decimal.Decimal `gorm:"type:decimal(5,2);not null"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "invoice_lines"
}
