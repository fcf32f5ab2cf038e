package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
)

// ClientInput is the billed party.
type ClientInput struct {
	Name      string
	Address   string
	Email     string
	VATNumber string
}

func (c ClientInput) toDomain() invoicing.Client {
	return invoicing.Client{Name: c.Name, Address: c.Address, Email: c.Email, VATNumber: c.VATNumber}
}

// LineInput is one invoice row. A nil VATRate takes the office default.
type LineInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	VATRate     *decimal.Decimal
}

// DraftRequest creates or replaces a draft.
type DraftRequest struct {
	Client    ClientInput
	DossierID *uuid.UUID
	Currency  string
	Notes     string
	Lines     []LineInput
}

// ListFilter narrows invoice listings.
type ListFilter struct {
	Status    string
	Client    string
	DossierID *uuid.UUID
	From      *time.Time
	To        *time.Time
	Search    string
	Page      int
	PageSize  int
}

// SendRequest overrides the recipient of an invoice mail.
type SendRequest struct {
	To      string
	Message string
}

// LineResponse is an invoice line as returned by the API.
type LineResponse struct {
	ID          uuid.UUID       `json:"id"`
	Position    int             `json:"position"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	VATRate     decimal.Decimal `json:"vat_rate"`
	Net         decimal.Decimal `json:"net"`
}

// VATGroupResponse is the VAT summary for one rate.
type VATGroupResponse struct {
	Rate decimal.Decimal `json:"rate"`
	Base decimal.Decimal `json:"base"`
	VAT  decimal.Decimal `json:"vat"`
}

// InvoiceResponse is an invoice as returned by the API.
type InvoiceResponse struct {
	ID           uuid.UUID          `json:"id"`
	Number       string             `json:"number,omitempty"`
	Status       string             `json:"status"`
	DossierID    *uuid.UUID         `json:"dossier_id,omitempty"`
	ClientName   string             `json:"client_name"`
	ClientAddr   string             `json:"client_address,omitempty"`
	ClientEmail  string             `json:"client_email,omitempty"`
	ClientVAT    string             `json:"client_vat_number,omitempty"`
	Currency     string             `json:"currency"`
	IssueDate    *time.Time         `json:"issue_date,omitempty"`
	DueDate      *time.Time         `json:"due_date,omitempty"`
	PaidAt       *time.Time         `json:"paid_at,omitempty"`
	Overdue      bool               `json:"overdue"`
	Notes        string             `json:"notes,omitempty"`
	CancelReason string             `json:"cancel_reason,omitempty"`
	Lines        []LineResponse     `json:"lines"`
	VATSummary   []VATGroupResponse `json:"vat_summary"`
	NetTotal     decimal.Decimal    `json:"net_total"`
	VATTotal     decimal.Decimal    `json:"vat_total"`
	GrossTotal   decimal.Decimal    `json:"gross_total"`
	Version      int                `json:"version"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// ToInvoiceResponse converts a domain invoice.
func ToInvoiceResponse(inv *invoicing.Invoice, now time.Time) InvoiceResponse {
	lines := make([]LineResponse, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		lines = append(lines, LineResponse{
			ID:          l.ID,
			Position:    l.Position,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			VATRate:     l.VATRate,
			Net:         l.Net(),
		})
	}
	totals := inv.Totals()
	groups := make([]VATGroupResponse, 0, len(totals.Rates))
	for _, g := range totals.Rates {
		groups = append(groups, VATGroupResponse{Rate: g.Rate, Base: g.Base, VAT: g.VAT})
	}
	return InvoiceResponse{
		ID:           inv.ID,
		Number:       inv.Number,
		Status:       string(inv.Status),
		DossierID:    inv.DossierID,
		ClientName:   inv.Client.Name,
		ClientAddr:   inv.Client.Address,
		ClientEmail:  inv.Client.Email,
		ClientVAT:    inv.Client.VATNumber,
		Currency:     inv.Currency,
		IssueDate:    inv.IssueDate,
		DueDate:      inv.DueDate,
		PaidAt:       inv.PaidAt,
		Overdue:      inv.IsOverdue(now),
		Notes:        inv.Notes,
		CancelReason: inv.CancelReason,
		Lines:        lines,
		VATSummary:   groups,
		NetTotal:     totals.Net,
		VATTotal:     totals.VAT,
		GrossTotal:   totals.Gross,
		Version:      inv.Version,
		CreatedAt:    inv.CreatedAt,
		UpdatedAt:    inv.UpdatedAt,
	}
}

// PDF is a rendered invoice.
type PDF struct {
	FileName string
	Data     []byte
}
