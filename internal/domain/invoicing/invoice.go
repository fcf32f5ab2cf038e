// Package invoicing models office invoices with VAT lines and gapless numbering.
package invoicing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/notaris/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Status of an invoice.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusIssued    Status = "issued"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// MaxLines bounds the number of lines on one invoice.
const MaxLines = 200

var hundred = decimal.NewFromInt(100)

// ErrInvalidCurrency is returned for a currency that is not an ISO 4217 code.
var ErrInvalidCurrency = shared.NewDomainError("INVALID_CURRENCY", "Currency must be a three letter ISO code")

// Client is the billed party.
type Client struct {
	Name      string
	Address   string
	Email     string
	VATNumber string
}

// Line is a single invoice row.
type Line struct {
	ID          uuid.UUID
	Position    int
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	VATRate     decimal.Decimal
}

// Net returns quantity × unit price rounded to cents.
func (l Line) Net() decimal.Decimal {
	return valueobject.RoundCents(l.Quantity.Mul(l.UnitPrice))
}

// Validate checks a line's values.
func (l Line) Validate() error {
	if strings.TrimSpace(l.Description) == "" {
		return shared.NewDomainError("INVALID_LINE", "Line description cannot be empty")
	}
	if len(l.Description) > 500 {
		return shared.NewDomainError("INVALID_LINE", "Line description cannot exceed 500 characters")
	}
	if !l.Quantity.IsPositive() {
		return shared.NewDomainError("INVALID_LINE", "Quantity must be positive")
	}
	if l.UnitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_LINE", "Unit price cannot be negative")
	}
	if l.VATRate.IsNegative() || l.VATRate.GreaterThan(hundred) {
		return shared.NewDomainError("INVALID_LINE", "VAT rate must be between 0 and 100")
	}
	return nil
}

// VATGroup sums the lines sharing a VAT rate.
type VATGroup struct {
	Rate decimal.Decimal
	Base decimal.Decimal
	VAT  decimal.Decimal
}

// Totals summarises an invoice.
type Totals struct {
	Net   decimal.Decimal
	VAT   decimal.Decimal
	Gross decimal.Decimal
	Rates []VATGroup
}

// Invoice is a bill sent to a client.
type Invoice struct {
	shared.TenantAggregateRoot
	Number       string
	Year         int
	Sequence     int
	DossierID    *uuid.UUID
	Client       Client
	Currency     string
	IssueDate    *time.Time
	DueDate      *time.Time
	Status       Status
	Notes        string
	Lines        []Line
	PaidAt       *time.Time
	CancelReason string
	NetTotal     decimal.Decimal
	VATTotal     decimal.Decimal
	GrossTotal   decimal.Decimal
}

// NewDraft creates an empty draft invoice.
func NewDraft(tenantID, createdBy uuid.UUID, client Client, currency string) (*Invoice, error) {
	if err := validateClient(&client); err != nil {
		return nil, err
	}
	code, err := valueobject.ParseCurrency(currency)
	if err != nil {
		return nil, ErrInvalidCurrency
	}
	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, createdBy),
		Client:              client,
		Currency:            string(code),
		Status:              StatusDraft,
		Lines:               []Line{},
	}
	inv.recalculate()
	return inv, nil
}

func validateClient(c *Client) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if c.Name == "" || len(c.Name) > 200 {
		return shared.NewDomainError("INVALID_CLIENT", "Client name must be between 1 and 200 characters")
	}
	if c.Email != "" && !identity.ValidEmail(c.Email) {
		return shared.NewDomainError("INVALID_CLIENT", "Invalid client e-mail")
	}
	return nil
}

// IsDraft reports whether the invoice may still be edited.
func (i *Invoice) IsDraft() bool {
	return i.Status == StatusDraft
}

// UpdateDraft replaces client, notes and lines of a draft.
func (i *Invoice) UpdateDraft(client Client, dossierID *uuid.UUID, notes string, lines []Line) error {
	if !i.IsDraft() {
		return shared.NewDomainError("INVOICE_NOT_DRAFT", "Only draft invoices can be edited")
	}
	if err := validateClient(&client); err != nil {
		return err
	}
	if len(lines) > MaxLines {
		return shared.NewDomainError("INVALID_LINE", fmt.Sprintf("An invoice holds at most %d lines", MaxLines))
	}
	for idx := range lines {
		if err := lines[idx].Validate(); err != nil {
			return err
		}
		if lines[idx].ID == uuid.Nil {
			lines[idx].ID = uuid.New()
		}
		lines[idx].Position = idx + 1
		lines[idx].Description = strings.TrimSpace(lines[idx].Description)
	}

	i.Client = client
	i.DossierID = dossierID
	i.Notes = notes
	i.Lines = lines
	i.recalculate()
	i.IncrementVersion()
	return nil
}

// Totals computes net, VAT per rate and gross. VAT is rounded per rate group.
func (i *Invoice) Totals() Totals {
	groups := make(map[string]*VATGroup)
	net := decimal.Zero
	for _, l := range i.Lines {
		n := l.Net()
		net = net.Add(n)
		key := l.VATRate.String()
		g, ok := groups[key]
		if !ok {
			g = &VATGroup{Rate: l.VATRate, Base: decimal.Zero}
			groups[key] = g
		}
		g.Base = g.Base.Add(n)
	}

	rates := make([]VATGroup, 0, len(groups))
	vat := decimal.Zero
	for _, g := range groups {
		g.VAT = valueobject.Percentage(g.Base, g.Rate)
		vat = vat.Add(g.VAT)
		rates = append(rates, *g)
	}
	sort.Slice(rates, func(a, b int) bool { return rates[a].Rate.LessThan(rates[b].Rate) })

	return Totals{Net: net, VAT: vat, Gross: net.Add(vat), Rates: rates}
}

func (i *Invoice) recalculate() {
	t := i.Totals()
	i.NetTotal = t.Net
	i.VATTotal = t.VAT
	i.GrossTotal = t.Gross
}

// SetCurrency changes the currency of a draft. Blank keeps the current one.
func (i *Invoice) SetCurrency(currency string) error {
	if !i.IsDraft() {
		return shared.NewDomainError("INVOICE_NOT_DRAFT", "Only draft invoices can be edited")
	}
	if strings.TrimSpace(currency) == "" {
		return nil
	}
	code, err := valueobject.ParseCurrency(currency)
	if err != nil {
		return ErrInvalidCurrency
	}
	if i.Currency != string(code) {
		i.Currency = string(code)
		i.IncrementVersion()
	}
	return nil
}

// FormatNumber renders an invoice number such as F2026-0042.
func FormatNumber(prefix string, year, seq int) string {
	return fmt.Sprintf("%s%04d-%04d", prefix, year, seq)
}

// Issue finalises the draft with its number and dates.
func (i *Invoice) Issue(prefix string, year, seq int, issued, due time.Time) error {
	if !i.IsDraft() {
		return shared.NewDomainError("INVOICE_NOT_DRAFT", "Only draft invoices can be issued")
	}
	if len(i.Lines) == 0 {
		return shared.NewDomainError("INVOICE_EMPTY", "An invoice needs at least one line")
	}
	if due.Before(issued) {
		return shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot precede the issue date")
	}
	i.Year = year
	i.Sequence = seq
	i.Number = FormatNumber(prefix, year, seq)
	i.IssueDate = &issued
	i.DueDate = &due
	i.Status = StatusIssued
	i.recalculate()
	i.IncrementVersion()
	return nil
}

// MarkPaid records payment of an issued invoice.
func (i *Invoice) MarkPaid(at time.Time) error {
	if i.Status != StatusIssued {
		return shared.NewDomainError("INVALID_STATE", "Only issued invoices can be marked as paid")
	}
	if i.IssueDate != nil && at.Before(i.IssueDate.Truncate(24*time.Hour)) {
		return shared.NewDomainError("INVALID_PAYMENT_DATE", "Payment date cannot precede the issue date")
	}
	i.Status = StatusPaid
	i.PaidAt = &at
	i.IncrementVersion()
	return nil
}

// Cancel voids an issued invoice. The number stays used.
func (i *Invoice) Cancel(reason string) error {
	if i.Status != StatusIssued {
		return shared.NewDomainError("INVALID_STATE", "Only issued, unpaid invoices can be cancelled")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "A cancellation reason is required")
	}
	i.Status = StatusCancelled
	i.CancelReason = reason
	i.IncrementVersion()
	return nil
}

// IsOverdue reports whether an issued invoice passed its due date.
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.Status == StatusIssued && i.DueDate != nil && now.After(*i.DueDate)
}
