package identity

import (
	"strings"
	"time"

	"github.com/notaris/backend/internal/domain/shared"
	"github.com/notaris/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// TenantStatus represents the status of a notary office
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

// InvoiceSettings holds the office defaults used when invoicing.
type InvoiceSettings struct {
	Prefix          string
	DefaultVATRate  decimal.Decimal
	PaymentTermDays int
	Currency        string
	IBAN            string
}

// DefaultInvoiceSettings returns the settings a new office starts with.
func DefaultInvoiceSettings() InvoiceSettings {
	return InvoiceSettings{
		Prefix:          "F",
		DefaultVATRate:  decimal.NewFromInt(21),
		PaymentTermDays: 30,
		Currency:        string(valueobject.DefaultCurrency),
	}
}

// Tenant is a notary office. Every other aggregate is scoped to one.
type Tenant struct {
	shared.BaseAggregateRoot
	Code         string
	Name         string
	Domain       string
	VATNumber    string
	ContactEmail string
	ContactPhone string
	Address      string
	Status       TenantStatus
	Invoice      InvoiceSettings
}

// NewTenant creates a new office with required fields
func NewTenant(code, name string) (*Tenant, error) {
	if err := validateTenantCode(code); err != nil {
		return nil, err
	}
	if err := validateTenantName(name); err != nil {
		return nil, err
	}

	return &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              strings.TrimSpace(name),
		Status:            TenantStatusActive,
		Invoice:           DefaultInvoiceSettings(),
	}, nil
}

// Update updates the office's basic information
func (t *Tenant) Update(name, vatNumber, address string) error {
	if err := validateTenantName(name); err != nil {
		return err
	}
	if len(vatNumber) > 30 {
		return shared.NewDomainError("INVALID_VAT_NUMBER", "VAT number cannot exceed 30 characters")
	}
	if len(address) > 500 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 500 characters")
	}

	t.Name = strings.TrimSpace(name)
	t.VATNumber = strings.ToUpper(strings.ReplaceAll(vatNumber, " ", ""))
	t.Address = strings.TrimSpace(address)
	t.IncrementVersion()
	return nil
}

// SetContact sets the office's contact information
func (t *Tenant) SetContact(email, phone string) error {
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}

	t.ContactEmail = strings.ToLower(strings.TrimSpace(email))
	t.ContactPhone = strings.TrimSpace(phone)
	t.IncrementVersion()
	return nil
}

// SetDomain sets the domain the office's license is bound to.
func (t *Tenant) SetDomain(domain string) error {
	domain = NormalizeDomain(domain)
	if len(domain) > 200 {
		return shared.NewDomainError("INVALID_DOMAIN", "Domain cannot exceed 200 characters")
	}
	if domain != "" && !strings.Contains(domain, ".") {
		return shared.NewDomainError("INVALID_DOMAIN", "Domain must be a fully qualified host name")
	}

	t.Domain = domain
	t.IncrementVersion()
	return nil
}

// SetInvoiceSettings replaces the invoice defaults.
func (t *Tenant) SetInvoiceSettings(s InvoiceSettings) error {
	if len(s.Prefix) > 10 {
		return shared.NewDomainError("INVALID_INVOICE_PREFIX", "Invoice prefix cannot exceed 10 characters")
	}
	if s.DefaultVATRate.IsNegative() || s.DefaultVATRate.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_VAT_RATE", "VAT rate must be between 0 and 100")
	}
	if s.PaymentTermDays < 0 || s.PaymentTermDays > 365 {
		return shared.NewDomainError("INVALID_PAYMENT_TERM", "Payment term must be between 0 and 365 days")
	}
	code, err := valueobject.ParseCurrency(s.Currency)
	if err != nil {
		return shared.NewDomainError("INVALID_CURRENCY", "Currency must be a three letter ISO code")
	}
	s.Currency = string(code)

	t.Invoice = s
	t.IncrementVersion()
	return nil
}

// Suspend suspends the office; its users can no longer sign in.
func (t *Tenant) Suspend() error {
	if t.Status == TenantStatusSuspended {
		return shared.NewDomainError("ALREADY_SUSPENDED", "Office is already suspended")
	}
	t.Status = TenantStatusSuspended
	t.IncrementVersion()
	return nil
}

// Activate re-activates a suspended office.
func (t *Tenant) Activate() error {
	if t.Status == TenantStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Office is already active")
	}
	t.Status = TenantStatusActive
	t.IncrementVersion()
	return nil
}

// IsActive returns true if the office is active
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// PaymentDueDate returns the due date for an invoice issued on issued.
func (t *Tenant) PaymentDueDate(issued time.Time) time.Time {
	return issued.AddDate(0, 0, t.Invoice.PaymentTermDays)
}

// NormalizeDomain lowercases a host name and strips scheme, port, path and a leading "www.".
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.LastIndex(d, ":"); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimSuffix(d, ".")
	return strings.TrimPrefix(d, "www.")
}

func validateTenantCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Office code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Office code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Office code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateTenantName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Office name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Office name cannot exceed 200 characters")
	}
	return nil
}
