package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/shopspring/decimal"
)

// LoginInput contains the input for user login. The office is picked by
// OfficeCode, or by the request host when no code is given.
type LoginInput struct {
	OfficeCode string
	Host       string
	Username   string
	Password   string
	IP         string
}

// SessionTokens is a freshly issued access/refresh token pair.
type SessionTokens struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	Tokens SessionTokens
	User   UserDTO
}

// LogoutInput names the tokens to revoke.
type LogoutInput struct {
	AccessJTI    string
	AccessTTL    time.Duration
	RefreshToken string
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	TenantID    uuid.UUID
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

// UserDTO represents a user as returned by the API
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	Username    string     `json:"username"`
	Email       string     `json:"email,omitempty"`
	DisplayName string     `json:"display_name"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	Permissions []string   `json:"permissions,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ToUserDTO converts a domain user.
func ToUserDTO(u *identity.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		TenantID:    u.TenantID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.Name(),
		Role:        string(u.Role),
		Status:      string(u.Status),
		LastLoginAt: u.LastLoginAt,
		LockedUntil: u.LockedUntil,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// CreateUserInput contains input for creating a user
type CreateUserInput struct {
	Username    string
	Password    string
	Email       string
	DisplayName string
	Role        string
}

// UpdateUserInput contains input for updating a user. Nil fields are left alone.
type UpdateUserInput struct {
	Email       *string
	DisplayName *string
}

// UserListFilter narrows user listings.
type UserListFilter struct {
	Search   string
	Role     string
	Status   string
	Page     int
	PageSize int
}

// OfficeDTO is the office profile.
type OfficeDTO struct {
	ID              uuid.UUID       `json:"id"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Domain          string          `json:"domain,omitempty"`
	VATNumber       string          `json:"vat_number,omitempty"`
	ContactEmail    string          `json:"contact_email,omitempty"`
	ContactPhone    string          `json:"contact_phone,omitempty"`
	Address         string          `json:"address,omitempty"`
	Status          string          `json:"status"`
	InvoicePrefix   string          `json:"invoice_prefix"`
	DefaultVATRate  decimal.Decimal `json:"default_vat_rate"`
	PaymentTermDays int             `json:"payment_term_days"`
	Currency        string          `json:"currency"`
	IBAN            string          `json:"iban,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ToOfficeDTO converts a domain office.
func ToOfficeDTO(t *identity.Tenant) OfficeDTO {
	return OfficeDTO{
		ID:              t.ID,
		Code:            t.Code,
		Name:            t.Name,
		Domain:          t.Domain,
		VATNumber:       t.VATNumber,
		ContactEmail:    t.ContactEmail,
		ContactPhone:    t.ContactPhone,
		Address:         t.Address,
		Status:          string(t.Status),
		InvoicePrefix:   t.Invoice.Prefix,
		DefaultVATRate:  t.Invoice.DefaultVATRate,
		PaymentTermDays: t.Invoice.PaymentTermDays,
		Currency:        t.Invoice.Currency,
		IBAN:            t.Invoice.IBAN,
		UpdatedAt:       t.UpdatedAt,
	}
}

// UpdateOfficeInput replaces the editable office profile.
type UpdateOfficeInput struct {
	Name            string
	VATNumber       string
	Address         string
	ContactEmail    string
	ContactPhone    string
	Domain          string
	InvoicePrefix   string
	DefaultVATRate  decimal.Decimal
	PaymentTermDays int
	Currency        string
	IBAN            string
}

// BootstrapInput creates an office with its first administrator.
type BootstrapInput struct {
	Code          string
	Name          string
	Domain        string
	AdminUsername string
	AdminPassword string
	AdminEmail    string
}

// RoleDTO describes a role and what it may do.
type RoleDTO struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}
