package models

import (
	"time"

	"github.com/notaris/backend/internal/domain/identity"
	"github.com/shopspring/decimal"
)

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	TenantAggregateModel
	Username          string              `gorm:"type:varchar(100);not null"`
	Email             string              `gorm:"type:varchar(200)"`
	DisplayName       string              `gorm:"type:varchar(200)"`
	PasswordHash      string              `gorm:"type:varchar(255);not null"`
	Role              identity.Role       `gorm:"type:varchar(20);not null"`
	Status            identity.UserStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	LastLoginAt       *time.Time
	LastLoginIP       string `gorm:"type:varchar(45)"`
	FailedAttempts    int    `gorm:"not null;default:0"`
	LockedUntil       *time.Time
	PasswordChangedAt *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Username:            m.Username,
		Email:               m.Email,
		DisplayName:         m.DisplayName,
		PasswordHash:        m.PasswordHash,
		Role:                m.Role,
		Status:              m.Status,
		LastLoginAt:         m.LastLoginAt,
		LastLoginIP:         m.LastLoginIP,
		FailedAttempts:      m.FailedAttempts,
		LockedUntil:         m.LockedUntil,
		PasswordChangedAt:   m.PasswordChangedAt,
	}
}

// FromDomain populates the persistence model from a domain User entity.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainTenantAggregateRoot(u.TenantAggregateRoot)
	m.Username = u.Username
	m.Email = u.Email
	m.DisplayName = u.DisplayName
	m.PasswordHash = u.PasswordHash
	m.Role = u.Role
	m.Status = u.Status
	m.LastLoginAt = u.LastLoginAt
	m.LastLoginIP = u.LastLoginIP
	m.FailedAttempts = u.FailedAttempts
	m.LockedUntil = u.LockedUntil
	m.PasswordChangedAt = u.PasswordChangedAt
}

// UserModelFromDomain creates a new persistence model from a domain User entity.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}

// TenantModel is the persistence model for a notary office.
type TenantModel struct {
	AggregateModel
	Code                   string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name                   string                `gorm:"type:varchar(200);not null"`
	Domain                 string                `gorm:"type:varchar(200);index"`
	VATNumber              string                `gorm:"type:varchar(30)"`
	ContactEmail           string                `gorm:"type:varchar(200)"`
	ContactPhone           string                `gorm:"type:varchar(50)"`
	Address                string                `gorm:"type:text"`
	Status                 identity.TenantStatus `gorm:"type:varchar(20);not null;default:'active'"`
	InvoicePrefix          string                `gorm:"type:varchar(20)"`
	InvoiceDefaultVATRate  decimal.Decimal       `gorm:"type:decimal(5,2);not null;default:21"`
	InvoicePaymentTermDays int                   `gorm:"not null;default:30"`
	InvoiceCurrency        string                `gorm:"type:varchar(3);not null;default:'EUR'"`
	InvoiceIBAN            string                `gorm:"type:varchar(34)"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant entity.
func (m *TenantModel) ToDomain() *identity.Tenant {
	return &identity.Tenant{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Domain:            m.Domain,
		VATNumber:         m.VATNumber,
		ContactEmail:      m.ContactEmail,
		ContactPhone:      m.ContactPhone,
		Address:           m.Address,
		Status:            m.Status,
		Invoice: identity.InvoiceSettings{
			Prefix:          m.InvoicePrefix,
			DefaultVATRate:  m.InvoiceDefaultVATRate,
			PaymentTermDays: m.InvoicePaymentTermDays,
			Currency:        m.InvoiceCurrency,
			IBAN:            m.InvoiceIBAN,
		},
	}
}

// FromDomain populates the persistence model from a domain Tenant entity.
func (m *TenantModel) FromDomain(t *identity.Tenant) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.Code = t.Code
	m.Name = t.Name
	m.Domain = t.Domain
	m.VATNumber = t.VATNumber
	m.ContactEmail = t.ContactEmail
	m.ContactPhone = t.ContactPhone
	m.Address = t.Address
	m.Status = t.Status
	m.InvoicePrefix = t.Invoice.Prefix
	m.InvoiceDefaultVATRate = t.Invoice.DefaultVATRate
	m.InvoicePaymentTermDays = t.Invoice.PaymentTermDays
	m.InvoiceCurrency = t.Invoice.Currency
	m.InvoiceIBAN = t.Invoice.IBAN
}

// TenantModelFromDomain creates a new persistence model from a domain Tenant entity.
func TenantModelFromDomain(t *identity.Tenant) *TenantModel {
	m := &TenantModel{}
	m.FromDomain(t)
	return m
}
