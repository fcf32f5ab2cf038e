package dossier

import (
	"strings"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/shared"
)

// PartyKind distinguishes natural persons from legal entities.
type PartyKind string

const (
	PartyPerson  PartyKind = "person"
	PartyCompany PartyKind = "company"
)

// Capacity is the role a party plays in the deed.
type Capacity string

const (
	CapacityBuyer    Capacity = "buyer"
	CapacitySeller   Capacity = "seller"
	CapacityLender   Capacity = "lender"
	CapacityBorrower Capacity = "borrower"
	CapacityTestator Capacity = "testator"
	CapacityHeir     Capacity = "heir"
	CapacityFounder  Capacity = "founder"
	CapacitySpouse   Capacity = "spouse"
	CapacityDonor    Capacity = "donor"
	CapacityDonee    Capacity = "donee"
	CapacityOther    Capacity = "other"
)

// IsValid reports whether c is a known capacity.
func (c Capacity) IsValid() bool {
	switch c {
	case CapacityBuyer, CapacitySeller, CapacityLender, CapacityBorrower, CapacityTestator,
		CapacityHeir, CapacityFounder, CapacitySpouse, CapacityDonor, CapacityDonee, CapacityOther:
		return true
	}
	return false
}

// Party is a person or company appearing in a dossier.
type Party struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	DossierID   uuid.UUID
	Kind        PartyKind
	FirstName   string
	LastName    string
	CompanyName string
	Capacity    Capacity
	NationalID  string
	Email       string
	Phone       string
	Address     string
}

// Validate checks the party's required fields.
func (p *Party) Validate() error {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.CompanyName = strings.TrimSpace(p.CompanyName)

	switch p.Kind {
	case PartyPerson:
		if p.LastName == "" {
			return shared.NewDomainError("INVALID_PARTY", "A person needs a last name")
		}
	case PartyCompany:
		if p.CompanyName == "" {
			return shared.NewDomainError("INVALID_PARTY", "A company needs a name")
		}
	default:
		return shared.NewDomainError("INVALID_PARTY", "Party kind must be person or company")
	}
	if !p.Capacity.IsValid() {
		return shared.NewDomainError("INVALID_PARTY", "Unknown party capacity")
	}
	if len(p.NationalID) > 30 {
		return shared.NewDomainError("INVALID_PARTY", "National ID cannot exceed 30 characters")
	}
	return nil
}

// DisplayName renders "Last, First" for persons and the company name otherwise.
func (p Party) DisplayName() string {
	if p.Kind == PartyCompany {
		return p.CompanyName
	}
	if p.FirstName == "" {
		return p.LastName
	}
	return p.LastName + ", " + p.FirstName
}
