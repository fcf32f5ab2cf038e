// Package licensing binds an office to a license key and resolves which
// features each role may use.
package licensing

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/shared"
)

// Feature is a licensable capability of the application.
type Feature string

const (
	FeatureDossiers     Feature = "dossiers"
	FeatureDocuments    Feature = "documents"
	FeatureAppointments Feature = "appointments"
	FeatureMessaging    Feature = "messaging"
	FeatureInvoicing    Feature = "invoicing"
	FeatureRepertorium  Feature = "repertorium"
	FeatureKlapper      Feature = "klapper"
	FeatureAssistant    Feature = "assistant"
	FeaturePDFExport    Feature = "pdf_export"
	FeatureEmail        Feature = "email"
)

// AllFeatures lists every feature key in display order.
func AllFeatures() []Feature {
	return []Feature{
		FeatureDossiers, FeatureDocuments, FeatureAppointments, FeatureMessaging,
		FeatureInvoicing, FeatureRepertorium, FeatureKlapper, FeatureAssistant,
		FeaturePDFExport, FeatureEmail,
	}
}

// IsValid reports whether f is a known feature key.
func (f Feature) IsValid() bool {
	return slices.Contains(AllFeatures(), f)
}

// ParseFeature validates a feature key.
func ParseFeature(s string) (Feature, error) {
	f := Feature(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", shared.NewDomainError("INVALID_FEATURE", "Unknown feature: "+s)
	}
	return f, nil
}

// Status of a license.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusRevoked Status = "revoked"
	StatusInvalid Status = "invalid"
)

// ParseStatus maps a server status string, treating anything unknown as invalid.
func ParseStatus(s string) Status {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusActive, StatusExpired, StatusRevoked, StatusInvalid:
		return st
	}
	return StatusInvalid
}

// RoleFeatures maps each role to the features the license grants it.
type RoleFeatures map[identity.Role][]Feature

// For returns the sorted, deduplicated features of a role. Unknown keys are dropped.
func (rf RoleFeatures) For(role identity.Role) []Feature {
	var out []Feature
	for _, f := range rf[role] {
		if f.IsValid() && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	slices.Sort(out)
	return out
}

// Clone returns a deep copy.
func (rf RoleFeatures) Clone() RoleFeatures {
	out := make(RoleFeatures, len(rf))
	for r, fs := range rf {
		out[r] = slices.Clone(fs)
	}
	return out
}

// License binds an office to a key and a domain.
type License struct {
	shared.BaseAggregateRoot
	TenantID       uuid.UUID
	Key            string
	Domain         string
	Edition        string
	Status         Status
	ValidUntil     *time.Time
	ActivatedAt    time.Time
	LastVerifiedAt time.Time
	RoleFeatures   RoleFeatures
}

// Grant is what the license server returns on activation and verification.
type Grant struct {
	Status       Status
	Edition      string
	ValidUntil   *time.Time
	RoleFeatures RoleFeatures
}

// NormalizeKey uppercases a key and strips whitespace.
func NormalizeKey(key string) string {
	return strings.ToUpper(strings.Join(strings.Fields(key), ""))
}

// ValidateKey checks the key shape: 16 to 64 characters of letters, digits and dashes.
func ValidateKey(key string) error {
	if len(key) < 16 || len(key) > 64 {
		return shared.NewDomainError("INVALID_LICENSE_KEY", "License key must be between 16 and 64 characters")
	}
	for _, r := range key {
		if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-') {
			return shared.NewDomainError("INVALID_LICENSE_KEY", "License key contains invalid characters")
		}
	}
	return nil
}

// NewLicense builds a license from an activation grant.
func NewLicense(tenantID uuid.UUID, key, domain string, g Grant, now time.Time) (*License, error) {
	key = NormalizeKey(key)
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	domain = identity.NormalizeDomain(domain)
	if domain == "" {
		return nil, shared.NewDomainError("INVALID_DOMAIN", "License domain is required")
	}
	l := &License{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TenantID:          tenantID,
		Key:               key,
		Domain:            domain,
		ActivatedAt:       now,
	}
	l.Apply(g, now)
	return l, nil
}

// Apply refreshes the license from a server grant.
func (l *License) Apply(g Grant, now time.Time) {
	l.Status = g.Status
	if g.Edition != "" {
		l.Edition = g.Edition
	}
	l.ValidUntil = g.ValidUntil
	if g.RoleFeatures != nil {
		l.RoleFeatures = g.RoleFeatures.Clone()
	}
	l.LastVerifiedAt = now
	l.IncrementVersion()
}

// MarkInvalid flags the license after a failed verification.
func (l *License) MarkInvalid(now time.Time) {
	l.Status = StatusInvalid
	l.LastVerifiedAt = now
	l.IncrementVersion()
}

// IsUsable reports whether the license grants anything at now.
func (l *License) IsUsable(now time.Time) bool {
	if l == nil || l.Status != StatusActive {
		return false
	}
	return l.ValidUntil == nil || now.Before(*l.ValidUntil)
}

// EffectiveStatus folds expiry into the stored status.
func (l *License) EffectiveStatus(now time.Time) Status {
	if l.Status == StatusActive && l.ValidUntil != nil && !now.Before(*l.ValidUntil) {
		return StatusExpired
	}
	return l.Status
}

// WithinGrace reports whether the last successful verification is recent
// enough to keep trusting the stored status when the server is unreachable.
func (l *License) WithinGrace(now time.Time, grace time.Duration) bool {
	return now.Sub(l.LastVerifiedAt) <= grace
}

// MaskedKey hides all but the last four characters.
func (l *License) MaskedKey() string {
	if len(l.Key) <= 4 {
		return l.Key
	}
	return strings.Repeat("*", len(l.Key)-4) + l.Key[len(l.Key)-4:]
}

// DomainMatches compares a requested domain with the office domain.
func DomainMatches(requested, office string) bool {
	a, b := identity.NormalizeDomain(requested), identity.NormalizeDomain(office)
	return a != "" && a == b
}
