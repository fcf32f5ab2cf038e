package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/licensing"
)

// LicenseModel stores the office's license and its last verified grant.
type LicenseModel struct {
	AggregateModel
	TenantID       uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex"`
	Key            string           `gorm:"type:varchar(64);not null"`
	Domain         string           `gorm:"type:varchar(200)"`
	Edition        string           `gorm:"type:varchar(50)"`
	Status         licensing.Status `gorm:"type:varchar(20);not null"`
	ValidUntil     *time.Time
	ActivatedAt    time.Time              `gorm:"not null"`
	LastVerifiedAt time.Time              `gorm:"not null"`
	RoleFeatures   licensing.RoleFeatures `gorm:"serializer:json;type:text"`
}

// TableName returns the table name for GORM
func (LicenseModel) TableName() string {
	return "licenses"
}

// ToDomain converts to a domain License.
func (m *LicenseModel) ToDomain() *licensing.License {
	rf := m.RoleFeatures
	if rf == nil {
		rf = licensing.RoleFeatures{}
	}
	return &licensing.License{
		BaseAggregateRoot: m.ToAggregateRoot(),
		TenantID:          m.TenantID,
		Key:               m.Key,
		Domain:            m.Domain,
		Edition:           m.Edition,
		Status:            m.Status,
		ValidUntil:        m.ValidUntil,
		ActivatedAt:       m.ActivatedAt,
		LastVerifiedAt:    m.LastVerifiedAt,
		RoleFeatures:      rf,
	}
}

// LicenseModelFromDomain creates a persistence model from a domain License.
func LicenseModelFromDomain(l *licensing.License) *LicenseModel {
	m := &LicenseModel{
		TenantID:       l.TenantID,
		Key:            l.Key,
		Domain:         l.Domain,
		Edition:        l.Edition,
		Status:         l.Status,
		ValidUntil:     l.ValidUntil,
		ActivatedAt:    l.ActivatedAt,
		LastVerifiedAt: l.LastVerifiedAt,
		RoleFeatures:   l.RoleFeatures,
	}
	m.FromDomainAggregateRoot(l.BaseAggregateRoot)
	return m
}

// FeatureFlagModel is an office-level on/off switch for a licensed feature.
type FeatureFlagModel struct {
	ID        uuid.UUID         `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_feature_flags_tenant_feature"`
	Feature   licensing.Feature `gorm:"type:varchar(40);not null;uniqueIndex:idx_feature_flags_tenant_feature"`
	Enabled   bool              `gorm:"not null;default:true"`
	UpdatedBy *uuid.UUID        `gorm:"type:uuid"`
	UpdatedAt time.Time         `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FeatureFlagModel) TableName() string {
	return "feature_flags"
}

// ToDomain converts to a domain FeatureFlag.
func (m *FeatureFlagModel) ToDomain() licensing.FeatureFlag {
	return licensing.FeatureFlag{
		ID:        m.ID,
		TenantID:  m.TenantID,
		Feature:   m.Feature,
		Enabled:   m.Enabled,
		UpdatedBy: m.UpdatedBy,
		UpdatedAt: m.UpdatedAt,
	}
}

// FeatureFlagModelFromDomain creates a persistence model from a domain FeatureFlag.
func FeatureFlagModelFromDomain(f licensing.FeatureFlag) *FeatureFlagModel {
	return &FeatureFlagModel{
		ID:        f.ID,
		TenantID:  f.TenantID,
		Feature:   f.Feature,
		Enabled:   f.Enabled,
		UpdatedBy: f.UpdatedBy,
		UpdatedAt: f.UpdatedAt,
	}
}
