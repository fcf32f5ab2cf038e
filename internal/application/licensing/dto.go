package licensing

import (
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/licensing"
)

// ActivateRequest binds a key to the office domain.
type ActivateRequest struct {
	Key    string `json:"key" binding:"required"`
	Domain string `json:"domain" binding:"required"`
}

// SetFlagRequest switches one feature for the office.
type SetFlagRequest struct {
	Feature string `json:"feature" binding:"required"`
	Enabled *bool  `json:"enabled" binding:"required"`
}

// StatusResponse describes the office license and the resolved features.
type StatusResponse struct {
	Licensed       bool                                  `json:"licensed"`
	Status         licensing.Status                      `json:"status"`
	Edition        string                                `json:"edition,omitempty"`
	Domain         string                                `json:"domain,omitempty"`
	MaskedKey      string                                `json:"key,omitempty"`
	ValidUntil     *time.Time                            `json:"valid_until,omitempty"`
	ActivatedAt    *time.Time                            `json:"activated_at,omitempty"`
	LastVerifiedAt *time.Time                            `json:"last_verified_at,omitempty"`
	InGrace        bool                                  `json:"in_grace,omitempty"`
	Features       map[identity.Role][]licensing.Feature `json:"features"`
}

// VerifyAllResult counts the outcome of a verification run.
type VerifyAllResult struct {
	Total    int
	Verified int
	InGrace  int
	Failed   int
}

func toStatusResponse(l *licensing.License, snap *licensing.Snapshot) *StatusResponse {
	out := &StatusResponse{Status: licensing.StatusInvalid, Features: map[identity.Role][]licensing.Feature{}}
	if snap != nil {
		out.Status = snap.Status
		out.Features = snap.Features
	}
	if l == nil {
		return out
	}
	activated, verified := l.ActivatedAt, l.LastVerifiedAt
	out.Licensed = true
	out.Edition = l.Edition
	out.Domain = l.Domain
	out.MaskedKey = l.MaskedKey()
	out.ValidUntil = l.ValidUntil
	out.ActivatedAt = &activated
	out.LastVerifiedAt = &verified
	return out
}

// FlagResponse is the effective switch state of a feature.
type FlagResponse struct {
	Feature   licensing.Feature `json:"feature"`
	Enabled   bool              `json:"enabled"`
	UpdatedBy *uuid.UUID        `json:"updated_by,omitempty"`
	UpdatedAt *time.Time        `json:"updated_at,omitempty"`
}
