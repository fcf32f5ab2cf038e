// Package licensing activates office licenses and resolves the features
// each role may use.
package licensing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/licensing"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/notaris/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

var (
	// ErrDomainMismatch is returned when the activation domain is not the office domain.
	ErrDomainMismatch = shared.NewDomainError("DOMAIN_MISMATCH", "License domain does not match the office domain")
	// ErrNoLicense is returned when the office has not activated a license.
	ErrNoLicense = shared.NewDomainError("NO_LICENSE", "Office has no license")
)

// Options configure caching and the offline grace period.
type Options struct {
	CacheTTL    time.Duration
	GracePeriod time.Duration
}

// Service manages the office license and feature flags.
type Service struct {
	repo    licensing.Repository
	tenants identity.TenantRepository
	server  licensing.Server
	cache   licensing.FeatureCache
	opts    Options
	metrics *telemetry.BusinessMetrics
	now     func() time.Time
	logger  *zap.Logger
}

// NewService creates a new licensing service. cache may be nil.
func NewService(repo licensing.Repository, tenants identity.TenantRepository, server licensing.Server, cache licensing.FeatureCache, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = 72 * time.Hour
	}
	return &Service{
		repo:    repo,
		tenants: tenants,
		server:  server,
		cache:   cache,
		opts:    opts,
		now:     time.Now,
		logger:  logger,
	}
}

// SetMetrics enables business metrics.
func (s *Service) SetMetrics(m *telemetry.BusinessMetrics) {
	s.metrics = m
}

// Activate registers key for the office with the license server.
func (s *Service) Activate(ctx context.Context, tenantID uuid.UUID, req ActivateRequest) (resp *StatusResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "licensing", "activate", telemetry.TenantAttr(tenantID))
	defer func() { telemetry.End(span, err) }()

	office, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !licensing.DomainMatches(req.Domain, office.Domain) {
		return nil, ErrDomainMismatch
	}
	key := licensing.NormalizeKey(req.Key)
	if err := licensing.ValidateKey(key); err != nil {
		return nil, err
	}

	grant, err := s.server.Activate(ctx, licensing.ServerRequest{Key: key, Domain: office.Domain, OfficeCode: office.Code})
	if err != nil {
		s.logger.Warn("License activation failed",
			zap.String("tenant_id", tenantID.String()), zap.Error(err))
		return nil, err
	}

	now := s.now()
	l, err := licensing.NewLicense(tenantID, key, office.Domain, *grant, now)
	if err != nil {
		return nil, err
	}
	if existing, err := s.repo.FindByTenant(ctx, tenantID); err == nil {
		l.ID = existing.ID
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if err := s.repo.Save(ctx, l); err != nil {
		return nil, err
	}

	s.invalidate(ctx, tenantID)
	snap, err := s.refresh(ctx, tenantID, l)
	if err != nil {
		return nil, err
	}
	s.logger.Info("License activated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("edition", l.Edition),
		zap.String("status", string(l.Status)))
	return toStatusResponse(l, snap), nil
}

// Verify re-checks the license with the server. When the server is
// unreachable the stored status is kept for the grace period after the
// last successful verification.
func (s *Service) Verify(ctx context.Context, tenantID uuid.UUID) (resp *StatusResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "licensing", "verify", telemetry.TenantAttr(tenantID))
	defer func() { telemetry.End(span, err) }()

	l, err := s.license(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	office, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	inGrace := false
	grant, verr := s.server.Verify(ctx, licensing.ServerRequest{Key: l.Key, Domain: l.Domain, OfficeCode: office.Code})
	switch {
	case verr == nil:
		l.Apply(*grant, now)
	case errors.Is(verr, licensing.ErrServerUnavailable) && l.WithinGrace(now, s.opts.GracePeriod):
		inGrace = true
		s.logger.Warn("License server unreachable, keeping stored status",
			zap.String("tenant_id", tenantID.String()),
			zap.Time("last_verified_at", l.LastVerifiedAt),
			zap.Error(verr))
	default:
		s.logger.Warn("License verification failed, marking invalid",
			zap.String("tenant_id", tenantID.String()), zap.Error(verr))
		l.MarkInvalid(now)
	}
	switch {
	case inGrace:
		s.metrics.LicenseVerified(ctx, "grace")
	case verr != nil:
		s.metrics.LicenseVerified(ctx, "failed")
	default:
		s.metrics.LicenseVerified(ctx, "ok")
	}
	if !inGrace {
		if err := s.repo.Save(ctx, l); err != nil {
			return nil, err
		}
	}

	s.invalidate(ctx, tenantID)
	snap, err := s.refresh(ctx, tenantID, l)
	if err != nil {
		return nil, err
	}
	out := toStatusResponse(l, snap)
	out.InGrace = inGrace
	return out, nil
}

// VerifyAll re-checks every stored license. A failure for one office is
// logged and does not stop the run.
func (s *Service) VerifyAll(ctx context.Context) (*VerifyAllResult, error) {
	ids, err := s.repo.ListTenantIDs(ctx)
	if err != nil {
		return nil, err
	}
	result := &VerifyAllResult{Total: len(ids)}
	for _, id := range ids {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		status, err := s.Verify(ctx, id)
		if err != nil {
			result.Failed++
			s.logger.Error("Scheduled license verification failed",
				zap.String("tenant_id", id.String()), zap.Error(err))
			continue
		}
		result.Verified++
		if status.InGrace {
			result.InGrace++
		}
	}
	return result, nil
}

// Deactivate releases the key at the server, best effort, and removes the license.
func (s *Service) Deactivate(ctx context.Context, tenantID uuid.UUID) error {
	l, err := s.license(ctx, tenantID)
	if err != nil {
		return err
	}
	req := licensing.ServerRequest{Key: l.Key, Domain: l.Domain}
	if office, err := s.tenants.FindByID(ctx, tenantID); err == nil {
		req.OfficeCode = office.Code
	}
	if err := s.server.Deactivate(ctx, req); err != nil {
		s.logger.Warn("License server did not confirm deactivation",
			zap.String("tenant_id", tenantID.String()), zap.Error(err))
	}
	if err := s.repo.Delete(ctx, tenantID); err != nil {
		return err
	}
	s.invalidate(ctx, tenantID)
	s.logger.Info("License deactivated", zap.String("tenant_id", tenantID.String()))
	return nil
}

// Status returns the license details and the features of every role.
func (s *Service) Status(ctx context.Context, tenantID uuid.UUID) (*StatusResponse, error) {
	l, err := s.repo.FindByTenant(ctx, tenantID)
	if errors.Is(err, shared.ErrNotFound) {
		l, err = nil, nil
	}
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return toStatusResponse(l, snap), nil
}

// Features returns the features role may use in the office.
func (s *Service) Features(ctx context.Context, tenantID uuid.UUID, role identity.Role) ([]licensing.Feature, error) {
	snap, err := s.snapshot(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return snap.For(role, s.now()), nil
}

// Enabled reports whether role may use feature. It backs the HTTP gate.
func (s *Service) Enabled(ctx context.Context, tenantID uuid.UUID, role identity.Role, feature licensing.Feature) (bool, error) {
	features, err := s.Features(ctx, tenantID, role)
	if err != nil {
		return false, err
	}
	return licensing.Has(features, feature), nil
}

// ListFlags returns the switch state of every feature. Features without a
// stored flag are enabled.
func (s *Service) ListFlags(ctx context.Context, tenantID uuid.UUID) ([]FlagResponse, error) {
	flags, err := s.repo.ListFlags(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	stored := make(map[licensing.Feature]licensing.FeatureFlag, len(flags))
	for _, f := range flags {
		stored[f.Feature] = f
	}
	out := make([]FlagResponse, 0, len(licensing.AllFeatures()))
	for _, feature := range licensing.AllFeatures() {
		resp := FlagResponse{Feature: feature, Enabled: true}
		if f, ok := stored[feature]; ok {
			updatedAt := f.UpdatedAt
			resp.Enabled = f.Enabled
			resp.UpdatedBy = f.UpdatedBy
			resp.UpdatedAt = &updatedAt
		}
		out = append(out, resp)
	}
	return out, nil
}

// SetFlag switches a feature on or off for the whole office.
func (s *Service) SetFlag(ctx context.Context, tenantID, userID uuid.UUID, feature string, enabled bool) (*FlagResponse, error) {
	f, err := licensing.ParseFeature(feature)
	if err != nil {
		return nil, err
	}
	flag := &licensing.FeatureFlag{
		TenantID:  tenantID,
		Feature:   f,
		Enabled:   enabled,
		UpdatedBy: &userID,
		UpdatedAt: s.now(),
	}
	if err := s.repo.SaveFlag(ctx, flag); err != nil {
		return nil, err
	}
	s.invalidate(ctx, tenantID)
	s.logger.Info("Feature flag changed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("feature", string(f)),
		zap.Bool("enabled", enabled),
		zap.String("user_id", userID.String()))
	return &FlagResponse{Feature: f, Enabled: enabled, UpdatedBy: flag.UpdatedBy, UpdatedAt: &flag.UpdatedAt}, nil
}

func (s *Service) license(ctx context.Context, tenantID uuid.UUID) (*licensing.License, error) {
	l, err := s.repo.FindByTenant(ctx, tenantID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, ErrNoLicense
	}
	return l, err
}

// snapshot resolves features through the cache, falling back to the database.
func (s *Service) snapshot(ctx context.Context, tenantID uuid.UUID) (*licensing.Snapshot, error) {
	if s.cache != nil {
		snap, err := s.cache.Get(ctx, tenantID)
		if err != nil {
			s.logger.Warn("License cache read failed", zap.Error(err))
		} else if snap != nil {
			return snap, nil
		}
	}
	l, err := s.repo.FindByTenant(ctx, tenantID)
	if errors.Is(err, shared.ErrNotFound) {
		l, err = nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, tenantID, l)
}

// refresh recomputes the snapshot from l and the stored flags and caches it.
func (s *Service) refresh(ctx context.Context, tenantID uuid.UUID, l *licensing.License) (*licensing.Snapshot, error) {
	flags, err := s.repo.ListFlags(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	snap := licensing.NewSnapshot(tenantID, l, flags, s.now())
	if s.cache != nil {
		if err := s.cache.Set(ctx, snap, s.opts.CacheTTL); err != nil {
			s.logger.Warn("License cache write failed", zap.Error(err))
		}
	}
	return snap, nil
}

func (s *Service) invalidate(ctx context.Context, tenantID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, tenantID); err != nil {
		s.logger.Warn("License cache invalidation failed",
			zap.String("tenant_id", tenantID.String()), zap.Error(err))
	}
}
