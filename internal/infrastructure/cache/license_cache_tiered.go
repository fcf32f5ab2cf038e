package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/licensing"
	"go.uber.org/zap"
)

// TieredLicenseCache reads L1 then L2 and fills L1 on an L2 hit.
// The L1 TTL is kept short so a missed invalidation heals quickly.
type TieredLicenseCache struct {
	l1    *InMemoryLicenseCache
	l2    licensing.FeatureCache
	l1TTL time.Duration
	log   *zap.Logger
}

func NewTieredLicenseCache(l1 *InMemoryLicenseCache, l2 licensing.FeatureCache, l1TTL time.Duration, logger *zap.Logger) *TieredLicenseCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TieredLicenseCache{l1: l1, l2: l2, l1TTL: l1TTL, log: logger}
}

func (c *TieredLicenseCache) Get(ctx context.Context, tenantID uuid.UUID) (*licensing.Snapshot, error) {
	if s, _ := c.l1.Get(ctx, tenantID); s != nil {
		return s, nil
	}
	s, err := c.l2.Get(ctx, tenantID)
	if err != nil {
		// L2 outage degrades to a miss; the caller falls back to the database
		c.log.Warn("license cache L2 read failed", zap.Error(err))
		return nil, nil
	}
	if s != nil {
		_ = c.l1.Set(ctx, s, c.l1TTL)
	}
	return s, nil
}

func (c *TieredLicenseCache) Set(ctx context.Context, s *licensing.Snapshot, ttl time.Duration) error {
	_ = c.l1.Set(ctx, s, min(ttl, c.l1TTL))
	return c.l2.Set(ctx, s, ttl)
}

func (c *TieredLicenseCache) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	_ = c.l1.Invalidate(ctx, tenantID)
	return c.l2.Invalidate(ctx, tenantID)
}

// DropLocal removes a snapshot from L1 only. Used as the pub/sub callback.
func (c *TieredLicenseCache) DropLocal(tenantID uuid.UUID) {
	_ = c.l1.Invalidate(context.Background(), tenantID)
}

func (c *TieredLicenseCache) Close() error {
	return c.l1.Close()
}

var _ licensing.FeatureCache = (*TieredLicenseCache)(nil)
