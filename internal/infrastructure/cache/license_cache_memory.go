package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/licensing"
	"go.uber.org/zap"
)

const defaultCleanupInterval = 30 * time.Second

// InMemoryLicenseCache keeps snapshots in process memory. It serves as the
// only cache when Redis is disabled and as L1 in front of Redis otherwise.
type InMemoryLicenseCache struct {
	entries    sync.Map // uuid.UUID -> *entry
	defaultTTL time.Duration
	logger     *zap.Logger
	stopCh     chan struct{}
	stopped    atomic.Bool

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	snapshot  *licensing.Snapshot
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// NewInMemoryLicenseCache starts a cache with a background sweeper.
// Call Close to stop the sweeper.
func NewInMemoryLicenseCache(defaultTTL time.Duration, logger *zap.Logger) *InMemoryLicenseCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &InMemoryLicenseCache{
		defaultTTL: defaultTTL,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}
	go c.sweep()
	return c
}

func (c *InMemoryLicenseCache) Get(_ context.Context, tenantID uuid.UUID) (*licensing.Snapshot, error) {
	if v, ok := c.entries.Load(tenantID); ok {
		e := v.(*entry)
		if !e.expired(time.Now()) {
			c.hits.Add(1)
			return e.snapshot, nil
		}
		c.entries.Delete(tenantID)
	}
	c.misses.Add(1)
	return nil, nil
}

func (c *InMemoryLicenseCache) Set(_ context.Context, s *licensing.Snapshot, ttl time.Duration) error {
	if s == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.entries.Store(s.TenantID, &entry{snapshot: s, expiresAt: time.Now().Add(ttl)})
	return nil
}

func (c *InMemoryLicenseCache) Invalidate(_ context.Context, tenantID uuid.UUID) error {
	c.entries.Delete(tenantID)
	return nil
}

// Stats returns hit and miss counters.
func (c *InMemoryLicenseCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *InMemoryLicenseCache) Close() error {
	if c.stopped.CompareAndSwap(false, true) {
		close(c.stopCh)
	}
	return nil
}

func (c *InMemoryLicenseCache) sweep() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case now := <-ticker.C:
			removed := 0
			c.entries.Range(func(k, v any) bool {
				if v.(*entry).expired(now) {
					c.entries.Delete(k)
					removed++
				}
				return true
			})
			if removed > 0 {
				c.logger.Debug("swept expired license snapshots", zap.Int("removed", removed))
			}
		}
	}
}

var _ licensing.FeatureCache = (*InMemoryLicenseCache)(nil)
