package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/licensing"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	licenseKeyPrefix = "notaris:license:"
	// InvalidationChannel carries office ids whose snapshot changed.
	InvalidationChannel = "notaris:license:invalidate"
)

// RedisLicenseCache stores snapshots as JSON shared by all instances.
type RedisLicenseCache struct {
	client     redis.UniversalClient
	defaultTTL time.Duration
	logger     *zap.Logger
}

func NewRedisLicenseCache(client redis.UniversalClient, defaultTTL time.Duration, logger *zap.Logger) *RedisLicenseCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLicenseCache{client: client, defaultTTL: defaultTTL, logger: logger}
}

func licenseKey(tenantID uuid.UUID) string {
	return licenseKeyPrefix + tenantID.String()
}

func (c *RedisLicenseCache) Get(ctx context.Context, tenantID uuid.UUID) (*licensing.Snapshot, error) {
	data, err := c.client.Get(ctx, licenseKey(tenantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read license snapshot: %w", err)
	}

	var s licensing.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		c.logger.Warn("dropping corrupt license snapshot",
			zap.String("tenant_id", tenantID.String()), zap.Error(err))
		_ = c.client.Del(ctx, licenseKey(tenantID))
		return nil, nil
	}
	return &s, nil
}

func (c *RedisLicenseCache) Set(ctx context.Context, s *licensing.Snapshot, ttl time.Duration) error {
	if s == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal license snapshot: %w", err)
	}
	if err := c.client.Set(ctx, licenseKey(s.TenantID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store license snapshot: %w", err)
	}
	return nil
}

// Invalidate deletes the snapshot and tells other instances to drop
// their local copy.
func (c *RedisLicenseCache) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	if err := c.client.Del(ctx, licenseKey(tenantID)).Err(); err != nil {
		return fmt.Errorf("failed to delete license snapshot: %w", err)
	}
	if err := c.client.Publish(ctx, InvalidationChannel, tenantID.String()).Err(); err != nil {
		c.logger.Warn("failed to publish license invalidation",
			zap.String("tenant_id", tenantID.String()), zap.Error(err))
	}
	return nil
}

// Subscribe calls fn for every invalidation published by any instance
// until ctx is cancelled.
func (c *RedisLicenseCache) Subscribe(ctx context.Context, fn func(tenantID uuid.UUID)) error {
	pubsub := c.client.Subscribe(ctx, InvalidationChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", InvalidationChannel, err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			id, err := uuid.Parse(msg.Payload)
			if err != nil {
				c.logger.Warn("ignoring malformed invalidation", zap.String("payload", msg.Payload))
				continue
			}
			fn(id)
		}
	}
}

var _ licensing.FeatureCache = (*RedisLicenseCache)(nil)
