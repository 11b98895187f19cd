package providerRepo

import (
	"context"
	"encoding/json"
	"time"

	"bookingpay/models"
	"bookingpay/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CachedDirectory fronts a Directory with a Redis read-through cache for catalog services.
// Providers are never cached: the active flag and payout verification must be read fresh.
type CachedDirectory struct {
	Directory
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedDirectory wraps next. A zero ttl disables caching.
func NewCachedDirectory(next Directory, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedDirectory {
	return &CachedDirectory{Directory: next, cache: cache, ttl: ttl, logger: logger}
}

func (c *CachedDirectory) GetService(ctx context.Context, id string) (*models.Service, error) {
	if c.cache == nil || c.ttl <= 0 {
		return c.Directory.GetService(ctx, id)
	}
	cacheKey := utils.CatalogCachePrefix + id

	cached, err := c.cache.Get(ctx, cacheKey).Result()
	if err == nil && cached != "" {
		var service models.Service
		if err := json.Unmarshal([]byte(cached), &service); err == nil {
			return &service, nil
		}
		// Corrupt entry, fall through and overwrite it.
	} else if err != nil && err != redis.Nil {
		c.logger.Warn("Catalog cache read failed", zap.String("serviceId", id), zap.Error(err))
	}

	service, err := c.Directory.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(service); err == nil {
		if err := c.cache.Set(ctx, cacheKey, data, c.ttl).Err(); err != nil {
			c.logger.Warn("Catalog cache write failed", zap.String("serviceId", id), zap.Error(err))
		}
	}
	return service, nil
}

// InvalidateService drops the cached copy of a service.
func (c *CachedDirectory) InvalidateService(ctx context.Context, id string) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Del(ctx, utils.CatalogCachePrefix+id).Err()
}
