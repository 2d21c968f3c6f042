package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yashrajoria/swn-shop/services/product-service/models"
)

const (
	productCachePrefix     = "product:detail:"
	productListCachePrefix = "products:v:"
	cacheVersionKey        = "products:version"
)

// RedisCache is the subset of redis.Cmdable the cache uses.
type RedisCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedProductRepository puts a read-through Redis cache in front of
// another repository. Item entries are dropped on write; the list entry is
// versioned and every write bumps the version. Cache failures never fail a
// request.
type CachedProductRepository struct {
	next   ProductRepository
	redis  RedisCache
	ttl    time.Duration
	logger *zap.Logger
}

var _ ProductRepository = (*CachedProductRepository)(nil)

func NewCachedProductRepository(next ProductRepository, rdb RedisCache, ttl time.Duration, logger *zap.Logger) *CachedProductRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProductRepository{next: next, redis: rdb, ttl: ttl, logger: logger}
}

func (c *CachedProductRepository) listKey(ctx context.Context) (string, bool) {
	v, err := c.redis.Get(ctx, cacheVersionKey).Result()
	if errors.Is(err, redis.Nil) {
		v = "0"
	} else if err != nil {
		return "", false
	}
	return productListCachePrefix + v + ":all", true
}

func (c *CachedProductRepository) List(ctx context.Context) ([]models.Product, error) {
	key, ok := c.listKey(ctx)
	if ok {
		var cached []models.Product
		if c.load(ctx, key, &cached) {
			return cached, nil
		}
	}
	products, err := c.next.List(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		c.store(ctx, key, products)
	}
	return products, nil
}

func (c *CachedProductRepository) Get(ctx context.Context, id string) (*models.Product, error) {
	var cached models.Product
	if c.load(ctx, productCachePrefix+id, &cached) {
		return &cached, nil
	}
	p, err := c.next.Get(ctx, id)
	if err != nil || p == nil {
		return p, err
	}
	c.store(ctx, productCachePrefix+id, p)
	return p, nil
}

// ListByCategory is not cached.
func (c *CachedProductRepository) ListByCategory(ctx context.Context, id, category string) ([]models.Product, error) {
	return c.next.ListByCategory(ctx, id, category)
}

func (c *CachedProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := c.next.Create(ctx, product); err != nil {
		return err
	}
	c.invalidate(ctx, product.ID)
	return nil
}

func (c *CachedProductRepository) Update(ctx context.Context, id string, fields map[string]any) (*models.Product, error) {
	p, err := c.next.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, id)
	return p, nil
}

func (c *CachedProductRepository) Delete(ctx context.Context, id string) error {
	if err := c.next.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *CachedProductRepository) load(ctx context.Context, key string, dst any) bool {
	raw, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("product cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		c.logger.Warn("product cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *CachedProductRepository) store(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.logger.Warn("product cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *CachedProductRepository) invalidate(ctx context.Context, id string) {
	if err := c.redis.Del(ctx, productCachePrefix+id).Err(); err != nil {
		c.logger.Warn("product cache delete failed", zap.String("id", id), zap.Error(err))
	}
	v, err := c.redis.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		c.logger.Warn("product cache version bump failed", zap.Error(err))
		return
	}
	c.logger.Debug("product cache version bumped", zap.String("version", strconv.FormatInt(v, 10)))
}

// NewRedisClient parses url and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
