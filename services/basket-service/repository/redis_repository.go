package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yashrajoria/swn-shop/services/basket-service/models"
)

const basketKeyPrefix = "basket:user:"

// RedisClient is the part of *redis.Client the basket store uses.
type RedisClient interface {
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisBasketRepository keeps each basket as a JSON blob with a TTL.
type RedisBasketRepository struct {
	client RedisClient
	ttl    time.Duration
}

var _ BasketRepository = (*RedisBasketRepository)(nil)

func NewRedisBasketRepository(client RedisClient, ttl time.Duration) *RedisBasketRepository {
	return &RedisBasketRepository{client: client, ttl: ttl}
}

func (r *RedisBasketRepository) getKey(userName string) string {
	return basketKeyPrefix + userName
}

func (r *RedisBasketRepository) List(ctx context.Context) ([]models.Basket, error) {
	baskets := []models.Basket{}
	iter := r.client.Scan(ctx, 0, basketKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		b, err := r.Get(ctx, strings.TrimPrefix(iter.Val(), basketKeyPrefix))
		if err != nil {
			return nil, err
		}
		// expired between SCAN and GET
		if b != nil {
			baskets = append(baskets, *b)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis SCAN failed: %w", err)
	}
	return baskets, nil
}

func (r *RedisBasketRepository) Get(ctx context.Context, userName string) (*models.Basket, error) {
	data, err := r.client.Get(ctx, r.getKey(userName)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET failed: %w", err)
	}

	var b models.Basket
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode basket: %w", err)
	}
	return &b, nil
}

func (r *RedisBasketRepository) Put(ctx context.Context, basket *models.Basket) error {
	data, err := json.Marshal(basket)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.getKey(basket.UserName), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}
	return nil
}

func (r *RedisBasketRepository) Delete(ctx context.Context, userName string) error {
	if err := r.client.Del(ctx, r.getKey(userName)).Err(); err != nil {
		return fmt.Errorf("redis DEL failed: %w", err)
	}
	return nil
}

// NewRedisClient parses url and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
