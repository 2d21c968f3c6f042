package repository_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashrajoria/swn-shop/pkg/contracts"

	"github.com/yashrajoria/swn-shop/services/basket-service/models"
	"github.com/yashrajoria/swn-shop/services/basket-service/repository"
)

// fakeBasketRedis is a map-backed RedisClient. Keys in scanOnly are returned
// by SCAN but have no value, like keys that expire before the GET.
type fakeBasketRedis struct {
	data     map[string]string
	ttls     map[string]time.Duration
	scanOnly []string
	err      error
}

func newFakeBasketRedis() *fakeBasketRedis {
	return &fakeBasketRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeBasketRedis) Scan(_ context.Context, _ uint64, match string, _ int64) *redis.ScanCmd {
	if f.err != nil {
		return redis.NewScanCmdResult(nil, 0, f.err)
	}
	prefix := strings.TrimSuffix(match, "*")
	keys := append([]string{}, f.scanOnly...)
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return redis.NewScanCmdResult(keys, 0, nil)
}

func (f *fakeBasketRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeBasketRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeBasketRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.data, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestRedisBasketRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - missing basket is nil without error", func(t *testing.T) {
		repo := repository.NewRedisBasketRepository(newFakeBasketRedis(), time.Hour)

		got, err := repo.Get(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Success - put then get round-trips with TTL", func(t *testing.T) {
		rdb := newFakeBasketRedis()
		repo := repository.NewRedisBasketRepository(rdb, 24*time.Hour)
		basket := &models.Basket{UserName: "swn", Items: []contracts.Item{
			{ProductID: "p-1", ProductName: "IPhone X", Quantity: 2, Color: "Black", Price: 10},
		}}

		require.NoError(t, repo.Put(ctx, basket))
		assert.Contains(t, rdb.data, "basket:user:swn")
		assert.Equal(t, 24*time.Hour, rdb.ttls["basket:user:swn"])

		got, err := repo.Get(ctx, "swn")
		require.NoError(t, err)
		assert.Equal(t, basket, got)

		require.NoError(t, repo.Delete(ctx, "swn"))
		gone, err := repo.Get(ctx, "swn")
		require.NoError(t, err)
		assert.Nil(t, gone)
	})

	t.Run("Success - list skips keys expired between scan and get", func(t *testing.T) {
		rdb := newFakeBasketRedis()
		rdb.scanOnly = []string{"basket:user:expired"}
		repo := repository.NewRedisBasketRepository(rdb, time.Hour)
		require.NoError(t, repo.Put(ctx, &models.Basket{UserName: "a"}))
		require.NoError(t, repo.Put(ctx, &models.Basket{UserName: "b"}))

		all, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "a", all[0].UserName)
		assert.Equal(t, "b", all[1].UserName)
	})

	t.Run("Failure - redis errors are wrapped", func(t *testing.T) {
		rdb := newFakeBasketRedis()
		rdb.err = errors.New("connection refused")
		repo := repository.NewRedisBasketRepository(rdb, time.Hour)

		_, err := repo.Get(ctx, "swn")
		assert.ErrorContains(t, err, "redis GET failed")

		_, err = repo.List(ctx)
		assert.ErrorContains(t, err, "redis SCAN failed")

		err = repo.Put(ctx, &models.Basket{UserName: "swn"})
		assert.ErrorContains(t, err, "redis SET failed")
	})
}
