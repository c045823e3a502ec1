package cache

import (
	"context"
	"errors"
	"time"

	"shop-backend/internal/config"

	"github.com/go-redis/cache/v8"
	"github.com/go-redis/redis/v8"
)

var ErrCacheMiss = errors.New("cache: key is missing")

// Cacher is a small key/value cache with per-item TTL.
type Cacher interface {
	Get(ctx context.Context, key string, value interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NewCacher returns a Redis backed cacher with a local TinyLFU tier, or a
// no-op cacher when no Redis address is configured.
func NewCacher(cfg *config.Config) (Cacher, func() error, error) {
	if cfg.RedisAddr == "" {
		return NewNoop(), func() error { return nil }, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	return NewRedisCacher(rdb, 1000, time.Minute), rdb.Close, nil
}

type redisCacher struct {
	c *cache.Cache
}

func NewRedisCacher(rdb *redis.Client, localSize int, localTTL time.Duration) Cacher {
	opts := &cache.Options{Redis: rdb}
	if localSize > 0 {
		opts.LocalCache = cache.NewTinyLFU(localSize, localTTL)
	}
	return &redisCacher{c: cache.New(opts)}
}

func (r *redisCacher) Get(ctx context.Context, key string, value interface{}) error {
	err := r.c.Get(ctx, key, value)
	if errors.Is(err, cache.ErrCacheMiss) {
		return ErrCacheMiss
	}
	return err
}

func (r *redisCacher) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return r.c.Set(&cache.Item{
		Ctx:   ctx,
		Key:   key,
		Value: value,
		TTL:   ttl,
	})
}

func (r *redisCacher) Delete(ctx context.Context, key string) error {
	err := r.c.Delete(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil
	}
	return err
}

type noop struct{}

func NewNoop() Cacher { return noop{} }

func (noop) Get(context.Context, string, interface{}) error               { return ErrCacheMiss }
func (noop) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (noop) Delete(context.Context, string) error                         { return nil }
