package web

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const pageCachePrefix = "releasewatch:page:"

// PageCache stores rendered fragments in Redis. Without an address, or when
// Redis is unreachable at startup, every call is a miss and nothing is stored.
type PageCache struct {
	client     *redis.Client
	ttl        time.Duration
	logger     zerolog.Logger
	warnedOnce atomic.Bool
}

// NewPageCache connects to Redis when cfg.Addr is set
func NewPageCache(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) *PageCache {
	cacheLogger := logger.With().Str("component", "PageCache").Logger()
	pc := &PageCache{
		ttl:    time.Duration(cfg.TTLSeconds) * time.Second,
		logger: cacheLogger,
	}
	if cfg.Addr == "" {
		cacheLogger.Debug().Msg("Redis address not configured, page cache disabled")
		return pc
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		cacheLogger.Warn().Err(err).Str("addr", cfg.Addr).Msg("Redis unavailable, page cache bypassed")
		_ = client.Close()
		return pc
	}

	cacheLogger.Info().Str("addr", cfg.Addr).Msg("Page cache connected")
	pc.client = client
	return pc
}

// Enabled reports whether a Redis connection is in use
func (p *PageCache) Enabled() bool {
	return p != nil && p.client != nil
}

// Get returns the cached value for key
func (p *PageCache) Get(ctx context.Context, key string) (string, bool) {
	if !p.Enabled() {
		return "", false
	}
	val, err := p.client.Get(ctx, pageCachePrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			p.warnUnavailable(err)
		}
		return "", false
	}
	return val, true
}

// Set stores value under key with the configured TTL
func (p *PageCache) Set(ctx context.Context, key, value string) {
	if !p.Enabled() {
		return
	}
	if err := p.client.Set(ctx, pageCachePrefix+key, value, p.ttl).Err(); err != nil {
		p.warnUnavailable(err)
	}
}

// Close releases the Redis connection
func (p *PageCache) Close() error {
	if !p.Enabled() {
		return nil
	}
	return p.client.Close()
}

func (p *PageCache) warnUnavailable(err error) {
	if p.warnedOnce.CompareAndSwap(false, true) {
		p.logger.Warn().Err(err).Msg("Page cache request failed, serving uncached")
	}
}
