// Package redis caches fetched bar series and fans simulated ticks out over
// Redis pub/sub. Every call runs through a CircuitBreaker so a failing Redis
// degrades to cache misses instead of stalling requests.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"chartengine/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const defaultTTL = 5 * time.Minute

// ErrCacheMiss is returned by GetBars when no series is cached.
var ErrCacheMiss = errors.New("redis: cache miss")

// CacheConfig configures the Redis cache.
type CacheConfig struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // bar series expiry; default 5m

	MaxFailures  int           // breaker threshold; default 5
	ResetTimeout time.Duration // breaker cool-down; default 10s
}

// Cache stores bar series as JSON strings and publishes ticks.
type Cache struct {
	client  *goredis.Client
	ttl     time.Duration
	breaker *CircuitBreaker
}

// New creates a Cache and pings the server.
func New(cfg CacheConfig) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return newCache(client, cfg), nil
}

func newCache(client *goredis.Client, cfg CacheConfig) *Cache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{
		client:  client,
		ttl:     ttl,
		breaker: NewCircuitBreaker(cfg.MaxFailures, cfg.ResetTimeout),
	}
}

// Client returns the underlying Redis client for health checks.
func (c *Cache) Client() *goredis.Client { return c.client }

// Breaker exposes the circuit breaker so callers can observe transitions.
func (c *Cache) Breaker() *CircuitBreaker { return c.breaker }

// BarsKey returns the cache key for a series: "bars:{tf}:{symbol}".
func BarsKey(symbol, timeframe string) string {
	return "bars:" + timeframe + ":" + symbol
}

// GetBars loads a cached series. A missing key yields ErrCacheMiss and does
// not count against the breaker.
func (c *Cache) GetBars(ctx context.Context, symbol, timeframe string) ([]model.Bar, error) {
	var raw string
	err := c.breaker.Execute(func() error {
		v, err := c.client.Get(ctx, BarsKey(symbol, timeframe)).Result()
		if err == goredis.Nil {
			return nil
		}
		raw = v
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", BarsKey(symbol, timeframe), err)
	}
	if raw == "" {
		return nil, ErrCacheMiss
	}

	var bars []model.Bar
	if err := json.Unmarshal([]byte(raw), &bars); err != nil {
		return nil, fmt.Errorf("decode %s: %w", BarsKey(symbol, timeframe), err)
	}
	return bars, nil
}

// PutBars stores a series with the configured TTL. Empty series are skipped.
func (c *Cache) PutBars(ctx context.Context, symbol, timeframe string, bars []model.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	data, err := json.Marshal(bars)
	if err != nil {
		return fmt.Errorf("encode bars: %w", err)
	}
	return c.breaker.Execute(func() error {
		return c.client.Set(ctx, BarsKey(symbol, timeframe), data, c.ttl).Err()
	})
}

// PublishTick publishes a tick on its "pub:tick:{symbol}" channel.
func (c *Cache) PublishTick(ctx context.Context, tick model.Tick) error {
	return c.breaker.Execute(func() error {
		return c.client.Publish(ctx, tick.Channel(), tick.JSON()).Err()
	})
}

// RunTicks publishes every tick from ch until ctx is cancelled or ch closes.
// Publish failures are logged once per breaker trip rather than per tick.
func (c *Cache) RunTicks(ctx context.Context, ch <-chan model.Tick) {
	for {
		select {
		case <-ctx.Done():
			return
		case tick, ok := <-ch:
			if !ok {
				return
			}
			err := c.PublishTick(ctx, tick)
			if err != nil && !errors.Is(err, ErrCircuitOpen) && ctx.Err() == nil {
				log.Printf("[redis] publish %s: %v", tick.Channel(), err)
			}
		}
	}
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
