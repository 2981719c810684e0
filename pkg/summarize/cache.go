package summarize

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/unicode/norm"

	"github.com/otherjamesbrown/minutes/pkg/logging"
	"github.com/otherjamesbrown/minutes/pkg/observability"
)

// DefaultCacheTTL is how long cached summaries live.
const DefaultCacheTTL = 30 * 24 * time.Hour

// Store is the subset of a key-value store the cache needs. Get returns
// ErrCacheMiss for absent keys.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// ErrCacheMiss is returned by a Store for keys it does not hold.
var ErrCacheMiss = errors.New("cache miss")

// RedisStore is a Store backed by Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// ConnectRedis opens a client for addr and checks it answers PING.
func ConnectRedis(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("testing redis connection: %w", err)
	}
	return client, nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return v, err
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// CachedSummarizer serves repeated summaries from a Store. Store failures are
// logged and fall through to the wrapped Summarizer; they never fail a call.
type CachedSummarizer struct {
	next    Summarizer
	store   Store
	model   string
	ttl     time.Duration
	logger  logging.Logger
	metrics *observability.Metrics
}

// CacheOption configures a CachedSummarizer.
type CacheOption func(*CachedSummarizer)

// WithCacheLogger sets the logger for bypassed store errors.
func WithCacheLogger(l logging.Logger) CacheOption {
	return func(c *CachedSummarizer) { c.logger = l }
}

// WithCacheMetrics records hits, misses and errors on m.
func WithCacheMetrics(m *observability.Metrics) CacheOption {
	return func(c *CachedSummarizer) { c.metrics = m }
}

// NewCachedSummarizer wraps next. model is part of the cache key so switching
// models does not serve stale summaries.
func NewCachedSummarizer(next Summarizer, store Store, model string, ttl time.Duration, opts ...CacheOption) *CachedSummarizer {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &CachedSummarizer{
		next:   next,
		store:  store,
		model:  model,
		ttl:    ttl,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Summarize implements Summarizer.
func (c *CachedSummarizer) Summarize(ctx context.Context, text string, maxLength, minLength int) (string, error) {
	key := CacheKey(c.model, text, maxLength, minLength)

	cached, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		c.metrics.RecordCacheLookup(observability.CacheHit)
		return cached, nil
	case errors.Is(err, ErrCacheMiss):
		c.metrics.RecordCacheLookup(observability.CacheMiss)
	default:
		c.metrics.RecordCacheLookup(observability.CacheError)
		c.logger.Warn("summary cache read failed", logging.F("key", key), logging.Err(err))
	}

	summary, err := c.next.Summarize(ctx, text, maxLength, minLength)
	if err != nil {
		return "", err
	}

	if err := c.store.Set(ctx, key, summary, c.ttl); err != nil {
		c.logger.Warn("summary cache write failed", logging.F("key", key), logging.Err(err))
	}
	return summary, nil
}

// CacheKey returns minutes:summary:<model>:<max>:<min>:<xxhash of NFC text>.
func CacheKey(model, text string, maxLength, minLength int) string {
	sum := xxhash.Sum64(norm.NFC.Bytes([]byte(text)))
	return "minutes:summary:" + model + ":" + strconv.Itoa(maxLength) + ":" + strconv.Itoa(minLength) + ":" + strconv.FormatUint(sum, 16)
}
