package augmentretrieval

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"asha-assistant/internal/common/cache"
	"asha-assistant/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix namespaces retrieval entries in Redis.
const RedisKeyPrefix = "asha:retrieval:"

// Cache stores retrieval results by normalized query. Misses and backend errors both
// report false.
type Cache interface {
	Get(ctx context.Context, key string) (*models.RetrievalResult, bool)
	Set(ctx context.Context, key string, result *models.RetrievalResult)
}

// NormalizeQuery is the cache key of a query.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// MemoryCache is a bounded in-process cache with TTL.
type MemoryCache struct {
	entries *cache.Bounded[string, models.RetrievalResult]
}

func NewMemoryCache(capacity int, ttl time.Duration, opts ...cache.Option) *MemoryCache {
	return &MemoryCache{entries: cache.New[string, models.RetrievalResult](capacity, ttl, opts...)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*models.RetrievalResult, bool) {
	r, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	return clone(&r), true
}

func (c *MemoryCache) Set(_ context.Context, key string, result *models.RetrievalResult) {
	if result == nil {
		return
	}
	c.entries.Set(key, *clone(result))
}

func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

// RedisCache stores results as JSON under asha:retrieval:<key>.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger Logger
}

func NewRedisCache(client redis.Cmdable, ttl time.Duration, log Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: log}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*models.RetrievalResult, bool) {
	cached, err := c.client.Get(ctx, RedisKeyPrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("retrieval cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return nil, false
	}

	var result models.RetrievalResult
	if err := json.Unmarshal([]byte(cached), &result); err != nil {
		c.logger.Warn("retrieval cache entry is corrupt", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil, false
	}
	return &result, true
}

func (c *RedisCache) Set(ctx context.Context, key string, result *models.RetrievalResult) {
	if result == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, RedisKeyPrefix+key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("retrieval cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func clone(r *models.RetrievalResult) *models.RetrievalResult {
	out := &models.RetrievalResult{
		Statistics: append([]models.Statistic(nil), r.Statistics...),
		Resources:  append([]models.Resource(nil), r.Resources...),
		FetchedAt:  r.FetchedAt,
	}
	if r.Metrics != nil {
		m := *r.Metrics
		out.Metrics = &m
	}
	return out
}
