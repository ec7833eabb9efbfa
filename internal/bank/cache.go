package bank

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/prepdesk/exam-service/internal/parser"
)

const defaultCacheTTL = 5 * time.Minute

// Cache stores parsed question sequences keyed by exam id. A nil result with
// a nil error means "not cached".
type Cache interface {
	Get(ctx context.Context, examID string) ([]parser.Question, error)
	Set(ctx context.Context, examID string, questions []parser.Question) error
}

// RedisCache keeps parsed banks in Redis with a TTL, so multiple instances
// share parse work.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache wraps a Redis client. A non-positive ttl gets the default.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(examID string) string {
	return "bank:questions:" + examID
}

func (c *RedisCache) Get(ctx context.Context, examID string) ([]parser.Question, error) {
	data, err := c.client.Get(ctx, cacheKey(examID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var questions []parser.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (c *RedisCache) Set(ctx context.Context, examID string, questions []parser.Question) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(examID), data, c.ttl).Err()
}

// MemoryCache is the single-instance fallback used when Redis is not
// configured, and in tests.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	questions []parser.Question
	expires   time.Time
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates an in-process cache with the given TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &MemoryCache{ttl: ttl, entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, examID string) ([]parser.Question, error) {
	c.mu.RLock()
	entry, ok := c.entries[examID]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expires) {
		return nil, nil
	}
	return entry.questions, nil
}

func (c *MemoryCache) Set(_ context.Context, examID string, questions []parser.Question) error {
	c.mu.Lock()
	c.entries[examID] = memoryEntry{questions: questions, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}
