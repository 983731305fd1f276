package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	appErrors "github.com/noah-isme/arxiv-channels/pkg/errors"
)

// DefaultMemoryCacheSize bounds the in-process cache when no size is configured.
const DefaultMemoryCacheSize = 256

type memoryCacheItem struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryCacheRepository is an in-process LRU cache with per-entry expiry. Values are stored as JSON
// so callers observe the same copy semantics as with Redis.
type MemoryCacheRepository struct {
	items *lru.Cache[string, memoryCacheItem]
	now   func() time.Time
}

// NewMemoryCacheRepository constructs an LRU cache holding at most size entries.
func NewMemoryCacheRepository(size int) (*MemoryCacheRepository, error) {
	if size <= 0 {
		size = DefaultMemoryCacheSize
	}
	items, err := lru.New[string, memoryCacheItem](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &MemoryCacheRepository{items: items, now: time.Now}, nil
}

// Get retrieves and unmarshals the cached value into dest.
func (r *MemoryCacheRepository) Get(_ context.Context, key string, dest interface{}) error {
	item, ok := r.items.Get(key)
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if !item.expiresAt.IsZero() && !r.now().Before(item.expiresAt) {
		r.items.Remove(key)
		return appErrors.ErrCacheMiss
	}
	if err := json.Unmarshal(item.payload, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set stores value until ttl elapses. A non-positive ttl never expires.
func (r *MemoryCacheRepository) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	item := memoryCacheItem{payload: payload}
	if ttl > 0 {
		item.expiresAt = r.now().Add(ttl)
	}
	r.items.Add(key, item)
	return nil
}

// DeleteByPattern removes entries whose key matches a glob pattern.
func (r *MemoryCacheRepository) DeleteByPattern(_ context.Context, pattern string) error {
	for _, key := range r.items.Keys() {
		matched, err := path.Match(pattern, key)
		if err != nil {
			return fmt.Errorf("match pattern %s: %w", pattern, err)
		}
		if matched {
			r.items.Remove(key)
		}
	}
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (r *MemoryCacheRepository) Len() int {
	return r.items.Len()
}

// Ping reports whether ctx is still live; the in-process cache has no connection to lose.
func (r *MemoryCacheRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}
