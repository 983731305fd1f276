package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/arxiv-channels/pkg/config"
)

// KeyPrefix namespaces every key written by the query cache.
const KeyPrefix = "arxiv-channels:query:"

// NewRedis returns a configured Redis client after a successful ping.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}

	return client, nil
}

// QueryKey derives a fixed-length cache key from an upstream request URL.
func QueryKey(requestURL string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(requestURL)))
	return KeyPrefix + hex.EncodeToString(sum[:])
}
