// Package cache holds the query answer cache. A repeated question over
// the same document filter skips retrieval and completion entirely.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/adipk/ragdocs/internal/config"
	"github.com/adipk/ragdocs/internal/domain/docmodel"
	"github.com/adipk/ragdocs/pkg/logx"
	"github.com/redis/go-redis/v9"
)

type AnswerCache interface {
	Get(ctx context.Context, key string) (docmodel.QueryResult, bool)
	Put(ctx context.Context, key string, result docmodel.QueryResult) error
}

// Key derives the cache key from the question and its search scope. Two
// queries only share a key when both the question and the filter match,
// so a scoped answer never leaks into an unscoped query.
func Key(question string, documentIDs []string, topK int) string {
	ids := append([]string(nil), documentIDs...)
	sort.Strings(ids)
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", question, strings.Join(ids, ","), topK)))
	return "answer:" + hex.EncodeToString(sum[:])
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logx.Logger
}

// NewRedisCache connects and pings; an unreachable redis is reported as
// an error so the caller can fall back to the no-op cache.
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:                  addr,
		DB:                    config.RedisCacheDB,
		ContextTimeoutEnabled: true,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	c := &RedisCache{
		client: client,
		ttl:    config.AnswerCacheTTL,
		logger: logx.New("answer_cache"),
	}
	go func() {
		<-ctx.Done()
		if err := client.Close(); err != nil {
			c.logger.Error("Error closing redis client", "error", err)
		}
	}()
	return c, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (docmodel.QueryResult, bool) {
	var result docmodel.QueryResult
	raw, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return result, false
	}
	if err != nil {
		c.logger.Error("Cache lookup failed", "error", err)
		return result, false
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		c.logger.Error("Corrupt cache entry", "key", key, "error", err)
		return result, false
	}
	return result, true
}

func (c *RedisCache) Put(ctx context.Context, key string, result docmodel.QueryResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshalling cached answer: %w", err)
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// NoopCache stands in when redis is offline; every lookup misses.
type NoopCache struct{}

func (NoopCache) Get(ctx context.Context, key string) (docmodel.QueryResult, bool) {
	return docmodel.QueryResult{}, false
}

func (NoopCache) Put(ctx context.Context, key string, result docmodel.QueryResult) error {
	return nil
}
