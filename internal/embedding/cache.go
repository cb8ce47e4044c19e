package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"embedding-backfill/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// CachedEmbedder keeps vectors in Redis keyed by model and text hash.
// Project configurations often share the same descriptive text, so a cache
// hit saves an inference call. Redis failures never fail an Embed call.
type CachedEmbedder struct {
	inner  Embedder
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCached(inner Embedder, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedEmbedder {
	return &CachedEmbedder{
		inner:  inner,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "embedding-cache"}),
	}
}

func (c *CachedEmbedder) Dimension() int { return c.inner.Dimension() }
func (c *CachedEmbedder) Model() string  { return c.inner.Model() }
func (c *CachedEmbedder) Provider() string {
	return providerName(c.inner)
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := CacheKey(c.inner.Model(), text)

	if vec, ok := c.lookup(ctx, key); ok {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(vec)
	if err != nil {
		return vec, nil
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("embedding cache write failed", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}
	return vec, nil
}

func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	val, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("embedding cache read failed", map[string]interface{}{
				"key":   key,
				"error": err,
			})
		}
		return nil, false
	}

	var vec []float32
	if err := json.Unmarshal(val, &vec); err != nil || len(vec) != c.inner.Dimension() {
		c.logger.Warn("discarding malformed cached embedding", map[string]interface{}{
			"key": key,
		})
		return nil, false
	}
	return vec, true
}

// CacheKey is embedding:<model>:<sha256(text)>.
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "embedding:" + model + ":" + hex.EncodeToString(sum[:])
}
