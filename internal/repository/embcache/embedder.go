// Package embcache wraps an embedder with a store-backed result cache.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-cloud/chatdex/internal/db"
	"github.com/meridian-cloud/chatdex/internal/domain"
	"github.com/meridian-cloud/chatdex/internal/metrics"
)

const cacheKeyPrefix = domain.KeyPrefix + "emb_cache:"

type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder memoizes embedding results by content hash. Cache
// failures degrade to the inner embedder; they are never surfaced.
type CachedEmbedder struct {
	inner  domain.Embedder
	store  kvStore
	ttl    time.Duration
	logger *zap.Logger
}

func New(inner domain.Embedder, store kvStore, ttl time.Duration, logger *zap.Logger) *CachedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{inner: inner, store: store, ttl: ttl, logger: logger}
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := cacheKey(text)

	if cached, err := c.store.Get(ctx, key); err == nil {
		var res domain.EmbeddingResult
		if jsonErr := json.Unmarshal(cached, &res); jsonErr == nil {
			metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
			return res, nil
		}
		c.logger.Warn("corrupt embedding cache entry", zap.String("key", key))
	} else if !errors.Is(err, db.ErrKeyNotFound) {
		c.logger.Warn("embedding cache read failed", zap.Error(err))
	}

	metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()

	res, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}

	if payload, jsonErr := json.Marshal(res); jsonErr == nil {
		var setErr error
		if c.ttl > 0 {
			setErr = c.store.SetWithTTL(ctx, key, payload, c.ttl)
		} else {
			setErr = c.store.Set(ctx, key, payload)
		}
		if setErr != nil {
			c.logger.Warn("embedding cache write failed", zap.Error(setErr))
		}
	}
	return res, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
