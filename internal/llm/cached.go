package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"go.uber.org/zap"
)

const cacheKeyPrefix = "grievance:oracle:"

// Cache is the subset of the cache service the oracle needs.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CachedOracle memoises successful answers keyed by normalised petition text.
type CachedOracle struct {
	next   Oracle
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedOracle wraps next. A nil cache disables memoisation.
func NewCachedOracle(next Oracle, cache Cache, ttl time.Duration, logger *zap.Logger) Oracle {
	if cache == nil {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedOracle{next: next, cache: cache, ttl: ttl, logger: logger}
}

// Suggest returns a cached answer when present, otherwise asks the wrapped oracle.
func (o *CachedOracle) Suggest(ctx context.Context, text string, departments []string) (string, error) {
	key := CacheKey(text)
	var cached string
	if hit, err := o.cache.Get(ctx, key, &cached); err == nil && hit && cached != "" {
		return cached, nil
	}

	answer, err := o.next.Suggest(ctx, text, departments)
	if err != nil {
		return "", err
	}
	if err := o.cache.Set(ctx, key, answer, o.ttl); err != nil {
		o.logger.Debug("oracle cache write skipped", zap.Error(err))
	}
	return answer, nil
}

// CacheKey derives the cache key for a petition.
func CacheKey(text string) string {
	normalised := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := sha256.Sum256([]byte(normalised))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
