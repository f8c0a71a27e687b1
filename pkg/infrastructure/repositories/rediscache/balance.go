// Package rediscache decorates a BalanceSource with a short-TTL redis
// cache. The cache is a speed optimization only: every cache failure falls
// through to the wrapped source, so correctness never depends on redis
// being reachable and staleness is bounded by the TTL.
package rediscache

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/foodsys/ruptura/pkg/domain/entities"
	"github.com/foodsys/ruptura/pkg/domain/repositories"
)

// BalanceSource is a read-through cached view over another BalanceSource
type BalanceSource struct {
	inner  repositories.BalanceSource
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Verify interface compliance
var _ repositories.BalanceSource = (*BalanceSource)(nil)

// Option configures the cached source
type Option func(*BalanceSource)

// WithLogger sets the cache's logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *BalanceSource) { s.logger = logger }
}

// New wraps inner with a redis cache of the given TTL
func New(inner repositories.BalanceSource, client *redis.Client, ttl time.Duration, opts ...Option) *BalanceSource {
	s := &BalanceSource{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentBalance returns the cached balance for the alias group when
// present, otherwise reads through to the wrapped source and caches the
// result. Source errors are never cached.
func (s *BalanceSource) CurrentBalance(ctx context.Context, codes []entities.ProductCode) (entities.Quantity, error) {
	key := cacheKey(codes)

	if cached, err := s.client.Get(ctx, key).Result(); err == nil {
		if balance, parseErr := strconv.ParseFloat(cached, 64); parseErr == nil {
			return balance, nil
		}
	} else if err != redis.Nil {
		s.logger.WarnContext(ctx, "balance cache read failed", "key", key, "error", err)
	}

	balance, err := s.inner.CurrentBalance(ctx, codes)
	if err != nil {
		return 0, err
	}

	value := strconv.FormatFloat(balance, 'f', -1, 64)
	if err := s.client.Set(ctx, key, value, s.ttl).Err(); err != nil {
		s.logger.WarnContext(ctx, "balance cache write failed", "key", key, "error", err)
	}
	return balance, nil
}

// cacheKey is stable under alias group ordering
func cacheKey(codes []entities.ProductCode) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = string(c)
	}
	sort.Strings(parts)
	return "ruptura:balance:" + strings.Join(parts, ",")
}
