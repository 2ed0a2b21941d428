package services

import (
	"context"
	"math"
	"time"

	"github.com/jaimytreling/AlgoMart/internal/apperr"
	"github.com/jaimytreling/AlgoMart/internal/cache"

	"github.com/rs/zerolog/log"
)

// CurrencyService converts offered amounts into the marketplace base
// currency. Rates are snapshot-cached: all comparisons within the cache TTL
// use the same rate.
type CurrencyService struct {
	rates    rateSource
	cache    *cache.RedisCache
	base     string
	cacheTTL time.Duration
}

// NewCurrencyService creates a new currency service
func NewCurrencyService(rates rateSource, redisCache *cache.RedisCache, base string, cacheTTL time.Duration) *CurrencyService {
	return &CurrencyService{
		rates:    rates,
		cache:    redisCache,
		base:     base,
		cacheTTL: cacheTTL,
	}
}

// Base returns the configured base currency code
func (s *CurrencyService) Base() string {
	return s.base
}

// Convert converts an amount in the source currency's smallest unit into the
// base currency's smallest unit, rounded to the nearest unit.
func (s *CurrencyService) Convert(ctx context.Context, amount int64, source string) (int64, error) {
	if source == "" || source == s.base {
		return amount, nil
	}

	rate, err := s.getRate(ctx, source)
	if err != nil {
		return 0, apperr.ExternalAdapter(err, "failed to fetch exchange rate")
	}

	return int64(math.Round(float64(amount) * rate)), nil
}

func (s *CurrencyService) getRate(ctx context.Context, source string) (float64, error) {
	key := "exchange:" + source + "-" + s.base

	if s.cache.Enabled() {
		var cached float64
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	rate, err := s.rates.GetRate(ctx, source, s.base)
	if err != nil {
		return 0, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, rate, s.cacheTTL); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to cache exchange rate")
		}
	}
	return rate, nil
}
