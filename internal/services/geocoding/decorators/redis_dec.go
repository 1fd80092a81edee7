package decorators

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/weather-ingestion/internal/models"
)

type resolver interface {
	Resolve(ctx context.Context, name string) (models.GeocodedLocation, error)
}

type cacheClient[T any] interface {
	Set(ctx context.Context, key string, value T) error
	Get(ctx context.Context, key string) (T, error)
}

// CachedResolver serves repeated lookups from cache. Cache failures fall back to
// the provider, and a refresh request skips the read but still stores the answer.
type CachedResolver struct {
	inner  resolver
	cache  cacheClient[models.GeocodedLocation]
	logger zerolog.Logger
}

func NewCachedResolver(
	inner resolver,
	cache cacheClient[models.GeocodedLocation],
	logger zerolog.Logger,
) *CachedResolver {
	return &CachedResolver{inner: inner, cache: cache, logger: logger}
}

func CacheKey(name string) string {
	return "geocode:" + strings.ToLower(strings.TrimSpace(name))
}

func (s *CachedResolver) Resolve(ctx context.Context, name string) (models.GeocodedLocation, error) {
	key := CacheKey(name)

	if !models.RefreshRequested(ctx) {
		loc, err := s.cache.Get(ctx, key)
		if err == nil {
			s.logger.Debug().
				Ctx(ctx).
				Str("location", name).
				Str("key", key).
				Msg("cache hit")
			return loc, nil
		}
		s.logger.Debug().
			Ctx(ctx).
			Str("location", name).
			Str("key", key).
			Err(err).
			Msg("cache miss")
	}

	loc, err := s.inner.Resolve(ctx, name)
	if err != nil {
		return models.GeocodedLocation{}, err
	}

	if err := s.cache.Set(ctx, key, loc); err != nil {
		s.logger.Error().
			Ctx(ctx).
			Str("location", name).
			Str("key", key).
			Err(err).
			Msg("cache set failed")
	}

	return loc, nil
}
