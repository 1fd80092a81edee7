package geocoding

import (
	"context"
	"errors"

	"github.com/Nazarious-ucu/weather-ingestion/internal/models"
	"github.com/Nazarious-ucu/weather-ingestion/internal/services/breaker"
)

type resolver interface {
	Resolve(ctx context.Context, name string) (models.GeocodedLocation, error)
}

// BreakerClient guards a resolver with a circuit breaker. A missing match is a
// valid answer and never trips it.
type BreakerClient struct {
	cb      *breaker.Breaker
	wrapped resolver
}

func NewBreakerClient(name string, cfg breaker.Config, wrapped resolver) *BreakerClient {
	ignore := func(err error) bool { return errors.Is(err, models.ErrNotFound) }
	return &BreakerClient{cb: breaker.New(name, cfg, ignore), wrapped: wrapped}
}

func (b *BreakerClient) Resolve(ctx context.Context, name string) (models.GeocodedLocation, error) {
	loc, err := breaker.Execute(ctx, b.cb, func() (models.GeocodedLocation, error) {
		return b.wrapped.Resolve(ctx, name)
	})
	if err != nil && !errors.Is(err, models.ErrNotFound) && !errors.Is(err, models.ErrResolve) {
		return models.GeocodedLocation{}, errors.Join(models.ErrResolve, err)
	}
	return loc, err
}
