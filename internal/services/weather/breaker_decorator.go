package weather

import (
	"context"
	"errors"

	"github.com/Nazarious-ucu/weather-ingestion/internal/models"
	"github.com/Nazarious-ucu/weather-ingestion/internal/services/breaker"
)

type BreakerClient struct {
	cb      *breaker.Breaker
	wrapped fetcher
}

func NewBreakerClient(name string, cfg breaker.Config, wrapped fetcher) *BreakerClient {
	return &BreakerClient{cb: breaker.New(name, cfg, nil), wrapped: wrapped}
}

func (b *BreakerClient) Fetch(
	ctx context.Context,
	loc models.GeocodedLocation,
	window models.TimeRange,
) ([]models.ObservationRecord, error) {
	records, err := breaker.Execute(ctx, b.cb, func() ([]models.ObservationRecord, error) {
		return b.wrapped.Fetch(ctx, loc, window)
	})
	if err != nil {
		var fetchErr *models.FetchError
		if errors.As(err, &fetchErr) {
			return nil, err
		}
		return nil, &models.FetchError{Location: loc.Name, Err: err}
	}
	return records, nil
}
