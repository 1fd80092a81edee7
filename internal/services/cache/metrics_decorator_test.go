//go:build unit

package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Nazarious-ucu/weather-ingestion/internal/models"
	"github.com/Nazarious-ucu/weather-ingestion/internal/services/cache"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Set(ctx context.Context, key string, value models.GeocodedLocation) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *mockCache) Get(ctx context.Context, key string) (models.GeocodedLocation, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(models.GeocodedLocation), args.Error(1)
}

type mockCollector struct {
	mock.Mock
}

func (m *mockCollector) ObserveLatency(operation string, duration time.Duration) {
	m.Called(operation, duration)
}

func (m *mockCollector) IncrementCounter(metric string, labels ...string) {
	m.Called(metric, labels)
}

func TestMetricsDecorator_Get(t *testing.T) {
	loc := models.GeocodedLocation{Name: "Lviv", Country: "Ukraine"}

	tests := []struct {
		name    string
		value   models.GeocodedLocation
		err     error
		outcome string
	}{
		{name: "hit", value: loc, outcome: "hit"},
		{name: "miss", err: cache.ErrMiss, outcome: "miss"},
		{name: "backend error", err: errors.New("connection refused"), outcome: "error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next := &mockCache{}
			next.On("Get", mock.Anything, "geocode:lviv").Return(tc.value, tc.err)
			col := &mockCollector{}
			col.On("ObserveLatency", "get", mock.AnythingOfType("time.Duration")).Return()
			col.On("IncrementCounter", "get", []string{tc.outcome}).Return()

			got, err := cache.NewMetricsDecorator[models.GeocodedLocation](next, col).
				Get(context.Background(), "geocode:lviv")

			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, loc, got)
			}
			col.AssertExpectations(t)
		})
	}
}

func TestMetricsDecorator_Set(t *testing.T) {
	loc := models.GeocodedLocation{Name: "Lviv"}

	next := &mockCache{}
	next.On("Set", mock.Anything, "ok", loc).Return(nil)
	next.On("Set", mock.Anything, "bad", loc).Return(errors.New("oom"))
	col := &mockCollector{}
	col.On("ObserveLatency", "set", mock.AnythingOfType("time.Duration")).Return()
	col.On("IncrementCounter", "set", []string{"success"}).Return().Once()
	col.On("IncrementCounter", "set", []string{"error"}).Return().Once()

	dec := cache.NewMetricsDecorator[models.GeocodedLocation](next, col)
	require.NoError(t, dec.Set(context.Background(), "ok", loc))
	require.Error(t, dec.Set(context.Background(), "bad", loc))

	col.AssertExpectations(t)
}
