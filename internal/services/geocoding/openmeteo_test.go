//go:build unit

package geocoding_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Nazarious-ucu/weather-ingestion/internal/models"
	"github.com/Nazarious-ucu/weather-ingestion/internal/services/breaker"
	"github.com/Nazarious-ucu/weather-ingestion/internal/services/geocoding"
)

type mockHTTPClient struct {
	mock.Mock
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	resp, ok := args.Get(0).(*http.Response)
	if !ok {
		return &http.Response{}, args.Error(1)
	}
	return resp, args.Error(1)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newClient(m *mockHTTPClient) *geocoding.ClientOpenMeteo {
	return geocoding.NewClientOpenMeteo("http://geo.test/v1/search",
		geocoding.Options{Language: "en", ResultCount: 3, Timeout: time.Second},
		m, zerolog.Nop())
}

func TestResolve_PicksFirstRankedResult(t *testing.T) {
	m := &mockHTTPClient{}
	m.On("Do", mock.MatchedBy(func(r *http.Request) bool {
		q := r.URL.Query()
		return q.Get("name") == "Paris" && q.Get("count") == "3" &&
			q.Get("language") == "en" && q.Get("format") == "json"
	})).Return(jsonResponse(http.StatusOK, `{
		"results": [
			{"name": "Paris", "country": "France", "latitude": 48.85341, "longitude": 2.3488},
			{"name": "Paris", "country": "United States", "latitude": 33.66094, "longitude": -95.55551}
		]
	}`), nil).Once()

	t.Cleanup(func() {
		m.AssertExpectations(t)
	})

	loc, err := newClient(m).Resolve(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, models.GeocodedLocation{
		Name: "Paris", Country: "France", Latitude: 48.85341, Longitude: 2.3488,
	}, loc)
}

func TestResolve_NoResults(t *testing.T) {
	m := &mockHTTPClient{}
	m.On("Do", mock.Anything).Return(jsonResponse(http.StatusOK, `{"generationtime_ms": 0.5}`), nil).Once()

	t.Cleanup(func() {
		m.AssertExpectations(t)
	})

	_, err := newClient(m).Resolve(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NotErrorIs(t, err, models.ErrResolve)
}

func TestResolve_ProviderErrors(t *testing.T) {
	testCases := []struct {
		name string
		resp *http.Response
		err  error
	}{
		{name: "server error", resp: jsonResponse(http.StatusInternalServerError, `{"error": true}`)},
		{name: "bad request", resp: jsonResponse(http.StatusBadRequest, `{"reason": "bad"}`)},
		{name: "malformed body", resp: jsonResponse(http.StatusOK, `{"results": [`)},
		{name: "transport", resp: nil, err: errors.New("connection refused")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := &mockHTTPClient{}
			m.On("Do", mock.Anything).Return(tc.resp, tc.err).Once()
			t.Cleanup(func() {
				m.AssertExpectations(t)
			})

			_, err := newClient(m).Resolve(context.Background(), "Paris")
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrResolve)
			assert.NotErrorIs(t, err, models.ErrNotFound)
		})
	}
}

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, name string) (models.GeocodedLocation, error) {
	args := m.Called(ctx, name)
	loc, ok := args.Get(0).(models.GeocodedLocation)
	if !ok {
		return models.GeocodedLocation{}, args.Error(1)
	}
	return loc, args.Error(1)
}

var breakerCfg = breaker.Config{
	TimeInterval: 30 * time.Second,
	TimeTimeOut:  15 * time.Second,
	RepeatNumber: 2,
}

func TestBreakerClient_NotFoundDoesNotTrip(t *testing.T) {
	wrapped := &mockResolver{}
	wrapped.On("Resolve", mock.Anything, "Atlantis").
		Return(models.GeocodedLocation{}, models.ErrNotFound).Times(4)

	bc := geocoding.NewBreakerClient("Geocoding", breakerCfg, wrapped)
	for i := 0; i < 4; i++ {
		_, err := bc.Resolve(context.Background(), "Atlantis")
		assert.ErrorIs(t, err, models.ErrNotFound)
	}

	wrapped.AssertExpectations(t)
}

func TestBreakerClient_TripsOnProviderErrors(t *testing.T) {
	wrapped := &mockResolver{}
	wrapped.On("Resolve", mock.Anything, "Paris").
		Return(models.GeocodedLocation{}, models.ErrResolve).Twice()

	bc := geocoding.NewBreakerClient("Geocoding", breakerCfg, wrapped)
	for i := 0; i < 2; i++ {
		_, err := bc.Resolve(context.Background(), "Paris")
		assert.ErrorIs(t, err, models.ErrResolve)
	}

	_, err := bc.Resolve(context.Background(), "Paris")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrResolve)
	assert.Contains(t, err.Error(), "circuit breaker is open")

	wrapped.AssertNumberOfCalls(t, "Resolve", 2)
}

func TestBreakerClient_CancelledCallsDoNotTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	paris := models.GeocodedLocation{Name: "Paris", Country: "France", Latitude: 48.85, Longitude: 2.35}
	wrapped := &mockResolver{}
	wrapped.On("Resolve", ctx, "Paris").
		Return(models.GeocodedLocation{}, errors.Join(models.ErrResolve, context.Canceled)).Times(5)
	wrapped.On("Resolve", context.Background(), "Paris").Return(paris, nil).Once()

	bc := geocoding.NewBreakerClient("Geocoding", breakerCfg, wrapped)
	for i := 0; i < 5; i++ {
		_, err := bc.Resolve(ctx, "Paris")
		assert.ErrorIs(t, err, context.Canceled)
	}

	loc, err := bc.Resolve(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, paris, loc)

	wrapped.AssertExpectations(t)
}

func TestBreakerClient_ErrorsAfterCallerDoneDoNotTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	wrapped := &mockResolver{}
	wrapped.On("Resolve", ctx, "Paris").
		Return(models.GeocodedLocation{}, errors.New("read: connection reset")).Times(3)
	wrapped.On("Resolve", context.Background(), "Paris").
		Return(models.GeocodedLocation{Name: "Paris"}, nil).Once()

	bc := geocoding.NewBreakerClient("Geocoding", breakerCfg, wrapped)
	for i := 0; i < 3; i++ {
		_, err := bc.Resolve(ctx, "Paris")
		assert.ErrorIs(t, err, models.ErrResolve)
		assert.NotContains(t, err.Error(), "circuit breaker is open")
	}

	_, err := bc.Resolve(context.Background(), "Paris")
	require.NoError(t, err)

	wrapped.AssertExpectations(t)
}
