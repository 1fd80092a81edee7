package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/weather-ingestion/internal/models"
)

const (
	hourLayout      = "2006-01-02T15:04"
	hourlyVariables = "temperature_2m,relative_humidity_2m,wind_speed_10m"
)

var (
	errSeriesLength = errors.New("hourly series have different lengths")
	errMissingValue = errors.New("hourly series contains a null value")
)

type forecastResponse struct {
	Hourly struct {
		Time        []string   `json:"time"`
		Temperature []*float64 `json:"temperature_2m"`
		Humidity    []*float64 `json:"relative_humidity_2m"`
		WindSpeed   []*float64 `json:"wind_speed_10m"`
	} `json:"hourly"`
}

// ClientOpenMeteo fetches hourly series from the Open-Meteo forecast API.
// Units are requested as °C and km/h, which are the record units, so values
// are passed through unconverted.
type ClientOpenMeteo struct {
	apiURL  string
	timeout time.Duration
	client  HTTPClient
	logger  zerolog.Logger
}

func NewClientOpenMeteo(apiURL string, timeout time.Duration, httpClient HTTPClient, logger zerolog.Logger) *ClientOpenMeteo {
	return &ClientOpenMeteo{apiURL: apiURL, timeout: timeout, client: httpClient, logger: logger}
}

func (c *ClientOpenMeteo) Fetch(
	ctx context.Context,
	loc models.GeocodedLocation,
	window models.TimeRange,
) ([]models.ObservationRecord, error) {
	if window.Empty() {
		return []models.ObservationRecord{}, nil
	}
	start := time.Now()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	fail := func(err error) ([]models.ObservationRecord, error) {
		return nil, &models.FetchError{Location: loc.Name, Err: err}
	}

	reqURL := c.apiURL + "?" + c.query(loc, window).Encode()

	c.logger.Debug().
		Ctx(ctx).
		Str("location", loc.Name).
		Str("url", reqURL).
		Msg("starting forecast request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fail(err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error().
			Ctx(ctx).
			Err(err).
			Str("location", loc.Name).
			Msg("error sending forecast request")
		return fail(err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Error().
				Ctx(ctx).
				Err(cerr).
				Str("location", loc.Name).
				Msg("failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error().
			Ctx(ctx).
			Str("location", loc.Name).
			Int("status_code", resp.StatusCode).
			Msg("forecast API returned non-200 status")
		return fail(fmt.Errorf("forecast API error: status %s", resp.Status))
	}

	var raw forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		c.logger.Error().
			Ctx(ctx).
			Err(err).
			Str("location", loc.Name).
			Msg("failed to decode forecast response")
		return fail(err)
	}

	records, err := toRecords(loc, window, raw)
	if err != nil {
		c.logger.Error().
			Ctx(ctx).
			Err(err).
			Str("location", loc.Name).
			Msg("malformed forecast response")
		return fail(err)
	}

	c.logger.Info().
		Ctx(ctx).
		Str("location", loc.Name).
		Int("records", len(records)).
		Dur("duration_ms", time.Since(start)).
		Msg("successfully fetched hourly series")

	return records, nil
}

func (c *ClientOpenMeteo) query(loc models.GeocodedLocation, window models.TimeRange) url.Values {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	q.Set("hourly", hourlyVariables)
	q.Set("temperature_unit", "celsius")
	q.Set("wind_speed_unit", "kmh")
	q.Set("timezone", "GMT")
	q.Set("start_hour", window.Start.UTC().Format(hourLayout))
	// end_hour is inclusive on the provider side
	q.Set("end_hour", window.End.UTC().Add(-time.Hour).Format(hourLayout))
	return q
}

func toRecords(
	loc models.GeocodedLocation,
	window models.TimeRange,
	raw forecastResponse,
) ([]models.ObservationRecord, error) {
	h := raw.Hourly
	n := len(h.Time)
	if len(h.Temperature) != n || len(h.Humidity) != n || len(h.WindSpeed) != n {
		return nil, errSeriesLength
	}

	records := make([]models.ObservationRecord, 0, n)
	var prev time.Time
	for i := 0; i < n; i++ {
		ts, err := time.ParseInLocation(hourLayout, h.Time[i], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("hour %d: %w", i, err)
		}
		if !window.Contains(ts) {
			continue
		}
		if h.Temperature[i] == nil || h.Humidity[i] == nil || h.WindSpeed[i] == nil {
			return nil, fmt.Errorf("%s: %w", h.Time[i], errMissingValue)
		}
		if !prev.IsZero() && !ts.Equal(prev.Add(time.Hour)) {
			return nil, fmt.Errorf("%s: series is not hourly contiguous", h.Time[i])
		}
		prev = ts

		records = append(records, models.ObservationRecord{
			Timestamp:    ts,
			LocationName: loc.Name,
			Country:      loc.Country,
			Latitude:     loc.Latitude,
			Longitude:    loc.Longitude,
			Temperature:  *h.Temperature[i],
			WindSpeed:    *h.WindSpeed[i],
			Humidity:     int(math.Round(*h.Humidity[i])),
		})
	}
	return records, nil
}
