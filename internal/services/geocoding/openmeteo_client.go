package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/weather-ingestion/internal/models"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type searchResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Country   string  `json:"country"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type Options struct {
	Language    string
	ResultCount int
	Timeout     time.Duration
}

// ClientOpenMeteo resolves place names with the Open-Meteo geocoding API.
type ClientOpenMeteo struct {
	apiURL string
	opts   Options
	client HTTPClient
	logger zerolog.Logger
}

func NewClientOpenMeteo(apiURL string, opts Options, httpClient HTTPClient, logger zerolog.Logger) *ClientOpenMeteo {
	if opts.ResultCount < 1 {
		opts.ResultCount = 1
	}
	return &ClientOpenMeteo{apiURL: apiURL, opts: opts, client: httpClient, logger: logger}
}

// Resolve returns the provider's highest-ranked match for name. Results come back
// ordered by relevance, so the first entry always wins.
func (c *ClientOpenMeteo) Resolve(ctx context.Context, name string) (models.GeocodedLocation, error) {
	start := time.Now()

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	q := url.Values{}
	q.Set("name", name)
	q.Set("count", strconv.Itoa(c.opts.ResultCount))
	q.Set("format", "json")
	if c.opts.Language != "" {
		q.Set("language", c.opts.Language)
	}
	reqURL := c.apiURL + "?" + q.Encode()

	c.logger.Debug().
		Ctx(ctx).
		Str("location", name).
		Str("url", reqURL).
		Msg("starting geocoding request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.GeocodedLocation{}, fmt.Errorf("%w: build request: %w", models.ErrResolve, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error().
			Ctx(ctx).
			Err(err).
			Str("location", name).
			Msg("error sending geocoding request")
		return models.GeocodedLocation{}, fmt.Errorf("%w: %w", models.ErrResolve, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Error().
				Ctx(ctx).
				Err(cerr).
				Str("location", name).
				Msg("failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error().
			Ctx(ctx).
			Str("location", name).
			Int("status_code", resp.StatusCode).
			Msg("geocoding API returned non-200 status")
		return models.GeocodedLocation{}, fmt.Errorf("%w: status %s", models.ErrResolve, resp.Status)
	}

	var raw searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		c.logger.Error().
			Ctx(ctx).
			Err(err).
			Str("location", name).
			Msg("failed to decode geocoding response")
		return models.GeocodedLocation{}, fmt.Errorf("%w: decode: %w", models.ErrResolve, err)
	}

	if len(raw.Results) == 0 {
		c.logger.Info().
			Ctx(ctx).
			Str("location", name).
			Msg("no geocoding match")
		return models.GeocodedLocation{}, fmt.Errorf("%q: %w", name, models.ErrNotFound)
	}

	best := raw.Results[0]
	loc := models.GeocodedLocation{
		Name:      best.Name,
		Country:   best.Country,
		Latitude:  best.Latitude,
		Longitude: best.Longitude,
	}

	c.logger.Info().
		Ctx(ctx).
		Str("location", name).
		Str("resolved", loc.Name).
		Str("country", loc.Country).
		Dur("duration_ms", time.Since(start)).
		Msg("resolved location")

	return loc, nil
}
