package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/weather-ingestion/internal/models"
	"github.com/Nazarious-ucu/weather-ingestion/pkg/messaging"
)

const TransportHTTP = "http"

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPRelay posts enriched batches as a JSON array to a downstream endpoint.
type HTTPRelay struct {
	url     string
	timeout time.Duration
	client  HTTPClient
	logger  zerolog.Logger
}

func NewHTTPRelay(url string, timeout time.Duration, client HTTPClient, logger zerolog.Logger) *HTTPRelay {
	return &HTTPRelay{
		url:     url,
		timeout: timeout,
		client:  client,
		logger:  logger.With().Str("component", "HTTPRelay").Logger(),
	}
}

func (r *HTTPRelay) Transport() string {
	return TransportHTTP
}

func (r *HTTPRelay) Send(ctx context.Context, records []models.EnrichedRecord) error {
	body, err := json.Marshal(records)
	if err != nil {
		return &models.RelayError{Transport: TransportHTTP, Err: fmt.Errorf("marshal: %w", err)}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return &models.RelayError{Transport: TransportHTTP, Err: err}
	}
	req.Header.Set("Content-Type", messaging.ContentTypeJSON)

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error().
			Ctx(ctx).
			Str("url", r.url).
			Err(err).
			Msg("relay request failed")
		return &models.RelayError{Transport: TransportHTTP, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		if err := resp.Body.Close(); err != nil {
			r.logger.Error().Err(err).Msg("failed to close relay response body")
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		r.logger.Error().
			Ctx(ctx).
			Str("url", r.url).
			Int("status", resp.StatusCode).
			Msg("downstream rejected batch")
		return &models.RelayError{
			Transport:  TransportHTTP,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	r.logger.Info().
		Ctx(ctx).
		Int("records", len(records)).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("batch relayed")
	return nil
}
