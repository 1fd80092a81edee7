package weather

import (
	"context"
	"net/http"

	"github.com/Nazarious-ucu/weather-ingestion/internal/models"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type fetcher interface {
	Fetch(ctx context.Context, loc models.GeocodedLocation, window models.TimeRange) ([]models.ObservationRecord, error)
}
