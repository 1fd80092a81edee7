// Package enrich derives categorical labels from observation records.
//
// Every bucket is a half-open range closed on its lower bound, so a value on a
// threshold belongs to the upper bucket: 18.0 is moderate and 25.0 is hot.
package enrich

import (
	"math"
	"strings"

	"github.com/Nazarious-ucu/weather-ingestion/internal/models"
)

const (
	ModerateFrom = 18.0
	HotFrom      = 25.0
	WindyFrom    = 10.0

	maxHumidity = 100
)

func TemperatureCategory(celsius float64) models.TemperatureCategory {
	switch {
	case celsius < ModerateFrom:
		return models.TemperatureCold
	case celsius < HotFrom:
		return models.TemperatureModerate
	default:
		return models.TemperatureHot
	}
}

func WindCategory(speed float64) models.WindCategory {
	if speed < WindyFrom {
		return models.WindCalm
	}
	return models.WindWindy
}

// Enrich labels every record. The batch is rejected as a whole if it is empty
// or if any record has a non-finite temperature or wind speed.
func Enrich(records []models.ObservationRecord) ([]models.EnrichedRecord, error) {
	if len(records) == 0 {
		return nil, models.ErrEmptyBatch
	}

	for i, r := range records {
		if !finite(r.Temperature) {
			return nil, &models.ValidationError{Index: i, Field: "temperature", Reason: "is not a finite number"}
		}
		if !finite(r.WindSpeed) {
			return nil, &models.ValidationError{Index: i, Field: "wind_speed", Reason: "is not a finite number"}
		}
	}

	out := make([]models.EnrichedRecord, len(records))
	for i, r := range records {
		out[i] = models.EnrichedRecord{
			Timestamp:           r.Timestamp.UTC().Format(models.TimestampLayout),
			LocationName:        r.LocationName,
			Country:             r.Country,
			Latitude:            r.Latitude,
			Longitude:           r.Longitude,
			Temperature:         r.Temperature,
			WindSpeed:           r.WindSpeed,
			Humidity:            r.Humidity,
			TemperatureCategory: TemperatureCategory(r.Temperature),
			WindCategory:        WindCategory(r.WindSpeed),
		}
	}
	return out, nil
}

// EnrichPayloads validates inbound payloads and enriches them. Any missing or
// out-of-range field rejects the whole batch.
func EnrichPayloads(payloads []models.ObservationPayload) ([]models.EnrichedRecord, error) {
	if len(payloads) == 0 {
		return nil, models.ErrEmptyBatch
	}

	records := make([]models.ObservationRecord, len(payloads))
	for i, p := range payloads {
		r, err := toRecord(i, p)
		if err != nil {
			return nil, err
		}
		records[i] = r
	}
	return Enrich(records)
}

func toRecord(i int, p models.ObservationPayload) (models.ObservationRecord, error) {
	missing := func(field string) error {
		return &models.ValidationError{Index: i, Field: field, Reason: "is required"}
	}

	switch {
	case p.Timestamp == nil:
		return models.ObservationRecord{}, missing("timestamp")
	case p.LocationName == nil || strings.TrimSpace(*p.LocationName) == "":
		return models.ObservationRecord{}, missing("location_name")
	case p.Country == nil:
		return models.ObservationRecord{}, missing("country")
	case p.Latitude == nil:
		return models.ObservationRecord{}, missing("latitude")
	case p.Longitude == nil:
		return models.ObservationRecord{}, missing("longitude")
	case p.Temperature == nil:
		return models.ObservationRecord{}, missing("temperature")
	case p.WindSpeed == nil:
		return models.ObservationRecord{}, missing("wind_speed")
	case p.Humidity == nil:
		return models.ObservationRecord{}, missing("humidity")
	}

	if *p.Humidity < 0 || *p.Humidity > maxHumidity {
		return models.ObservationRecord{}, &models.ValidationError{
			Index: i, Field: "humidity", Reason: "must be between 0 and 100",
		}
	}

	return models.ObservationRecord{
		Timestamp:    p.Timestamp.Time,
		LocationName: *p.LocationName,
		Country:      *p.Country,
		Latitude:     *p.Latitude,
		Longitude:    *p.Longitude,
		Temperature:  *p.Temperature,
		WindSpeed:    *p.WindSpeed,
		Humidity:     *p.Humidity,
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
