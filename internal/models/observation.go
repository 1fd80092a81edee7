package models

import "time"

// TimestampLayout is the canonical string form of an observation instant.
const TimestampLayout = time.RFC3339Nano

type TemperatureCategory string

const (
	TemperatureCold     TemperatureCategory = "cold"
	TemperatureModerate TemperatureCategory = "moderate"
	TemperatureHot      TemperatureCategory = "hot"
)

type WindCategory string

const (
	WindCalm  WindCategory = "calm"
	WindWindy WindCategory = "windy"
)

// TimeRange is the half-open window [Start, End) of hourly observations.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// HourlyWindow returns the window from pastHours before the hour containing now
// up to futureHours after it, in UTC.
func HourlyWindow(now time.Time, pastHours, futureHours int) TimeRange {
	hour := now.UTC().Truncate(time.Hour)
	return TimeRange{
		Start: hour.Add(-time.Duration(pastHours) * time.Hour),
		End:   hour.Add(time.Duration(futureHours+1) * time.Hour),
	}
}

func (r TimeRange) Empty() bool {
	return !r.End.After(r.Start)
}

func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

type ObservationRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	LocationName string    `json:"location_name"`
	Country      string    `json:"country"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Temperature  float64   `json:"temperature"`
	WindSpeed    float64   `json:"wind_speed"`
	Humidity     int       `json:"humidity"`
}

// ObservationPayload is the inbound form of an ObservationRecord. Every field is
// optional so that missing values can be told apart from zero values.
type ObservationPayload struct {
	Timestamp    *Timestamp `json:"timestamp"`
	LocationName *string    `json:"location_name"`
	Country      *string    `json:"country"`
	Latitude     *float64   `json:"latitude"`
	Longitude    *float64   `json:"longitude"`
	Temperature  *float64   `json:"temperature"`
	WindSpeed    *float64   `json:"wind_speed"`
	Humidity     *int       `json:"humidity"`
}

type EnrichedRecord struct {
	Timestamp           string              `json:"timestamp"`
	LocationName        string              `json:"location_name"`
	Country             string              `json:"country"`
	Latitude            float64             `json:"latitude"`
	Longitude           float64             `json:"longitude"`
	Temperature         float64             `json:"temperature"`
	WindSpeed           float64             `json:"wind_speed"`
	Humidity            int                 `json:"humidity"`
	TemperatureCategory TemperatureCategory `json:"temperature_category"`
	WindCategory        WindCategory        `json:"wind_category"`
}

// Observation strips the derived fields and parses the timestamp back.
func (r EnrichedRecord) Observation() (ObservationRecord, error) {
	ts, err := time.Parse(TimestampLayout, r.Timestamp)
	if err != nil {
		return ObservationRecord{}, err
	}
	return ObservationRecord{
		Timestamp:    ts,
		LocationName: r.LocationName,
		Country:      r.Country,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		Temperature:  r.Temperature,
		WindSpeed:    r.WindSpeed,
		Humidity:     r.Humidity,
	}, nil
}

type FailureReason string

const (
	ReasonNotFound     FailureReason = "not_found"
	ReasonResolveError FailureReason = "resolve_error"
	ReasonFetchError   FailureReason = "fetch_error"
	ReasonCancelled    FailureReason = "cancelled"
)

// LocationFailure describes why one requested location produced no records.
type LocationFailure struct {
	Index    int           `json:"index"`
	Location string        `json:"location"`
	Reason   FailureReason `json:"reason"`
	Error    string        `json:"error"`
}

type IngestResult struct {
	Records  []ObservationRecord
	Failures []LocationFailure
}
