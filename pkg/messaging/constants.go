package messaging

const (
	ExchangeName       = "weather_records"
	EnrichedRoutingKey = "records.enriched"
	ContentTypeJSON    = "application/json"
	RecordCountHeader  = "x-record-count"
)
