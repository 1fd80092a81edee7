// Package relay hands enriched batches to the downstream consumer. Delivery
// errors are always returned to the caller as *models.RelayError.
package relay

import (
	"context"

	"github.com/Nazarious-ucu/weather-ingestion/internal/models"
)

type Sender interface {
	Send(ctx context.Context, records []models.EnrichedRecord) error
	Transport() string
}

type outcomeRecorder interface {
	RecordRelay(transport, result string)
}

// MetricsRelay counts delivery outcomes per transport.
type MetricsRelay struct {
	next     Sender
	recorder outcomeRecorder
}

func NewMetricsRelay(next Sender, recorder outcomeRecorder) *MetricsRelay {
	return &MetricsRelay{next: next, recorder: recorder}
}

func (m *MetricsRelay) Transport() string {
	return m.next.Transport()
}

func (m *MetricsRelay) Send(ctx context.Context, records []models.EnrichedRecord) error {
	err := m.next.Send(ctx, records)
	if err != nil {
		m.recorder.RecordRelay(m.next.Transport(), "error")
		return err
	}
	m.recorder.RecordRelay(m.next.Transport(), "ok")
	return nil
}
