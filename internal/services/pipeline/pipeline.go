package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/weather-ingestion/internal/models"
	"github.com/Nazarious-ucu/weather-ingestion/internal/services/enrich"
)

type ingester interface {
	Ingest(ctx context.Context, names []string) models.IngestResult
}

type sender interface {
	Send(ctx context.Context, records []models.EnrichedRecord) error
}

type enrichRecorder interface {
	RecordEnrich(result string)
}

// Result is what a run produced, even when a later stage failed.
type Result struct {
	Records  []models.EnrichedRecord
	Failures []models.LocationFailure
	Relayed  bool
}

type Pipeline struct {
	ingester ingester
	sender   sender
	recorder enrichRecorder
	logger   zerolog.Logger
}

func New(i ingester, s sender, recorder enrichRecorder, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		ingester: i,
		sender:   s,
		recorder: recorder,
		logger:   logger.With().Str("component", "Pipeline").Logger(),
	}
}

// Run ingests names, enriches the records and relays them. Locations that
// produced nothing skip enrichment and relay entirely.
func (p *Pipeline) Run(ctx context.Context, names []string) (Result, error) {
	start := time.Now()

	ingested := p.ingester.Ingest(ctx, names)
	result := Result{
		Records:  []models.EnrichedRecord{},
		Failures: ingested.Failures,
	}

	if len(ingested.Records) == 0 {
		p.logger.Warn().
			Ctx(ctx).
			Int("locations", len(names)).
			Int("failed", len(ingested.Failures)).
			Msg("no records ingested, nothing to relay")
		return result, nil
	}

	enriched, err := p.Enrich(ingested.Records)
	if err != nil {
		return result, fmt.Errorf("enrich: %w", err)
	}
	result.Records = enriched

	if err := p.sender.Send(ctx, enriched); err != nil {
		return result, fmt.Errorf("relay: %w", err)
	}
	result.Relayed = true

	p.logger.Info().
		Ctx(ctx).
		Int("records", len(enriched)).
		Int("failed", len(result.Failures)).
		Dur("duration", time.Since(start)).
		Msg("pipeline run finished")
	return result, nil
}

// Enrich runs the enrichment stage alone and counts its outcome.
func (p *Pipeline) Enrich(records []models.ObservationRecord) ([]models.EnrichedRecord, error) {
	return p.counted(enrich.Enrich(records))
}

// EnrichPayloads validates inbound payloads and enriches them.
func (p *Pipeline) EnrichPayloads(payloads []models.ObservationPayload) ([]models.EnrichedRecord, error) {
	return p.counted(enrich.EnrichPayloads(payloads))
}

func (p *Pipeline) counted(out []models.EnrichedRecord, err error) ([]models.EnrichedRecord, error) {
	if err != nil {
		p.recordEnrich("error")
		return nil, err
	}
	p.recordEnrich("ok")
	return out, nil
}

func (p *Pipeline) recordEnrich(result string) {
	if p.recorder != nil {
		p.recorder.RecordEnrich(result)
	}
}
