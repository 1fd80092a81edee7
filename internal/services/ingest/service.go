package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Nazarious-ucu/weather-ingestion/internal/models"
)

const defaultConcurrency = 4

type resolver interface {
	Resolve(ctx context.Context, name string) (models.GeocodedLocation, error)
}

type fetcher interface {
	Fetch(ctx context.Context, loc models.GeocodedLocation, window models.TimeRange) ([]models.ObservationRecord, error)
}

type outcomeRecorder interface {
	RecordLocation(result string)
	RecordRecords(n int)
}

type Options struct {
	Concurrency int
	PastHours   int
	FutureHours int
	// Timeout bounds one Ingest call; zero means the caller's context decides.
	Timeout time.Duration
}

type Service struct {
	resolver resolver
	fetcher  fetcher
	opts     Options
	logger   zerolog.Logger
	recorder outcomeRecorder
	now      func() time.Time
}

func NewService(r resolver, f fetcher, opts Options, logger zerolog.Logger, recorder outcomeRecorder) *Service {
	if opts.Concurrency < 1 {
		opts.Concurrency = defaultConcurrency
	}
	return &Service{
		resolver: r,
		fetcher:  f,
		opts:     opts,
		logger:   logger.With().Str("component", "Ingest").Logger(),
		recorder: recorder,
		now:      time.Now,
	}
}

// WithClock replaces the time source used to place the observation window.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type outcome struct {
	records []models.ObservationRecord
	failure *models.LocationFailure
}

// Ingest resolves and fetches every name independently. Failed locations are
// reported in the result and never stop the others; records keep input order.
func (s *Service) Ingest(ctx context.Context, names []string) models.IngestResult {
	start := time.Now()
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	window := models.HourlyWindow(s.now(), s.opts.PastHours, s.opts.FutureHours)
	outcomes := make([]outcome, len(names))

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, name := range names {
		g.Go(func() error {
			outcomes[i] = s.ingestOne(ctx, i, name, window)
			return nil
		})
	}
	_ = g.Wait()

	result := models.IngestResult{Records: []models.ObservationRecord{}}
	for _, o := range outcomes {
		if o.failure != nil {
			result.Failures = append(result.Failures, *o.failure)
			continue
		}
		result.Records = append(result.Records, o.records...)
	}

	if s.recorder != nil {
		s.recorder.RecordRecords(len(result.Records))
	}
	s.logger.Info().
		Ctx(ctx).
		Int("locations", len(names)).
		Int("failed", len(result.Failures)).
		Int("records", len(result.Records)).
		Dur("duration", time.Since(start)).
		Msg("ingestion finished")

	return result
}

func (s *Service) ingestOne(ctx context.Context, i int, name string, window models.TimeRange) outcome {
	fail := func(reason models.FailureReason, err error) outcome {
		s.logger.Warn().
			Ctx(ctx).
			Int("index", i).
			Str("location", name).
			Str("reason", string(reason)).
			Err(err).
			Msg("location skipped")
		s.record(string(reason))
		return outcome{failure: &models.LocationFailure{
			Index:    i,
			Location: name,
			Reason:   reason,
			Error:    err.Error(),
		}}
	}

	if err := ctx.Err(); err != nil {
		return fail(models.ReasonCancelled, err)
	}

	loc, err := s.resolver.Resolve(ctx, name)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return fail(models.ReasonCancelled, err)
		case errors.Is(err, models.ErrNotFound):
			return fail(models.ReasonNotFound, err)
		default:
			return fail(models.ReasonResolveError, err)
		}
	}

	records, err := s.fetcher.Fetch(ctx, loc, window)
	if err != nil {
		if ctx.Err() != nil {
			return fail(models.ReasonCancelled, err)
		}
		return fail(models.ReasonFetchError, err)
	}

	s.record("ok")
	return outcome{records: records}
}

func (s *Service) record(result string) {
	if s.recorder != nil {
		s.recorder.RecordLocation(result)
	}
}
