package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/weather-ingestion/internal/services/pipeline"
)

const defaultRunTimeout = 2 * time.Minute

var ErrNoLocations = errors.New("no locations configured")

type runner interface {
	Run(ctx context.Context, names []string) (pipeline.Result, error)
}

type runRecorder interface {
	RecordRun(result string)
}

// Scheduler runs the pipeline over a fixed location list on a cron spec.
type Scheduler struct {
	runner     runner
	locations  []string
	spec       string
	runTimeout time.Duration
	recorder   runRecorder
	logger     zerolog.Logger
	cron       *cron.Cron
	cancel     context.CancelFunc
}

func New(
	r runner,
	spec string,
	locations []string,
	runTimeout time.Duration,
	recorder runRecorder,
	logger zerolog.Logger,
) *Scheduler {
	if runTimeout <= 0 {
		runTimeout = defaultRunTimeout
	}
	return &Scheduler{
		runner:     r,
		locations:  locations,
		spec:       spec,
		runTimeout: runTimeout,
		recorder:   recorder,
		logger:     logger.With().Str("component", "Scheduler").Logger(),
		cron:       cron.New(cron.WithSeconds()),
	}
}

// Start registers the job and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.locations) == 0 {
		return ErrNoLocations
	}

	ctx, cancel := context.WithCancel(ctx)
	if _, err := s.cron.AddFunc(s.spec, func() { _ = s.RunOnce(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("schedule %q: %w", s.spec, err)
	}
	s.cancel = cancel

	s.cron.Start()
	s.logger.Info().
		Str("spec", s.spec).
		Strs("locations", s.locations).
		Msg("scheduler started")
	return nil
}

// Stop cancels the running job and waits for it to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunOnce executes a single bounded pipeline run.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	res, err := s.runner.Run(ctx, s.locations)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("records", len(res.Records)).
			Int("failed", len(res.Failures)).
			Msg("scheduled run failed")
		s.record("error")
		return err
	}

	result := "ok"
	if len(res.Failures) > 0 {
		result = "partial"
	}
	s.record(result)
	s.logger.Info().
		Int("records", len(res.Records)).
		Int("failed", len(res.Failures)).
		Bool("relayed", res.Relayed).
		Dur("duration", time.Since(start)).
		Msg("scheduled run completed")
	return nil
}

func (s *Scheduler) record(result string) {
	if s.recorder != nil {
		s.recorder.RecordRun(result)
	}
}
