package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

type Config struct {
	TimeInterval time.Duration
	TimeTimeOut  time.Duration
	RepeatNumber uint32
}

// callerDone marks an error raised after the caller's context ended. It is not
// a provider failure and must not count towards tripping.
type callerDone struct {
	err error
}

func (c *callerDone) Error() string { return c.err.Error() }

func (c *callerDone) Unwrap() error { return c.err }

// Breaker trips after RepeatNumber consecutive failures. Errors for which
// ignore returns true, cancellations and errors after the caller's context
// ended are passed through without counting as failures.
type Breaker struct {
	name   string
	cb     *gobreaker.CircuitBreaker
	ignore func(error) bool
}

func New(name string, cfg Config, ignore func(error) bool) *Breaker {
	b := &Breaker{name: name, ignore: ignore}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    cfg.TimeInterval,
		Timeout:     cfg.TimeTimeOut,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.RepeatNumber
		},
		IsSuccessful: func(err error) bool {
			return err == nil || b.uncounted(err)
		},
	}
	b.cb = gobreaker.NewCircuitBreaker(settings)
	return b
}

func (b *Breaker) Name() string {
	return b.name
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *Breaker) uncounted(err error) bool {
	var done *callerDone
	return errors.As(err, &done) ||
		errors.Is(err, context.Canceled) ||
		(b.ignore != nil && b.ignore(err))
}

// Execute runs fn through the breaker b. A failure observed after ctx is done
// belongs to the caller and is returned as is.
//
//nolint:ireturn
func Execute[T any](ctx context.Context, b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	result, err := b.cb.Execute(func() (interface{}, error) {
		res, err := fn()
		if err != nil && ctx.Err() != nil {
			return res, &callerDone{err: err}
		}
		return res, err
	})
	if err != nil {
		var done *callerDone
		if errors.As(err, &done) {
			return zero, done.err
		}
		if b.uncounted(err) {
			return zero, err
		}
		return zero, fmt.Errorf("%s unavailable: %w", b.name, err)
	}
	res, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("%s returned unexpected result", b.name)
	}
	return res, nil
}
