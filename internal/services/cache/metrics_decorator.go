package cache

import (
	"context"
	"errors"
	"time"
)

type cache[T any] interface {
	Set(ctx context.Context, key string, value T) error
	Get(ctx context.Context, key string) (T, error)
}

type metricsCollector interface {
	ObserveLatency(operation string, duration time.Duration)
	IncrementCounter(metric string, labels ...string)
}

type MetricsDecorator[T any] struct {
	next      cache[T]
	collector metricsCollector
}

func NewMetricsDecorator[T any](next cache[T], collector metricsCollector) *MetricsDecorator[T] {
	return &MetricsDecorator[T]{next: next, collector: collector}
}

func (m *MetricsDecorator[T]) Set(
	ctx context.Context,
	key string,
	value T,
) error {
	start := time.Now()
	err := m.next.Set(ctx, key, value)
	m.collector.ObserveLatency("set", time.Since(start))
	if err != nil {
		m.collector.IncrementCounter("set", "error")
	} else {
		m.collector.IncrementCounter("set", "success")
	}
	return err
}

//nolint:ireturn
func (m *MetricsDecorator[T]) Get(
	ctx context.Context,
	key string,
) (T, error) {
	start := time.Now()
	data, err := m.next.Get(ctx, key)
	m.collector.ObserveLatency("get", time.Since(start))
	switch {
	case err == nil:
		m.collector.IncrementCounter("get", "hit")
	case errors.Is(err, ErrMiss):
		m.collector.IncrementCounter("get", "miss")
	default:
		m.collector.IncrementCounter("get", "error")
	}
	return data, err
}
