package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when geocoding yields no match for a place name.
	ErrNotFound = errors.New("location not found")
	// ErrResolve wraps geocoding provider failures other than a missing match.
	ErrResolve = errors.New("geocoding provider error")
	// ErrEmptyBatch is returned when enrichment is asked to process no records.
	ErrEmptyBatch = errors.New("no records provided")
)

type FetchError struct {
	Location string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch weather for %s: %v", e.Location, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ValidationError rejects a whole enrichment batch because of the record at Index.
type ValidationError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record %d: %s %s", e.Index, e.Field, e.Reason)
}

type RelayError struct {
	Transport  string
	StatusCode int
	Err        error
}

func (e *RelayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("relay via %s failed with status %d", e.Transport, e.StatusCode)
	}
	return fmt.Sprintf("relay via %s failed: %v", e.Transport, e.Err)
}

func (e *RelayError) Unwrap() error {
	return e.Err
}
