package f1

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidShape marks an upstream body that lacks the expected envelope.
	ErrInvalidShape = errors.New("unrecognized response shape")
	// ErrNotFound marks a lookup that matched no row.
	ErrNotFound = errors.New("not found")
)

// ConfigError reports a missing or invalid configuration key.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Key, e.Reason)
}

// APIError reports an upstream call that failed after retries or returned
// an unrecognized shape.
type APIError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *APIError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("api %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
	}
	return fmt.Sprintf("api %s: %v", e.URL, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// DataExtractionError reports a page fetch or content parsing failure.
type DataExtractionError struct {
	Source string
	Err    error
}

func (e *DataExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Source, e.Err)
}

func (e *DataExtractionError) Unwrap() error {
	return e.Err
}

// DatabaseError reports a failed relational store operation.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}
