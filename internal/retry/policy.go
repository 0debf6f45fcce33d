// Package retry implements the bounded exponential backoff shared by every
// network-calling component.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// Policy decides how many attempts a call gets and how long to wait between them.
type Policy struct {
	MaxAttempts int
	Multiplier  float64
	MinWait     time.Duration
	MaxWait     time.Duration
	// Retryable reports whether err deserves another attempt; nil retries
	// everything except cancellation and permanent errors.
	Retryable func(err error) bool
}

// DefaultPolicy returns 3 attempts, multiplier 2, waits clamped to [4s, 30s].
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Multiplier:  2,
		MinWait:     4 * time.Second,
		MaxWait:     30 * time.Second,
	}
}

// ShouldRetry decides whether the error is retryable after the given attempt (1-based).
func (p Policy) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= p.attempts() {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return true
}

// Backoff returns the wait after the given attempt:
// min(MaxWait, max(MinWait, Multiplier^attempt seconds)).
func (p Policy) Backoff(attempt int) time.Duration {
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	secs := math.Pow(mult, float64(attempt))
	wait := p.MaxWait
	if secs < p.MaxWait.Seconds() {
		wait = time.Duration(secs * float64(time.Second))
	}
	if wait < p.MinWait {
		wait = p.MinWait
	}
	if p.MaxWait > 0 && wait > p.MaxWait {
		wait = p.MaxWait
	}
	return wait
}

func (p Policy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// Do runs fn until it succeeds, the policy gives up, or ctx ends. It returns
// the number of attempts made and the last error.
func (p Policy) Do(ctx context.Context, sleeper Sleeper, fn func(ctx context.Context, attempt int) error) (int, error) {
	if sleeper == nil {
		sleeper = TimerSleeper{}
	}
	attempt := 0
	for {
		attempt++
		err := fn(ctx, attempt)
		if err == nil {
			return attempt, nil
		}
		if !p.ShouldRetry(err, attempt) {
			return attempt, unwrapPermanent(err)
		}
		if serr := sleeper.Sleep(ctx, p.Backoff(attempt)); serr != nil {
			return attempt, fmt.Errorf("retry wait: %w", serr)
		}
	}
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

func unwrapPermanent(err error) error {
	var perm *permanentError
	if errors.As(err, &perm) && perm == err {
		return perm.err
	}
	return err
}
