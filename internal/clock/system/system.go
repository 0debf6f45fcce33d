// Package system provides the wall clock behind season resolution, and a
// fixed clock for tests.
package system

import "time"

// Clock implements f1.Clock using time.Now.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always returns the same instant, e.g. a date inside a given season.
type Fixed time.Time

// Now returns the fixed instant.
func (f Fixed) Now() time.Time {
	return time.Time(f)
}
