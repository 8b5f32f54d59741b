// Package clock abstracts the wall clock so time-dependent code can be
// driven by a fixed instant in tests.
package clock

import "time"

// Clock reports the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host wall clock.
type SystemClock struct{}

// Now returns time.Now.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// New returns the system clock.
func New() Clock {
	return SystemClock{}
}

// Fixed is a Clock that always reports the same instant.
type Fixed time.Time

// NewFixed returns a clock stuck at t.
func NewFixed(t time.Time) Fixed {
	return Fixed(t)
}

func (f Fixed) Now() time.Time {
	return time.Time(f)
}

// Func adapts an ordinary function to the Clock interface.
type Func func() time.Time

func (f Func) Now() time.Time {
	return f()
}
