package clock

import (
	"context"
	"time"
)

// Clock is the time source for session expiry and the save and poll loops
type Clock interface {
	Now() time.Time
	// After sends the current time once d has elapsed
	After(d time.Duration) <-chan time.Time
}

// System reads the wall clock
type System struct{}

// New returns the wall clock
func New() *System {
	return &System{}
}

// Now returns time.Now
func (System) Now() time.Time {
	return time.Now()
}

// After delegates to time.After
func (System) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Wait blocks for d on c. It returns ctx.Err() if ctx ends first.
func Wait(ctx context.Context, c Clock, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.After(d):
		return nil
	}
}
