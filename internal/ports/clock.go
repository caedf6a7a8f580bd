package ports

import (
	"context"
	"time"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// ClockSync tracks whether the wall clock has been set from a time service.
type ClockSync interface {
	// Attempt makes one synchronization attempt and reports whether the clock is now synchronized.
	Attempt(ctx context.Context) bool
	Synced() bool
}

// Delayer blocks for hardware settle times and polling intervals.
type Delayer interface {
	Delay(ctx context.Context, d time.Duration)
}

type SystemDelayer struct{}

func (SystemDelayer) Delay(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
