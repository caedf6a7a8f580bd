package application

import (
	"context"
	"time"

	"github.com/bnema/goalpanel/internal/ports"
)

// PollPolicy bounds a busy-wait loop by attempt count.
type PollPolicy struct {
	MaxAttempts int
	Interval    time.Duration
}

type PollResult struct {
	Attempts int
	OK       bool
}

// Run evaluates cond until it reports true or the attempts are used up,
// delaying Interval between attempts. A cancelled context ends the loop early.
func (p PollPolicy) Run(ctx context.Context, delayer ports.Delayer, cond func(context.Context) bool) PollResult {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var result PollResult
	for result.Attempts < attempts {
		result.Attempts++
		if cond(ctx) {
			result.OK = true
			return result
		}
		if result.Attempts == attempts || ctx.Err() != nil {
			break
		}
		delayer.Delay(ctx, p.Interval)
	}

	return result
}

// Budget is the worst-case time Run can spend delaying.
func (p PollPolicy) Budget() time.Duration {
	if p.MaxAttempts <= 1 {
		return 0
	}
	return time.Duration(p.MaxAttempts-1) * p.Interval
}
