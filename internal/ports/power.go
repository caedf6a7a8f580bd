package ports

import (
	"context"
	"time"
)

type PowerManager interface {
	ArmWakeTimer(after time.Duration) error
	// EnterLowPower does not return in production; the next wake restarts the process.
	EnterLowPower(ctx context.Context) error
}
