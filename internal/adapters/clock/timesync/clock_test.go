package timesync

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestClockAppliesOffsetFromFirstAnsweringServer(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 10, 27, 12, 0, 0, 0, time.UTC)
	var asked []string
	clock := New(Options{
		Servers: []string{"pool.ntp.org", "time.nist.gov"},
		Now:     func() time.Time { return base },
		Logger:  quietLogger(),
		Query: func(_ context.Context, server string, _ time.Duration) (time.Duration, error) {
			asked = append(asked, server)
			if server == "pool.ntp.org" {
				return 0, errors.New("timeout")
			}
			return 90 * time.Second, nil
		},
	})

	assert.False(t, clock.Synced())
	assert.True(t, clock.Attempt(context.Background()))
	assert.True(t, clock.Synced())
	assert.Equal(t, base.Add(90*time.Second), clock.Now())
	assert.Equal(t, []string{"pool.ntp.org", "time.nist.gov"}, asked)

	assert.True(t, clock.Attempt(context.Background()))
	assert.Len(t, asked, 2, "a synced clock does not query again")
}

func TestClockStaysUnsyncedWhenAllServersFail(t *testing.T) {
	t.Parallel()

	clock := New(Options{
		Servers: []string{"pool.ntp.org"},
		Logger:  quietLogger(),
		Query: func(context.Context, string, time.Duration) (time.Duration, error) {
			return 0, errors.New("unreachable")
		},
	})

	assert.False(t, clock.Attempt(context.Background()))
	assert.False(t, clock.Synced())
}

func TestClockRejectsInsaneTimeAfterQuery(t *testing.T) {
	t.Parallel()

	clock := New(Options{
		Servers: []string{"pool.ntp.org"},
		Now:     func() time.Time { return time.Unix(10, 0) },
		Logger:  quietLogger(),
		Query: func(context.Context, string, time.Duration) (time.Duration, error) {
			return time.Second, nil
		},
	})

	assert.False(t, clock.Attempt(context.Background()))
}

func TestClockWithoutServersTrustsSaneHostClock(t *testing.T) {
	t.Parallel()

	sane := New(Options{Now: func() time.Time { return time.Unix(1_700_000_000, 0) }, Logger: quietLogger()})
	assert.True(t, sane.Attempt(context.Background()))

	unset := New(Options{Now: func() time.Time { return time.Unix(5, 0) }, Logger: quietLogger()})
	assert.False(t, unset.Attempt(context.Background()))
}
