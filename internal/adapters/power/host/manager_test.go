package host

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

type execRecorder struct {
	calls [][]string
	err   error
}

func (r *execRecorder) exec(argv0 string, argv []string, _ []string) error {
	r.calls = append(r.calls, append([]string{argv0}, argv...))
	return r.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestManagerArmRecordsDeadline(t *testing.T) {
	t.Parallel()

	clock := &stepClock{now: time.Date(2025, 10, 28, 12, 0, 0, 0, time.UTC)}
	m := New(Options{Mode: ModeOnce, Clock: clock, Logger: quietLogger()})

	_, armed := m.Deadline()
	assert.False(t, armed)

	require.NoError(t, m.ArmWakeTimer(time.Hour))
	deadline, armed := m.Deadline()
	assert.True(t, armed)
	assert.Equal(t, clock.now.Add(time.Hour), deadline)

	require.Error(t, m.ArmWakeTimer(0))
}

func TestManagerOnceReturnsImmediately(t *testing.T) {
	t.Parallel()

	rec := &execRecorder{}
	m := New(Options{Mode: ModeOnce, Exec: rec.exec, Logger: quietLogger()})
	require.NoError(t, m.ArmWakeTimer(time.Hour))

	require.NoError(t, m.EnterLowPower(context.Background()))
	assert.Empty(t, rec.calls)
}

func TestManagerExecRestartsAfterDeadline(t *testing.T) {
	t.Parallel()

	clock := &stepClock{now: time.Date(2025, 10, 28, 12, 0, 0, 0, time.UTC)}
	rec := &execRecorder{}
	m := New(Options{Mode: ModeExec, Clock: clock, Exec: rec.exec, Args: []string{"goalpanel", "wake"}, Logger: quietLogger()})
	require.NoError(t, m.ArmWakeTimer(time.Second))

	clock.now = clock.now.Add(2 * time.Second)
	require.NoError(t, m.EnterLowPower(context.Background()))

	require.Len(t, rec.calls, 1)
	assert.Equal(t, []string{"goalpanel", "wake"}, rec.calls[0][1:])
}

func TestManagerExecWaitHonoursContext(t *testing.T) {
	t.Parallel()

	rec := &execRecorder{}
	m := New(Options{Mode: ModeExec, Exec: rec.exec, Logger: quietLogger()})
	require.NoError(t, m.ArmWakeTimer(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, m.EnterLowPower(ctx), context.Canceled)
	assert.Empty(t, rec.calls)
}

func TestManagerExecFailureIsReported(t *testing.T) {
	t.Parallel()

	clock := &stepClock{now: time.Now()}
	rec := &execRecorder{err: errors.New("permission denied")}
	m := New(Options{Mode: ModeExec, Clock: clock, Exec: rec.exec, Logger: quietLogger()})
	require.NoError(t, m.ArmWakeTimer(time.Millisecond))
	clock.now = clock.now.Add(time.Second)

	err := m.EnterLowPower(context.Background())
	require.ErrorIs(t, err, rec.err)
}

func TestManagerRequiresArmedTimer(t *testing.T) {
	t.Parallel()

	m := New(Options{Mode: ModeOnce, Logger: quietLogger()})
	require.ErrorIs(t, m.EnterLowPower(context.Background()), ErrTimerNotArmed)
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	mode, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeExec, mode)

	mode, err = ParseMode("once")
	require.NoError(t, err)
	assert.Equal(t, ModeOnce, mode)

	_, err = ParseMode("hibernate")
	require.Error(t, err)
}
