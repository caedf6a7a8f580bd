package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bnema/goalpanel/internal/ports"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

type Mode string

const (
	// ModeExec waits for the timer and then replaces the process with a fresh
	// copy of itself, so every wake starts from a clean state.
	ModeExec Mode = "exec"
	// ModeOnce returns right away and leaves the next wake to a supervisor.
	ModeOnce Mode = "once"
)

var ErrTimerNotArmed = errors.New("wake timer not armed")

// ExecFunc replaces the running process image.
type ExecFunc func(argv0 string, argv []string, envv []string) error

type Options struct {
	Mode   Mode
	Clock  ports.Clock
	Exec   ExecFunc
	Args   []string
	Logger logrus.FieldLogger
}

// Manager emulates the wake timer and deep sleep of the board on a host.
type Manager struct {
	mode  Mode
	clock ports.Clock
	exec  ExecFunc
	args  []string
	log   logrus.FieldLogger

	deadline time.Time
	armed    bool
}

var _ ports.PowerManager = (*Manager)(nil)

func New(opts Options) *Manager {
	m := &Manager{
		mode:  opts.Mode,
		clock: opts.Clock,
		exec:  opts.Exec,
		args:  opts.Args,
		log:   opts.Logger,
	}
	if m.mode == "" {
		m.mode = ModeExec
	}
	if m.clock == nil {
		m.clock = ports.SystemClock{}
	}
	if m.exec == nil {
		m.exec = unix.Exec
	}
	if m.args == nil {
		m.args = os.Args
	}
	if m.log == nil {
		m.log = logrus.StandardLogger()
	}
	return m
}

func (m *Manager) ArmWakeTimer(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("arm wake timer: interval %s must be positive", interval)
	}
	m.deadline = m.clock.Now().Add(interval)
	m.armed = true
	return nil
}

func (m *Manager) Deadline() (time.Time, bool) {
	return m.deadline, m.armed
}

func (m *Manager) EnterLowPower(ctx context.Context) error {
	if !m.armed {
		return ErrTimerNotArmed
	}

	fields := logrus.Fields{"mode": m.mode, "wake_at": humanize.Time(m.deadline)}
	if m.mode == ModeOnce {
		m.log.WithFields(fields).Info("single cycle finished")
		return nil
	}

	m.log.WithFields(fields).Info("sleeping until next wake")
	if wait := m.deadline.Sub(m.clock.Now()); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if err := m.exec(executable, m.args, os.Environ()); err != nil {
		return fmt.Errorf("restart %s: %w", executable, err)
	}
	return nil
}

func (m *Manager) Mode() Mode { return m.mode }

func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeExec, ModeOnce:
		return Mode(raw), nil
	case "":
		return ModeExec, nil
	default:
		return "", fmt.Errorf("unknown sleep mode %q (want exec or once)", raw)
	}
}
