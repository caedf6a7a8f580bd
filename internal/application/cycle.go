package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/goalpanel/internal/domain"
	"github.com/bnema/goalpanel/internal/ports"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

const (
	NoDataMessage       = "No data available"
	DefaultErrorHold    = 3 * time.Second
	DefaultSleepSettle  = 100 * time.Millisecond
	MinimumWakeInterval = time.Second
)

// Source is the part of DataSource the wake cycle depends on.
type Source interface {
	Connect(ctx context.Context) error
	FetchSnapshot(ctx context.Context) (domain.Snapshot, error)
	TargetDate(days int) string
	Disconnect() error
}

var _ Source = (*DataSource)(nil)

type WakeCycleOptions struct {
	Cache   ports.SnapshotCache
	Source  Source
	Surface ports.Surface
	Power   ports.PowerManager
	Delayer ports.Delayer
	Clock   ports.Clock

	WakeInterval time.Duration
	ErrorHold    time.Duration
	SleepSettle  time.Duration

	Logger logrus.FieldLogger
}

// WakeCycle runs one wake from restart to low-power wait.
type WakeCycle struct {
	cache   ports.SnapshotCache
	source  Source
	surface ports.Surface
	power   ports.PowerManager
	delayer ports.Delayer
	clock   ports.Clock

	wakeInterval time.Duration
	errorHold    time.Duration
	sleepSettle  time.Duration

	log logrus.FieldLogger
}

type CycleReport struct {
	Phases    []domain.CyclePhase
	Outcome   domain.CycleOutcome
	Snapshot  domain.Snapshot
	Connected bool
	FetchErr  error
	SleepErr  error
	Panicked  bool
}

func NewWakeCycle(opts WakeCycleOptions) *WakeCycle {
	c := &WakeCycle{
		cache:        opts.Cache,
		source:       opts.Source,
		surface:      opts.Surface,
		power:        opts.Power,
		delayer:      opts.Delayer,
		clock:        opts.Clock,
		wakeInterval: opts.WakeInterval,
		errorHold:    opts.ErrorHold,
		sleepSettle:  opts.SleepSettle,
		log:          opts.Logger,
	}

	if c.delayer == nil {
		c.delayer = ports.SystemDelayer{}
	}
	if c.clock == nil {
		c.clock = ports.SystemClock{}
	}
	if c.wakeInterval < MinimumWakeInterval {
		c.wakeInterval = MinimumWakeInterval
	}
	if c.errorHold <= 0 {
		c.errorHold = DefaultErrorHold
	}
	if c.sleepSettle <= 0 {
		c.sleepSettle = DefaultSleepSettle
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}

	return c
}

// Run executes the cycle. The sleep phase runs from a deferred call so it is
// reached on every path, including a panic in an earlier phase.
func (c *WakeCycle) Run(ctx context.Context) (report CycleReport) {
	defer func() {
		if r := recover(); r != nil {
			report.Panicked = true
			c.log.WithField("panic", r).Error("wake cycle aborted, going to sleep")
		}
		report.Phases = append(report.Phases, domain.PhaseSleep)
		report.SleepErr = c.sleep(ctx)
	}()

	report.Phases = append(report.Phases, domain.PhaseStart)
	c.start(ctx)

	working := domain.Snapshot{}

	report.Phases = append(report.Phases, domain.PhaseCacheCheck)
	cached := c.cache.HasData()
	if cached {
		if loaded, ok := c.cache.Load(); ok {
			c.log.Info("loaded cached snapshot from previous wake")
			working = loaded
		}
	}

	report.Phases = append(report.Phases, domain.PhaseNetworkAttempt)
	if err := c.source.Connect(ctx); err != nil {
		c.log.WithError(err).Warn("network connect failed, attempting fetch anyway")
	} else {
		report.Connected = true
	}
	fresh, fetchErr := c.source.FetchSnapshot(ctx)

	report.Phases = append(report.Phases, domain.PhaseResolve)
	working, report.Outcome = c.resolve(working, cached, fresh, fetchErr)
	report.FetchErr = fetchErr
	report.Snapshot = working

	report.Phases = append(report.Phases, domain.PhaseRender)
	c.render(ctx, working)

	return report
}

func (c *WakeCycle) start(ctx context.Context) {
	if err := c.power.ArmWakeTimer(c.wakeInterval); err != nil {
		c.log.WithError(err).Error("arm wake timer")
	} else {
		c.log.WithFields(logrus.Fields{
			"seconds": int64(c.wakeInterval / time.Second),
			"next":    humanize.Time(c.clock.Now().Add(c.wakeInterval)),
		}).Info("wake timer armed")
	}

	if err := c.surface.Init(ctx); err != nil {
		c.log.WithError(err).Error("initialize display")
	}
}

func (c *WakeCycle) resolve(working domain.Snapshot, cached bool, fresh domain.Snapshot, fetchErr error) (domain.Snapshot, domain.CycleOutcome) {
	if fetchErr == nil {
		fresh.Fresh = true
		fresh.LastUpdateSuccess = true
		fresh.Presentable = true
		fresh.TargetDateLabel = c.source.TargetDate(fresh.DaysRemaining)

		if err := c.cache.Save(fresh); err != nil {
			c.log.WithError(err).Warn("persist snapshot to cache")
		} else {
			c.log.Info("snapshot fetched and cached")
		}
		return fresh, domain.OutcomeFresh
	}

	c.log.WithError(fetchErr).Warn("could not fetch data")
	if cached && working.Presentable {
		working.MarkOffline()
		c.log.Info("using cached data from previous update")
		return working, domain.OutcomeCached
	}

	c.log.Warn("no cached data available")
	return domain.Snapshot{}, domain.OutcomeNoData
}

func (c *WakeCycle) render(ctx context.Context, snapshot domain.Snapshot) {
	if snapshot.Presentable {
		if err := c.surface.Render(snapshot); err != nil {
			c.log.WithError(err).Error("render snapshot")
			return
		}
		c.log.Info("display updated")
		return
	}

	if err := c.surface.RenderError(NoDataMessage); err != nil {
		c.log.WithError(err).Error("render error screen")
		return
	}
	c.delayer.Delay(ctx, c.errorHold)
}

func (c *WakeCycle) sleep(ctx context.Context) error {
	var teardown error
	if err := c.surface.Hibernate(); err != nil {
		teardown = errors.Join(teardown, fmt.Errorf("hibernate display: %w", err))
	}
	if err := c.source.Disconnect(); err != nil {
		teardown = errors.Join(teardown, err)
	}
	if teardown != nil {
		c.log.WithError(teardown).Warn("teardown before sleep")
	}

	c.delayer.Delay(ctx, c.sleepSettle)

	c.log.WithField("seconds", int64(c.wakeInterval/time.Second)).Info("entering low power")
	if err := c.power.EnterLowPower(ctx); err != nil {
		c.log.WithError(err).Error("enter low power")
		return errors.Join(teardown, fmt.Errorf("enter low power: %w", err))
	}

	return teardown
}

// WakeInterval truncates an interval in milliseconds to whole seconds.
func WakeInterval(intervalMS int64) time.Duration {
	return time.Duration(intervalMS/1000) * time.Second
}
