package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/goalpanel/internal/domain"
	"github.com/bnema/goalpanel/internal/ports"
	"github.com/sirupsen/logrus"
)

var (
	ErrLinkDown    = errors.New("network link is down")
	ErrJoinTimeout = errors.New("timed out joining network")
)

var (
	DefaultJoinPolicy = PollPolicy{MaxAttempts: 40, Interval: 500 * time.Millisecond}
	DefaultSyncPolicy = PollPolicy{MaxAttempts: 10, Interval: 500 * time.Millisecond}
)

const DefaultFetchTimeout = 10 * time.Second

type DataSourceOptions struct {
	Link      ports.Link
	ClockSync ports.ClockSync
	Clock     ports.Clock
	Delayer   ports.Delayer
	Remote    ports.MetricsFetcher
	Mock      ports.MetricsFetcher
	MockMode  bool

	JoinPolicy   PollPolicy
	SyncPolicy   PollPolicy
	FetchTimeout time.Duration
	// TimezoneOffset shifts displayed times away from UTC.
	TimezoneOffset time.Duration

	Logger logrus.FieldLogger
}

// DataSource acquires a fresh snapshot and derives its clock-dependent fields.
type DataSource struct {
	link      ports.Link
	clockSync ports.ClockSync
	clock     ports.Clock
	delayer   ports.Delayer
	remote    ports.MetricsFetcher
	mock      ports.MetricsFetcher
	mockMode  bool

	joinPolicy   PollPolicy
	syncPolicy   PollPolicy
	fetchTimeout time.Duration
	offset       time.Duration

	log logrus.FieldLogger
}

func NewDataSource(opts DataSourceOptions) *DataSource {
	s := &DataSource{
		link:         opts.Link,
		clockSync:    opts.ClockSync,
		clock:        opts.Clock,
		delayer:      opts.Delayer,
		remote:       opts.Remote,
		mock:         opts.Mock,
		mockMode:     opts.MockMode,
		joinPolicy:   opts.JoinPolicy,
		syncPolicy:   opts.SyncPolicy,
		fetchTimeout: opts.FetchTimeout,
		offset:       opts.TimezoneOffset,
		log:          opts.Logger,
	}

	if s.clock == nil {
		s.clock = ports.SystemClock{}
	}
	if s.delayer == nil {
		s.delayer = ports.SystemDelayer{}
	}
	if s.joinPolicy.MaxAttempts <= 0 {
		s.joinPolicy = DefaultJoinPolicy
	}
	if s.syncPolicy.MaxAttempts <= 0 {
		s.syncPolicy = DefaultSyncPolicy
	}
	if s.fetchTimeout <= 0 {
		s.fetchTimeout = DefaultFetchTimeout
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}

	return s
}

// Connect joins the network and, once joined, tries to synchronize the
// clock. A failed clock sync is logged but does not fail Connect.
func (s *DataSource) Connect(ctx context.Context) error {
	if s.link == nil {
		return ErrLinkDown
	}

	if err := s.link.Begin(ctx); err != nil {
		return fmt.Errorf("begin network join: %w", err)
	}

	joined := s.joinPolicy.Run(ctx, s.delayer, s.link.Connected)
	if !joined.OK {
		s.log.WithField("attempts", joined.Attempts).Warn("network join failed")
		return fmt.Errorf("%w after %d attempts", ErrJoinTimeout, joined.Attempts)
	}
	s.log.WithField("attempts", joined.Attempts).Info("network joined")

	s.syncClock(ctx)
	return nil
}

func (s *DataSource) syncClock(ctx context.Context) {
	if s.clockSync == nil {
		return
	}

	synced := s.syncPolicy.Run(ctx, s.delayer, s.clockSync.Attempt)
	if synced.OK {
		s.log.WithField("attempts", synced.Attempts).Info("time synchronized")
		return
	}
	s.log.WithField("attempts", synced.Attempts).Warn("time sync failed, dates will be unavailable")
}

// FetchSnapshot makes exactly one fetch attempt. The returned snapshot has
// the decoded fields and a formatted update time; freshness, success flag
// and target date are left to the caller.
func (s *DataSource) FetchSnapshot(ctx context.Context) (domain.Snapshot, error) {
	fetcher := s.remote
	if s.mockMode {
		s.log.Info("using mock payload")
		fetcher = s.mock
	} else if s.link == nil || !s.link.Connected(ctx) {
		return domain.Snapshot{}, ErrLinkDown
	}
	if fetcher == nil {
		return domain.Snapshot{}, errors.New("no metrics fetcher configured")
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	reading, err := fetcher.Fetch(fetchCtx)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("fetch metrics: %w", err)
	}

	snapshot := domain.Snapshot{
		DaysRemaining:   reading.DaysToTarget,
		ProgressPercent: reading.ProgressPercent,
		LastUpdateTime:  FormatTimestamp(reading.DataTimestamp, s.offset),
		Presentable:     true,
	}

	s.log.WithFields(logrus.Fields{
		"days":     snapshot.DaysRemaining,
		"progress": snapshot.ProgressPercent,
		"data_ts":  snapshot.LastUpdateTime,
	}).Info("metrics fetched")

	return snapshot, nil
}

func (s *DataSource) FormatTimestamp(raw string) string {
	return FormatTimestamp(raw, s.offset)
}

func (s *DataSource) TargetDate(days int) string {
	synced := s.clockSync != nil && s.clockSync.Synced()
	return TargetDate(s.clock.Now(), synced, days, s.offset)
}

func (s *DataSource) Disconnect() error {
	if s.link == nil {
		return nil
	}
	if err := s.link.Disconnect(); err != nil {
		return fmt.Errorf("disconnect network: %w", err)
	}
	return nil
}
