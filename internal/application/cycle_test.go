package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/goalpanel/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type cycleFixture struct {
	cache   *mockCache
	source  *mockSource
	surface *mockSurface
	power   *mockPower
	delayer *recordingDelayer
	cycle   *WakeCycle
}

func newCycleFixture(t *testing.T) *cycleFixture {
	t.Helper()

	f := &cycleFixture{
		cache:   &mockCache{},
		source:  &mockSource{},
		surface: &mockSurface{},
		power:   &mockPower{},
		delayer: &recordingDelayer{},
	}
	f.cycle = NewWakeCycle(WakeCycleOptions{
		Cache:        f.cache,
		Source:       f.source,
		Surface:      f.surface,
		Power:        f.power,
		Delayer:      f.delayer,
		Clock:        fixedClock{now: time.Date(2025, 10, 27, 12, 0, 0, 0, time.UTC)},
		WakeInterval: WakeInterval(3_600_000),
		Logger:       discardLogger(),
	})

	t.Cleanup(func() {
		f.cache.AssertExpectations(t)
		f.source.AssertExpectations(t)
		f.surface.AssertExpectations(t)
		f.power.AssertExpectations(t)
	})

	return f
}

func (f *cycleFixture) expectStartAndSleep() {
	f.power.On("ArmWakeTimer", time.Hour).Return(nil).Once()
	f.surface.On("Init", mockAnyContext()).Return(nil).Once()
	f.surface.On("Hibernate").Return(nil).Once()
	f.source.On("Disconnect").Return(nil).Once()
	f.power.On("EnterLowPower", mockAnyContext()).Return(nil).Once()
}

var allPhases = []domain.CyclePhase{
	domain.PhaseStart,
	domain.PhaseCacheCheck,
	domain.PhaseNetworkAttempt,
	domain.PhaseResolve,
	domain.PhaseRender,
	domain.PhaseSleep,
}

func TestWakeCycleFreshFetchIsCachedAndRendered(t *testing.T) {
	f := newCycleFixture(t)
	f.expectStartAndSleep()

	fetched := domain.Snapshot{DaysRemaining: 3750, ProgressPercent: 22.2, LastUpdateTime: "10/28 11:51", Presentable: true}
	want := fetched
	want.Fresh = true
	want.LastUpdateSuccess = true
	want.TargetDateLabel = "Thu, Apr 26, 2036"

	f.cache.On("HasData").Return(false).Once()
	f.source.On("Connect", mockAnyContext()).Return(nil).Once()
	f.source.On("FetchSnapshot", mockAnyContext()).Return(fetched, nil).Once()
	f.source.On("TargetDate", 3750).Return("Thu, Apr 26, 2036").Once()
	f.cache.On("Save", want).Return(nil).Once()
	f.surface.On("Render", want).Return(nil).Once()

	report := f.cycle.Run(context.Background())

	assert.Equal(t, allPhases, report.Phases)
	assert.Equal(t, domain.OutcomeFresh, report.Outcome)
	assert.Equal(t, want, report.Snapshot)
	assert.True(t, report.Connected)
	assert.NoError(t, report.FetchErr)
	assert.NoError(t, report.SleepErr)
	assert.Equal(t, []time.Duration{DefaultSleepSettle}, f.delayer.delays)
}

func TestWakeCycleFetchFailureFallsBackToCache(t *testing.T) {
	f := newCycleFixture(t)
	f.expectStartAndSleep()

	cached := domain.Snapshot{
		DaysRemaining:     3750,
		ProgressPercent:   22.2,
		LastUpdateTime:    "10/28 11:51",
		TargetDateLabel:   "Thu, Apr 26, 2036",
		Presentable:       true,
		LastUpdateSuccess: true,
	}
	want := cached
	want.Fresh = false
	want.LastUpdateSuccess = false

	f.cache.On("HasData").Return(true).Once()
	f.cache.On("Load").Return(cached, true).Once()
	f.source.On("Connect", mockAnyContext()).Return(ErrJoinTimeout).Once()
	f.source.On("FetchSnapshot", mockAnyContext()).Return(domain.Snapshot{}, ErrLinkDown).Once()
	f.surface.On("Render", want).Return(nil).Once()

	report := f.cycle.Run(context.Background())

	assert.Equal(t, domain.OutcomeCached, report.Outcome)
	assert.Equal(t, want, report.Snapshot)
	assert.False(t, report.Connected)
	assert.ErrorIs(t, report.FetchErr, ErrLinkDown)
	f.cache.AssertNotCalled(t, "Save", mock.Anything)
	f.source.AssertNotCalled(t, "TargetDate", mock.Anything)
}

func TestWakeCycleNoDataRendersErrorAndHolds(t *testing.T) {
	f := newCycleFixture(t)
	f.expectStartAndSleep()

	f.cache.On("HasData").Return(false).Once()
	f.source.On("Connect", mockAnyContext()).Return(nil).Once()
	f.source.On("FetchSnapshot", mockAnyContext()).Return(domain.Snapshot{}, errors.New("status 500")).Once()
	f.surface.On("RenderError", NoDataMessage).Return(nil).Once()

	report := f.cycle.Run(context.Background())

	assert.Equal(t, allPhases, report.Phases)
	assert.Equal(t, domain.OutcomeNoData, report.Outcome)
	assert.False(t, report.Snapshot.Presentable)
	assert.Equal(t, []time.Duration{DefaultErrorHold, DefaultSleepSettle}, f.delayer.delays)
	f.surface.AssertNotCalled(t, "Render", mock.Anything)
}

func TestWakeCycleAttemptsFetchEvenWhenConnectFails(t *testing.T) {
	f := newCycleFixture(t)
	f.expectStartAndSleep()

	fetched := domain.Snapshot{DaysRemaining: 1, Presentable: true}
	f.cache.On("HasData").Return(false).Once()
	f.source.On("Connect", mockAnyContext()).Return(ErrJoinTimeout).Once()
	f.source.On("FetchSnapshot", mockAnyContext()).Return(fetched, nil).Once()
	f.source.On("TargetDate", 1).Return(domain.Unavailable).Once()
	f.cache.On("Save", mock.AnythingOfType("domain.Snapshot")).Return(nil).Once()
	f.surface.On("Render", mock.AnythingOfType("domain.Snapshot")).Return(nil).Once()

	report := f.cycle.Run(context.Background())

	assert.Equal(t, domain.OutcomeFresh, report.Outcome)
	assert.False(t, report.Connected)
	assert.Equal(t, domain.Unavailable, report.Snapshot.TargetDateLabel)
}

func TestWakeCycleSaveFailureStillRenders(t *testing.T) {
	f := newCycleFixture(t)
	f.expectStartAndSleep()

	fetched := domain.Snapshot{DaysRemaining: 5, Presentable: true}
	f.cache.On("HasData").Return(false).Once()
	f.source.On("Connect", mockAnyContext()).Return(nil).Once()
	f.source.On("FetchSnapshot", mockAnyContext()).Return(fetched, nil).Once()
	f.source.On("TargetDate", 5).Return("Sat, Nov 01, 2025").Once()
	f.cache.On("Save", mock.AnythingOfType("domain.Snapshot")).Return(errors.New("msync failed")).Once()
	f.surface.On("Render", mock.AnythingOfType("domain.Snapshot")).Return(nil).Once()

	report := f.cycle.Run(context.Background())
	assert.Equal(t, domain.OutcomeFresh, report.Outcome)
}

func TestWakeCycleArmsTimerBeforeAnythingElse(t *testing.T) {
	f := newCycleFixture(t)

	var order []string
	f.power.On("ArmWakeTimer", time.Hour).Run(func(mock.Arguments) { order = append(order, "arm") }).Return(nil).Once()
	f.surface.On("Init", mockAnyContext()).Run(func(mock.Arguments) { order = append(order, "init") }).Return(nil).Once()
	f.cache.On("HasData").Run(func(mock.Arguments) { order = append(order, "cache") }).Return(false).Once()
	f.source.On("Connect", mockAnyContext()).Run(func(mock.Arguments) { order = append(order, "connect") }).Return(nil).Once()
	f.source.On("FetchSnapshot", mockAnyContext()).Run(func(mock.Arguments) { order = append(order, "fetch") }).Return(domain.Snapshot{}, ErrLinkDown).Once()
	f.surface.On("RenderError", NoDataMessage).Run(func(mock.Arguments) { order = append(order, "error") }).Return(nil).Once()
	f.surface.On("Hibernate").Run(func(mock.Arguments) { order = append(order, "hibernate") }).Return(nil).Once()
	f.source.On("Disconnect").Run(func(mock.Arguments) { order = append(order, "disconnect") }).Return(nil).Once()
	f.power.On("EnterLowPower", mockAnyContext()).Run(func(mock.Arguments) { order = append(order, "sleep") }).Return(nil).Once()

	f.cycle.Run(context.Background())

	assert.Equal(t, []string{"arm", "init", "cache", "connect", "fetch", "error", "hibernate", "disconnect", "sleep"}, order)
}

func TestWakeCycleReachesSleepAfterPanic(t *testing.T) {
	f := newCycleFixture(t)
	f.expectStartAndSleep()

	f.cache.On("HasData").Return(false).Once()
	f.source.On("Connect", mockAnyContext()).Run(func(mock.Arguments) { panic("driver fault") }).Return(nil).Once()

	var report CycleReport
	require.NotPanics(t, func() { report = f.cycle.Run(context.Background()) })

	assert.True(t, report.Panicked)
	assert.Equal(t, domain.PhaseSleep, report.Phases[len(report.Phases)-1])
}

func TestWakeCycleTeardownErrorsAreJoined(t *testing.T) {
	f := newCycleFixture(t)

	f.power.On("ArmWakeTimer", time.Hour).Return(nil).Once()
	f.surface.On("Init", mockAnyContext()).Return(nil).Once()
	f.cache.On("HasData").Return(false).Once()
	f.source.On("Connect", mockAnyContext()).Return(nil).Once()
	f.source.On("FetchSnapshot", mockAnyContext()).Return(domain.Snapshot{}, ErrLinkDown).Once()
	f.surface.On("RenderError", NoDataMessage).Return(nil).Once()
	hibernateErr := errors.New("busy timeout")
	disconnectErr := errors.New("link stuck")
	f.surface.On("Hibernate").Return(hibernateErr).Once()
	f.source.On("Disconnect").Return(disconnectErr).Once()
	f.power.On("EnterLowPower", mockAnyContext()).Return(nil).Once()

	report := f.cycle.Run(context.Background())

	require.Error(t, report.SleepErr)
	assert.ErrorIs(t, report.SleepErr, hibernateErr)
	assert.ErrorIs(t, report.SleepErr, disconnectErr)
}

func TestWakeIntervalTruncatesToWholeSeconds(t *testing.T) {
	assert.Equal(t, time.Hour, WakeInterval(3_600_000))
	assert.Equal(t, 5*time.Minute, WakeInterval(300_999))
	assert.Equal(t, time.Duration(0), WakeInterval(999))
}
