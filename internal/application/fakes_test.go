package application

import (
	"context"
	"io"
	"time"

	"github.com/bnema/goalpanel/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

type recordingDelayer struct {
	delays []time.Duration
}

func (d *recordingDelayer) Delay(_ context.Context, dur time.Duration) {
	d.delays = append(d.delays, dur)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

type fakeLink struct {
	beginErr      error
	connectAfter  int
	checks        int
	disconnected  bool
	disconnectErr error
}

func (l *fakeLink) Begin(context.Context) error {
	return l.beginErr
}

func (l *fakeLink) Connected(context.Context) bool {
	l.checks++
	return l.connectAfter > 0 && l.checks >= l.connectAfter
}

func (l *fakeLink) Disconnect() error {
	l.disconnected = true
	return l.disconnectErr
}

type fakeClockSync struct {
	succeedAfter int
	attempts     int
	synced       bool
}

func (s *fakeClockSync) Attempt(context.Context) bool {
	s.attempts++
	if s.succeedAfter > 0 && s.attempts >= s.succeedAfter {
		s.synced = true
	}
	return s.synced
}

func (s *fakeClockSync) Synced() bool {
	return s.synced
}

type fakeFetcher struct {
	reading domain.Reading
	err     error
	calls   int
}

func (f *fakeFetcher) Fetch(context.Context) (domain.Reading, error) {
	f.calls++
	return f.reading, f.err
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Save(snapshot domain.Snapshot) error {
	return m.Called(snapshot).Error(0)
}

func (m *mockCache) Load() (domain.Snapshot, bool) {
	args := m.Called()
	return args.Get(0).(domain.Snapshot), args.Bool(1)
}

func (m *mockCache) HasData() bool {
	return m.Called().Bool(0)
}

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Connect(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockSource) FetchSnapshot(ctx context.Context) (domain.Snapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Snapshot), args.Error(1)
}

func (m *mockSource) TargetDate(days int) string {
	return m.Called(days).String(0)
}

func (m *mockSource) Disconnect() error {
	return m.Called().Error(0)
}

type mockSurface struct {
	mock.Mock
}

func (m *mockSurface) Init(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockSurface) Render(snapshot domain.Snapshot) error {
	return m.Called(snapshot).Error(0)
}

func (m *mockSurface) RenderError(message string) error {
	return m.Called(message).Error(0)
}

func (m *mockSurface) Hibernate() error {
	return m.Called().Error(0)
}

type mockPower struct {
	mock.Mock
}

func (m *mockPower) ArmWakeTimer(after time.Duration) error {
	return m.Called(after).Error(0)
}

func (m *mockPower) EnterLowPower(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func mockAnyContext() any {
	return mock.MatchedBy(func(context.Context) bool { return true })
}

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
