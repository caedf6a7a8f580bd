package status

import (
	"strings"
	"testing"
	"time"

	"github.com/bnema/goalpanel/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cachedSnapshot() domain.Snapshot {
	return domain.Snapshot{
		DaysRemaining:     3750,
		ProgressPercent:   22.2,
		LastUpdateTime:    "10/28 11:51",
		TargetDateLabel:   "Thu, Apr 26, 2036",
		Presentable:       true,
		LastUpdateSuccess: true,
	}
}

func TestRenderRetainedSnapshot(t *testing.T) {
	now := time.Date(2025, 10, 28, 14, 0, 0, 0, time.UTC)

	output, err := Render(CacheStatus{
		Store:    "/dev/shm/goalpanel/retained.bin",
		HasData:  true,
		Snapshot: cachedSnapshot(),
		SavedAt:  now.Add(-2 * time.Hour),
	}, RenderOptions{Now: now, StaleAfter: 3 * time.Hour})

	require.NoError(t, err)
	assert.Contains(t, output, "Retained Snapshot")
	assert.Contains(t, output, "store: /dev/shm/goalpanel/retained.bin")
	assert.Contains(t, output, "3750")
	assert.Contains(t, output, "~10y 3m")
	assert.Contains(t, output, "22.2%")
	assert.Contains(t, output, "Thu, Apr 26, 2036")
	assert.Contains(t, output, "10/28 11:51")
	assert.Contains(t, output, "2 hours ago")
	assert.Contains(t, output, "ok")
	assert.NotContains(t, output, "stale")
}

func TestRenderMarksStaleAndFailed(t *testing.T) {
	now := time.Date(2025, 10, 28, 14, 0, 0, 0, time.UTC)
	snapshot := cachedSnapshot()
	snapshot.MarkOffline()
	snapshot.TargetDateLabel = domain.Unavailable

	output, err := Render(CacheStatus{
		HasData:  true,
		Snapshot: snapshot,
		SavedAt:  now.Add(-5 * time.Hour),
	}, RenderOptions{Now: now, StaleAfter: time.Hour})

	require.NoError(t, err)
	assert.Contains(t, output, "store: memory")
	assert.Contains(t, output, "failed")
	assert.Contains(t, output, "[stale]")
	assert.Contains(t, output, domain.Unavailable)
}

func TestRenderEmptyStore(t *testing.T) {
	output, err := Render(CacheStatus{Store: "/tmp/retained.bin"}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "No retained snapshot")
	assert.NotContains(t, output, "days left")
}

func TestRenderUnknownSaveTime(t *testing.T) {
	output, err := Render(CacheStatus{HasData: true, Snapshot: cachedSnapshot()}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "unknown")
}

func TestRenderProgressBarClamps(t *testing.T) {
	s := newStyles()

	tests := []struct {
		percent float64
		filled  int
	}{
		{percent: -5, filled: 0},
		{percent: 50, filled: 5},
		{percent: 105, filled: 10},
	}

	for _, tt := range tests {
		bar := renderProgressBar(tt.percent, 10, s)
		assert.Equal(t, tt.filled, strings.Count(bar, "="))
		assert.Equal(t, 10-tt.filled, strings.Count(bar, "-"))
	}
	assert.Empty(t, renderProgressBar(50, 0, s))
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "retained store is empty", Summary(CacheStatus{}))
	assert.Equal(t,
		"3750 days left, 22.2% complete, target Thu, Apr 26, 2036, updated 10/28 11:51",
		Summary(CacheStatus{HasData: true, Snapshot: cachedSnapshot()}),
	)
}
