package application

import (
	"testing"
	"time"

	"github.com/bnema/goalpanel/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestFormatTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    string
		offset time.Duration
		want   string
	}{
		{name: "reference payload", raw: "2025-10-28T11:51:53.666Z", want: "10/28 11:51"},
		{name: "no fraction or zone", raw: "2025-10-28T11:51:53", want: "10/28 11:51"},
		{name: "negative offset crosses midnight", raw: "2025-10-28T02:10:00Z", offset: -5 * time.Hour, want: "10/27 21:10"},
		{name: "positive offset", raw: "2025-12-31T23:30:00Z", offset: time.Hour, want: "01/01 00:30"},
		{name: "empty", raw: "", want: domain.Unavailable},
		{name: "not a date", raw: "not-a-date", want: domain.Unavailable},
		{name: "too short", raw: "2025-10-28T11:51", want: domain.Unavailable},
		{name: "long garbage", raw: "this is definitely not a timestamp", want: domain.Unavailable},
		{name: "invalid month", raw: "2025-13-28T11:51:53Z", want: domain.Unavailable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.NotPanics(t, func() {
				assert.Equal(t, tt.want, FormatTimestamp(tt.raw, tt.offset))
			})
		})
	}
}

func TestTargetDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 10, 27, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "Tue, Oct 28, 2025", TargetDate(now, true, 1, 0))
	assert.Equal(t, "Mon, Oct 27, 2025", TargetDate(now, true, 0, 0))
	assert.Equal(t, "Sun, Oct 26, 2025", TargetDate(now, true, -1, 0))
	assert.Equal(t, "Wed, Oct 29, 2025", TargetDate(now, true, 1, 13*time.Hour))
	assert.Equal(t, domain.Unavailable, TargetDate(now, false, 1, 0))
	assert.Equal(t, domain.Unavailable, TargetDate(time.Unix(99_999, 0), true, 1, 0))
}

func TestTargetDateBeyondDurationRange(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 10, 28, 0, 0, 0, 0, time.UTC)

	for _, days := range []int{106_751, 106_752, 200_000, 2_000_000} {
		want := now.AddDate(0, 0, days).Format("Mon, Jan 02, 2006")
		assert.Equal(t, want, TargetDate(now, true, days, 0), "days=%d", days)
	}
}
