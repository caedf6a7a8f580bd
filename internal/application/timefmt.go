package application

import (
	"time"

	"github.com/bnema/goalpanel/internal/domain"
)

const (
	isoPrefixLayout = "2006-01-02T15:04:05"
	updateLayout    = "01/02 15:04"
	targetLayout    = "Mon, Jan 02, 2006"

	secondsPerDay = 86400

	// minSaneUnix separates a clock that was never set from a real wall time.
	minSaneUnix = 100000
)

// FormatTimestamp renders the YYYY-MM-DDTHH:MM:SS prefix of an ISO-8601
// timestamp as MM/DD HH:MM after shifting it by offset. Anything after the
// seconds field is ignored.
func FormatTimestamp(raw string, offset time.Duration) string {
	if len(raw) < len(isoPrefixLayout) {
		return domain.Unavailable
	}

	parsed, err := time.Parse(isoPrefixLayout, raw[:len(isoPrefixLayout)])
	if err != nil {
		return domain.Unavailable
	}

	return parsed.Add(offset).Format(updateLayout)
}

// TargetDate renders the calendar date days from now. It returns the
// sentinel when the clock is not synchronized or was never set.
func TargetDate(now time.Time, synced bool, days int, offset time.Duration) string {
	if !synced || now.Unix() < minSaneUnix {
		return domain.Unavailable
	}

	target := time.Unix(now.Unix()+int64(days)*secondsPerDay, 0)
	return target.In(fixedZone(offset)).Format(targetLayout)
}

func fixedZone(offset time.Duration) *time.Location {
	if offset == 0 {
		return time.UTC
	}
	return time.FixedZone("", int(offset/time.Second))
}
