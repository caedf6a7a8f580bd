package domain

import "fmt"

// Unavailable is shown in place of a field that could not be computed.
const Unavailable = "N/A"

// Snapshot is everything one wake cycle needs to draw the panel.
type Snapshot struct {
	DaysRemaining     int
	ProgressPercent   float64
	LastUpdateTime    string
	TargetDateLabel   string
	Presentable       bool
	Fresh             bool
	LastUpdateSuccess bool
}

// Reading holds the three fields decoded from the metrics payload.
// DataTimestamp is empty when the payload did not carry a string timestamp.
type Reading struct {
	DaysToTarget    int
	ProgressPercent float64
	DataTimestamp   string
}

// Breakdown approximates days as years and months using 365 and 30 day units.
func Breakdown(days int) (years, months int) {
	return days / 365, (days % 365) / 30
}

func (s Snapshot) BreakdownLabel() string {
	years, months := Breakdown(s.DaysRemaining)
	return fmt.Sprintf("~%dy %dm", years, months)
}

func (s Snapshot) ProgressLabel() string {
	return fmt.Sprintf("%.1f%%", s.ProgressPercent)
}

// StatusLine is the bottom line of the panel.
func (s Snapshot) StatusLine() string {
	if s.Fresh {
		return "Updated: " + s.LastUpdateTime
	}
	return "Last: " + s.LastUpdateTime + " (offline)"
}

// MarkOffline downgrades a cached snapshot after a failed fetch.
func (s *Snapshot) MarkOffline() {
	if s == nil {
		return
	}
	s.Fresh = false
	s.LastUpdateSuccess = false
}
