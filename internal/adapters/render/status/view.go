package status

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/goalpanel/internal/adapters/render/oneshot"
	"github.com/bnema/goalpanel/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const progressBarWidth = 24

// CacheStatus is what the retained store currently holds.
type CacheStatus struct {
	Store    string
	HasData  bool
	Snapshot domain.Snapshot
	// SavedAt is when the record was last written, zero when unknown.
	SavedAt time.Time
}

type RenderOptions struct {
	Now        time.Time
	StaleAfter time.Duration
}

// Render draws the retained snapshot status for the terminal.
func Render(cache CacheStatus, opts RenderOptions) (string, error) {
	s := newStyles()
	return oneshot.Render(func() string { return renderView(cache, opts, s) })
}

func renderView(cache CacheStatus, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Retained Snapshot"),
		s.header.Render("store: " + storeLabel(cache.Store)),
	}

	if !cache.HasData {
		lines = append(lines, s.empty.Render("No retained snapshot. The next wake needs the network to show data."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	lines = append(lines, s.section.Render(renderSnapshot(cache, opts, s)))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderSnapshot(cache CacheStatus, opts RenderOptions, s styles) string {
	snapshot := cache.Snapshot

	days := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.label.Render("days left:"),
		" ",
		s.value.Render(strconv.Itoa(snapshot.DaysRemaining)),
		" ",
		s.header.Render("("+snapshot.BreakdownLabel()+")"),
	)

	progress := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.label.Render("progress: "),
		" ",
		renderProgressBar(snapshot.ProgressPercent, progressBarWidth, s),
		" ",
		s.value.Render(snapshot.ProgressLabel()),
	)

	target := s.label.Render("target:   ") + " " + valueOrUnavailable(snapshot.TargetDateLabel, s)

	result := s.ok.Render("ok")
	if !snapshot.LastUpdateSuccess {
		result = s.warning.Render("failed")
	}
	updated := s.label.Render("updated:  ") + " " + valueOrUnavailable(snapshot.LastUpdateTime, s) + " " + result

	return lipgloss.JoinVertical(lipgloss.Left, days, progress, target, updated, savedLine(cache.SavedAt, opts, s))
}

func savedLine(savedAt time.Time, opts RenderOptions, s styles) string {
	label := s.label.Render("saved:    ") + " "
	if savedAt.IsZero() {
		return label + s.empty.Render("unknown")
	}
	if opts.Now.IsZero() {
		return label + savedAt.Format(time.RFC3339)
	}

	line := label + humanize.RelTime(savedAt, opts.Now, "ago", "from now")
	if opts.StaleAfter > 0 && opts.Now.Sub(savedAt) > opts.StaleAfter {
		line += " " + s.warning.Render("[stale]")
	}
	return line
}

func valueOrUnavailable(value string, s styles) string {
	if strings.TrimSpace(value) == "" || value == domain.Unavailable {
		return s.empty.Render(domain.Unavailable)
	}
	return value
}

func storeLabel(store string) string {
	if store == "" {
		return "memory"
	}
	return store
}

func renderProgressBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(percent) / 100.0))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Summary is a plain one-line description for logs and non-terminal output.
func Summary(cache CacheStatus) string {
	if !cache.HasData {
		return "retained store is empty"
	}
	s := cache.Snapshot
	return fmt.Sprintf("%d days left, %s complete, target %s, updated %s", s.DaysRemaining, s.ProgressLabel(), s.TargetDateLabel, s.LastUpdateTime)
}
