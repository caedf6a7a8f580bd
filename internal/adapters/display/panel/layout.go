package panel

import "math"

const (
	marginLeft   = 10
	marginRight  = 20
	marginTop    = 10
	marginBottom = 10

	titleY    = 25
	mainTextY = 80
	subtitleY = 105
	detailY   = 120

	dividerX    = 200
	dividerEndY = 140

	progressBarY      = 150
	progressBarHeight = 25
	progressBarInset  = 2

	dateY = 196

	errorIconMargin = 25
	errorIconSpan   = 10
	errorIconRadius = 12

	errorLabelX = 20
	errorLabelY = 100
	errorTextY  = 140
)

const (
	titleText    = "DAYS TO GOAL"
	daysLabel    = "DAYS LEFT"
	percentLabel = "COMPLETE"
	errorLabel   = "ERROR:"
)

// FillWidth is the filled interior of a progress bar of barWidth pixels
// with the given inset on each side.
func FillWidth(percent float64, barWidth, inset int) int {
	interior := barWidth - 2*inset
	if interior <= 0 {
		return 0
	}

	ratio := percent / 100
	if ratio < 0 || math.IsNaN(ratio) {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	return int(ratio * float64(interior))
}
