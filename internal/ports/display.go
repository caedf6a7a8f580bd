package ports

import (
	"context"

	"github.com/bnema/goalpanel/internal/domain"
)

type Color uint8

const (
	ColorWhite Color = iota
	ColorBlack
)

type Font int

const (
	FontDefault Font = iota
	FontSmall
	FontMedium
	FontLarge
)

func (f Font) String() string {
	switch f {
	case FontSmall:
		return "bold12"
	case FontMedium:
		return "bold18"
	case FontLarge:
		return "bold24"
	default:
		return "default"
	}
}

// PanelDriver is a paged e-paper driver. Drawing calls between FirstPage and
// the NextPage call that returns false are replayed once per page.
type PanelDriver interface {
	Init() error
	SetRotation(rotation int)
	SetTextColor(c Color)
	Width() int
	Height() int
	SetFullWindow()
	FirstPage()
	NextPage() bool
	FillScreen(c Color)
	SetFont(f Font)
	SetCursor(x, y int)
	Print(text string)
	// TextBounds measures text in the current font.
	TextBounds(text string) (width, height int)
	DrawLine(x0, y0, x1, y1 int, c Color)
	DrawRect(x, y, w, h int, c Color)
	FillRect(x, y, w, h int, c Color)
	DrawCircle(x, y, r int, c Color)
	Hibernate()
}

// PowerPin switches the display power rail.
type PowerPin interface {
	High() error
	Low() error
	// Release stops driving the pin.
	Release() error
}

type Surface interface {
	Init(ctx context.Context) error
	Render(snapshot domain.Snapshot) error
	RenderError(message string) error
	Hibernate() error
}
