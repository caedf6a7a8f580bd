package record

import (
	"unicode/utf8"

	"github.com/bnema/goalpanel/internal/ports"
)

// Panel geometry of the 3.7" 240x416 e-paper module in portrait.
const (
	NativeWidth       = 240
	NativeHeight      = 416
	DefaultPageHeight = 104
)

type OpKind string

const (
	OpFill       OpKind = "fill"
	OpText       OpKind = "text"
	OpLine       OpKind = "line"
	OpRect       OpKind = "rect"
	OpFillRect   OpKind = "fill_rect"
	OpCircle     OpKind = "circle"
	OpHibernated OpKind = "hibernate"
)

type Op struct {
	Kind   OpKind
	X, Y   int
	X1, Y1 int
	W, H   int
	R      int
	Color  ports.Color
	Font   ports.Font
	Text   string
}

// Frame is one completed full-window refresh.
type Frame struct {
	Width  int
	Height int
	Pages  [][]Op
}

// Ops returns the drawing of the last page; every page replays the same calls.
func (f Frame) Ops() []Op {
	if len(f.Pages) == 0 {
		return nil
	}
	return f.Pages[len(f.Pages)-1]
}

func (f Frame) Texts() []string {
	var texts []string
	for _, op := range f.Ops() {
		if op.Kind == OpText {
			texts = append(texts, op.Text)
		}
	}
	return texts
}

func (f Frame) Find(kind OpKind) []Op {
	var found []Op
	for _, op := range f.Ops() {
		if op.Kind == kind {
			found = append(found, op)
		}
	}
	return found
}

type metrics struct {
	advance int
	height  int
}

var fontMetrics = map[ports.Font]metrics{
	ports.FontDefault: {advance: 6, height: 8},
	ports.FontSmall:   {advance: 14, height: 17},
	ports.FontMedium:  {advance: 21, height: 25},
	ports.FontLarge:   {advance: 28, height: 33},
}

// Driver records drawing calls instead of pushing them over SPI. It is the
// host stand-in for the e-paper controller and the fake used in tests.
type Driver struct {
	// PanelWidth and PanelHeight are the native geometry at rotation 0.
	PanelWidth  int
	PanelHeight int
	PageHeight  int
	// OnFrame receives every completed refresh.
	OnFrame func(Frame)

	rotation   int
	font       ports.Font
	textColor  ports.Color
	cursorX    int
	cursorY    int
	pages      [][]Op
	pageCount  int
	last       Frame
	inits      int
	hibernated bool
}

var _ ports.PanelDriver = (*Driver)(nil)

func (d *Driver) Init() error {
	d.inits++
	d.hibernated = false
	return nil
}

func (d *Driver) SetRotation(rotation int) { d.rotation = rotation & 3 }
func (d *Driver) SetTextColor(c ports.Color) { d.textColor = c }
func (d *Driver) Rotation() int           { return d.rotation }
func (d *Driver) Inits() int              { return d.inits }
func (d *Driver) Hibernated() bool        { return d.hibernated }
func (d *Driver) LastFrame() Frame        { return d.last }

func (d *Driver) native() (int, int) {
	w, h := d.PanelWidth, d.PanelHeight
	if w <= 0 {
		w = NativeWidth
	}
	if h <= 0 {
		h = NativeHeight
	}
	return w, h
}

func (d *Driver) Width() int {
	w, h := d.native()
	if d.rotation%2 == 1 {
		return h
	}
	return w
}

func (d *Driver) Height() int {
	w, h := d.native()
	if d.rotation%2 == 1 {
		return w
	}
	return h
}

func (d *Driver) SetFullWindow() {
	pageHeight := d.PageHeight
	if pageHeight <= 0 {
		pageHeight = DefaultPageHeight
	}
	_, h := d.native()
	d.pageCount = (h + pageHeight - 1) / pageHeight
}

func (d *Driver) FirstPage() {
	if d.pageCount == 0 {
		d.SetFullWindow()
	}
	d.pages = [][]Op{nil}
}

func (d *Driver) NextPage() bool {
	if len(d.pages) < d.pageCount {
		d.pages = append(d.pages, nil)
		return true
	}

	d.last = Frame{Width: d.Width(), Height: d.Height(), Pages: d.pages}
	d.pages = nil
	if d.OnFrame != nil {
		d.OnFrame(d.last)
	}
	return false
}

func (d *Driver) FillScreen(c ports.Color) {
	d.record(Op{Kind: OpFill, Color: c})
}

func (d *Driver) SetFont(f ports.Font) { d.font = f }

func (d *Driver) SetCursor(x, y int) {
	d.cursorX = x
	d.cursorY = y
}

func (d *Driver) Print(text string) {
	width, _ := d.TextBounds(text)
	d.record(Op{Kind: OpText, X: d.cursorX, Y: d.cursorY, Font: d.font, Color: d.textColor, Text: text})
	d.cursorX += width
}

func (d *Driver) TextBounds(text string) (int, int) {
	m, ok := fontMetrics[d.font]
	if !ok {
		m = fontMetrics[ports.FontDefault]
	}
	return utf8.RuneCountInString(text) * m.advance, m.height
}

func (d *Driver) DrawLine(x0, y0, x1, y1 int, c ports.Color) {
	d.record(Op{Kind: OpLine, X: x0, Y: y0, X1: x1, Y1: y1, Color: c})
}

func (d *Driver) DrawRect(x, y, w, h int, c ports.Color) {
	d.record(Op{Kind: OpRect, X: x, Y: y, W: w, H: h, Color: c})
}

func (d *Driver) FillRect(x, y, w, h int, c ports.Color) {
	d.record(Op{Kind: OpFillRect, X: x, Y: y, W: w, H: h, Color: c})
}

func (d *Driver) DrawCircle(x, y, r int, c ports.Color) {
	d.record(Op{Kind: OpCircle, X: x, Y: y, R: r, Color: c})
}

func (d *Driver) Hibernate() {
	d.hibernated = true
}

// Drawing outside FirstPage/NextPage is dropped, as the paged buffer would.
func (d *Driver) record(op Op) {
	if len(d.pages) == 0 {
		return
	}
	d.pages[len(d.pages)-1] = append(d.pages[len(d.pages)-1], op)
}
