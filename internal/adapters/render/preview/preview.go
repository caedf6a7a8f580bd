package preview

import (
	"strings"

	"github.com/bnema/goalpanel/internal/adapters/display/record"
	"github.com/bnema/goalpanel/internal/adapters/render/oneshot"
	"github.com/bnema/goalpanel/internal/ports"
	"github.com/charmbracelet/lipgloss"
)

// One terminal cell stands for an 8x12 pixel block of the panel.
const (
	CellWidth  = 8
	CellHeight = 12
)

type styles struct {
	frame lipgloss.Style
	large lipgloss.Style
	ink   lipgloss.Style
}

func newStyles() styles {
	return styles{
		frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("244")).
			Padding(0, 1),
		large: lipgloss.NewStyle().Bold(true),
		ink:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	}
}

// Render draws a recorded panel refresh as boxed terminal text.
func Render(frame record.Frame) (string, error) {
	s := newStyles()
	return oneshot.Render(func() string { return renderFrame(frame, s) })
}

type cell struct {
	r    rune
	bold bool
}

type grid struct {
	cols  int
	rows  int
	cells [][]cell
}

func newGrid(width, height int) *grid {
	cols := max(width/CellWidth, 1)
	rows := max(height/CellHeight, 1)
	g := &grid{cols: cols, rows: rows, cells: make([][]cell, rows)}
	for i := range g.cells {
		g.cells[i] = make([]cell, cols)
		g.clear(i)
	}
	return g
}

func (g *grid) clear(row int) {
	for c := range g.cells[row] {
		g.cells[row][c] = cell{r: ' '}
	}
}

func (g *grid) set(col, row int, r rune, bold bool) {
	if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
		return
	}
	g.cells[row][col] = cell{r: r, bold: bold}
}

func renderFrame(frame record.Frame, s styles) string {
	g := newGrid(frame.Width, frame.Height)

	for _, op := range frame.Ops() {
		switch op.Kind {
		case record.OpFill:
			for row := range g.cells {
				g.clear(row)
			}
		case record.OpText:
			drawText(g, op)
		case record.OpLine:
			drawLine(g, op)
		case record.OpRect:
			drawRect(g, op)
		case record.OpFillRect:
			drawFill(g, op)
		case record.OpCircle:
			g.set(op.X/CellWidth, op.Y/CellHeight, '⊗', true)
		}
	}

	rows := make([]string, 0, g.rows)
	for _, line := range g.cells {
		rows = append(rows, renderRow(line, s))
	}
	return s.frame.Render(strings.Join(rows, "\n"))
}

// Text y is the baseline, so the glyphs sit in the cell row above it.
func drawText(g *grid, op record.Op) {
	row := (op.Y - 1) / CellHeight
	col := op.X / CellWidth
	bold := op.Font == ports.FontLarge || op.Font == ports.FontMedium
	for _, r := range op.Text {
		g.set(col, row, r, bold)
		col++
	}
}

func drawLine(g *grid, op record.Op) {
	x0, y0 := op.X/CellWidth, op.Y/CellHeight
	x1, y1 := op.X1/CellWidth, op.Y1/CellHeight

	switch {
	case x0 == x1:
		for row := min(y0, y1); row <= max(y0, y1); row++ {
			g.set(x0, row, '│', false)
		}
	case y0 == y1:
		for col := min(x0, x1); col <= max(x0, x1); col++ {
			g.set(col, y0, '─', false)
		}
	default:
		// Diagonals only appear in the error icon, which is drawn as one glyph.
	}
}

func drawRect(g *grid, op record.Op) {
	left, top := op.X/CellWidth, op.Y/CellHeight
	right, bottom := (op.X+op.W-1)/CellWidth, (op.Y+op.H-1)/CellHeight

	for col := left + 1; col < right; col++ {
		g.set(col, top, '─', false)
		g.set(col, bottom, '─', false)
	}
	for row := top + 1; row < bottom; row++ {
		g.set(left, row, '│', false)
		g.set(right, row, '│', false)
	}
	g.set(left, top, '┌', false)
	g.set(right, top, '┐', false)
	g.set(left, bottom, '└', false)
	g.set(right, bottom, '┘', false)
}

func drawFill(g *grid, op record.Op) {
	if op.W <= 0 || op.H <= 0 {
		return
	}
	left, right := op.X/CellWidth, (op.X+op.W-1)/CellWidth
	top, bottom := op.Y/CellHeight, (op.Y+op.H-1)/CellHeight
	for row := top; row <= bottom; row++ {
		for col := left; col <= right; col++ {
			g.set(col, row, '█', false)
		}
	}
}

func renderRow(line []cell, s styles) string {
	var b strings.Builder
	for i := 0; i < len(line); {
		j := i
		for j < len(line) && line[j].bold == line[i].bold {
			j++
		}
		var run strings.Builder
		for _, c := range line[i:j] {
			run.WriteRune(c.r)
		}
		if line[i].bold {
			b.WriteString(s.large.Render(run.String()))
		} else {
			b.WriteString(s.ink.Render(run.String()))
		}
		i = j
	}
	return b.String()
}
