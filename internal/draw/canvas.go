package draw

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
)

// Canvas is a pixel buffer with two pixels per terminal cell, stacked
// vertically and rendered as half blocks. Drawing happens in a logical
// coordinate space that is scaled to the current terminal size.
type Canvas struct {
	cols, rows int
	pixelRows  int // rows * 2
	pixels     []bool

	logicalWidth  float64
	logicalHeight float64 // in pixels, i.e. twice the logical rows
	scaleX        float64
	scaleY        float64

	// 0-based offset of the render area inside a larger terminal.
	offsetCol int
	offsetRow int

	out       strings.Builder
	scaled    []Point
	crossings []float64
	ring      []Point
}

// NewScaledCanvas creates a canvas of cols x rows terminal cells drawing
// in a logicalWidth x logicalHeight space.
func NewScaledCanvas(cols, rows int, logicalWidth, logicalHeight float64) *Canvas {
	c := &Canvas{logicalWidth: logicalWidth, logicalHeight: logicalHeight}
	c.Resize(cols, rows)
	return c
}

// Resize adapts the canvas to a new terminal size, keeping the logical size.
func (c *Canvas) Resize(cols, rows int) {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	if cols != c.cols || rows != c.rows || c.pixels == nil {
		c.cols, c.rows, c.pixelRows = cols, rows, rows*2
		c.pixels = make([]bool, c.pixelRows*cols)
	}
	c.scaleX = float64(cols) / c.logicalWidth
	c.scaleY = float64(c.pixelRows) / c.logicalHeight
}

// SetOffset positions the canvas at terminal cell (col+1, row+1).
func (c *Canvas) SetOffset(col, row int) {
	c.offsetCol, c.offsetRow = col, row
}

func (c *Canvas) OffsetCol() int { return c.offsetCol }

func (c *Canvas) OffsetRow() int { return c.offsetRow }

func (c *Canvas) Clear() { clear(c.pixels) }

// ForceRedraw is a hook for callers that cleared the terminal; the canvas
// always repaints every set pixel, so only the buffer is reset.
func (c *Canvas) ForceRedraw() { c.out.Reset() }

func (c *Canvas) set(x, y int) {
	if x >= 0 && x < c.cols && y >= 0 && y < c.pixelRows {
		c.pixels[y*c.cols+x] = true
	}
}

// IsSet reports whether the pixel covering logical point p is set.
func (c *Canvas) IsSet(p Point) bool {
	x, y := c.toPixel(p)
	if x < 0 || x >= c.cols || y < 0 || y >= c.pixelRows {
		return false
	}
	return c.pixels[y*c.cols+x]
}

// Count returns the number of set pixels.
func (c *Canvas) Count() int {
	n := 0
	for _, p := range c.pixels {
		if p {
			n++
		}
	}
	return n
}

func (c *Canvas) toPixel(p Point) (int, int) {
	return int(math.Round(p.X * c.scaleX)), int(math.Round(p.Y * c.scaleY))
}

// Plot sets the pixel covering logical point p.
func (c *Canvas) Plot(p Point) {
	c.set(c.toPixel(p))
}

// DrawLine draws a Bresenham line between two logical points.
func (c *Canvas) DrawLine(p1, p2 Point) {
	x1, y1 := c.toPixel(p1)
	x2, y2 := c.toPixel(p2)
	dx, dy := abs(x2-x1), abs(y2-y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		c.set(x1, y1)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// DrawPolygon draws a closed polygon, scanline-filled when filled is set.
func (c *Canvas) DrawPolygon(points []Point, filled bool) {
	if len(points) < 3 {
		return
	}
	if filled {
		c.fill(points)
	}
	for i := range points {
		c.DrawLine(points[i], points[(i+1)%len(points)])
	}
}

// DrawCircle approximates a circle of logical radius r with a polygon
// whose vertex count grows with the on-screen size. Circles smaller than a
// pixel become a dot.
func (c *Canvas) DrawCircle(center Point, r float64, filled bool) {
	px := r * math.Max(c.scaleX, c.scaleY)
	if px < 0.75 {
		c.Plot(center)
		return
	}
	n := int(math.Ceil(px * 2.5))
	n = max(8, min(n, 48))
	if cap(c.ring) < n {
		c.ring = make([]Point, n)
	}
	ring := c.ring[:n]
	for i := range ring {
		a := 2 * math.Pi * float64(i) / float64(n)
		ring[i] = Point{X: center.X + r*math.Cos(a), Y: center.Y + r*math.Sin(a)}
	}
	c.DrawPolygon(ring, filled)
}

// fill scanline-fills a polygon in pixel space.
func (c *Canvas) fill(points []Point) {
	if cap(c.scaled) < len(points) {
		c.scaled = make([]Point, len(points))
	}
	scaled := c.scaled[:len(points)]
	minY, maxY := math.Inf(1), math.Inf(-1)
	for i, p := range points {
		scaled[i] = Point{X: p.X * c.scaleX, Y: p.Y * c.scaleY}
		minY = math.Min(minY, scaled[i].Y)
		maxY = math.Max(maxY, scaled[i].Y)
	}

	for y := int(math.Floor(minY)); y <= int(math.Ceil(maxY)); y++ {
		scan := float64(y) + 0.5
		xs := c.crossings[:0]
		for i := range scaled {
			a, b := scaled[i], scaled[(i+1)%len(scaled)]
			if (a.Y <= scan && b.Y > scan) || (b.Y <= scan && a.Y > scan) {
				xs = append(xs, a.X+(scan-a.Y)/(b.Y-a.Y)*(b.X-a.X))
			}
		}
		c.crossings = xs
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			for x := int(math.Ceil(xs[i])); x <= int(math.Floor(xs[i+1])); x++ {
				c.set(x, y)
			}
		}
	}
}

// maxChunkSize keeps single writes below a typical MTU for SSH sessions.
const maxChunkSize = 1400

// Render writes every non-empty cell as a positioned half block.
func (c *Canvas) Render(w io.Writer) {
	c.out.Reset()
	c.out.Grow(c.cols * c.rows * 4)
	for row := 0; row < c.rows; row++ {
		top := c.pixels[row*2*c.cols : (row*2+1)*c.cols]
		bottom := c.pixels[(row*2+1)*c.cols : (row*2+2)*c.cols]
		for col := 0; col < c.cols; col++ {
			var ch rune
			switch {
			case top[col] && bottom[col]:
				ch = BlockFull
			case top[col]:
				ch = BlockUpperHalf
			case bottom[col]:
				ch = BlockLowerHalf
			default:
				continue
			}
			fmt.Fprintf(&c.out, "\033[%d;%dH%c", row+1+c.offsetRow, col+1+c.offsetCol, ch)
		}
	}
	writeChunked(w, c.out.String())
}

// RenderBorder frames the canvas when the terminal is larger than the
// render area: horizontal bars need a row offset, vertical bars a column
// offset, corners need both.
func (c *Canvas) RenderBorder(w io.Writer) {
	sides := c.offsetCol >= 1
	caps := c.offsetRow >= 1
	left, right := c.offsetCol, c.offsetCol+c.cols+1
	top, bottom := c.offsetRow, c.offsetRow+c.rows+1

	var b strings.Builder
	bar := strings.Repeat("─", c.cols)
	if caps {
		if sides {
			fmt.Fprintf(&b, "\033[%d;%dH┌%s┐", top, left, bar)
			fmt.Fprintf(&b, "\033[%d;%dH└%s┘", bottom, left, bar)
		} else {
			fmt.Fprintf(&b, "\033[%d;%dH%s", top, left+1, bar)
			fmt.Fprintf(&b, "\033[%d;%dH%s", bottom, left+1, bar)
		}
	}
	if sides {
		for row := top + 1; row < bottom; row++ {
			if row < 1 {
				continue
			}
			fmt.Fprintf(&b, "\033[%d;%dH│\033[%d;%dH│", row, left, row, right)
		}
	}
	writeChunked(w, b.String())
}

func (c *Canvas) LogicalWidth() float64 { return c.logicalWidth }

func (c *Canvas) LogicalHeight() float64 { return c.logicalHeight }

func (c *Canvas) TerminalWidth() int { return c.cols }

func (c *Canvas) TerminalHeight() int { return c.rows }

// LogicalToTerminal converts a logical point to the 1-based cell covering
// it, relative to the canvas origin.
func (c *Canvas) LogicalToTerminal(p Point) (col, row int) {
	x, y := c.toPixel(p)
	return x + 1, y/2 + 1
}

func writeChunked(w io.Writer, data string) {
	for len(data) > 0 {
		n := min(len(data), maxChunkSize)
		_, _ = io.WriteString(w, data[:n])
		data = data[n:]
	}
}
