package draw

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// ChunkWriter accumulates one frame of terminal output and flushes it in
// MTU-sized writes. Cursor positions are relative to the canvas origin.
type ChunkWriter struct {
	buf    strings.Builder
	out    *bufio.Writer
	num    [20]byte
	offCol int
	offRow int
}

var _ io.Writer = (*ChunkWriter)(nil)

func NewChunkWriter(w io.Writer, offsetCol, offsetRow int) *ChunkWriter {
	return &ChunkWriter{out: bufio.NewWriterSize(w, 8192), offCol: offsetCol, offRow: offsetRow}
}

func (cw *ChunkWriter) SetOffset(offsetCol, offsetRow int) {
	cw.offCol, cw.offRow = offsetCol, offsetRow
}

// MoveCursor appends a cursor position for 1-based canvas coordinates.
func (cw *ChunkWriter) MoveCursor(col, row int) {
	cw.buf.WriteString("\033[")
	cw.buf.Write(strconv.AppendInt(cw.num[:0], int64(row+cw.offRow), 10))
	cw.buf.WriteByte(';')
	cw.buf.Write(strconv.AppendInt(cw.num[:0], int64(col+cw.offCol), 10))
	cw.buf.WriteByte('H')
}

func (cw *ChunkWriter) Write(p []byte) (int, error) {
	return cw.buf.Write(p)
}

func (cw *ChunkWriter) WriteString(s string) {
	cw.buf.WriteString(s)
}

// WriteAt writes s starting at a 1-based canvas cell. Cells left of the
// canvas are clipped.
func (cw *ChunkWriter) WriteAt(col, row int, s string) {
	if row < 1 {
		return
	}
	if col < 1 {
		r := []rune(s)
		if 1-col >= len(r) {
			return
		}
		s, col = string(r[1-col:]), 1
	}
	cw.MoveCursor(col, row)
	cw.buf.WriteString(s)
}

// Pending returns the bytes accumulated since the last Flush.
func (cw *ChunkWriter) Pending() string {
	return cw.buf.String()
}

// Flush writes the frame to the underlying writer and resets the buffer.
func (cw *ChunkWriter) Flush() error {
	data := cw.buf.String()
	cw.buf.Reset()
	for len(data) > 0 {
		n := min(len(data), maxChunkSize)
		if _, err := cw.out.WriteString(data[:n]); err != nil {
			return err
		}
		data = data[n:]
	}
	return cw.out.Flush()
}

// TermSizeFunc reports the terminal dimensions.
type TermSizeFunc func() (width, height int, err error)

// DefaultTermSizeFunc reads the size of os.Stdout.
var DefaultTermSizeFunc TermSizeFunc = func() (int, int, error) {
	return term.GetSize(int(os.Stdout.Fd()))
}

// ClearScreen clears the terminal and homes the cursor.
func ClearScreen(w io.Writer) {
	fmt.Fprint(w, "\033[H\033[2J")
}

func HideCursor(w io.Writer) {
	fmt.Fprint(w, "\033[?25l")
}

func ShowCursor(w io.Writer) {
	fmt.Fprint(w, "\033[?25h")
}
