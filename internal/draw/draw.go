// Package draw renders simulation snapshots to a terminal with half-block
// pixels and ANSI cursor addressing.
package draw

// Point is a 2D coordinate in logical view space, y pointing down.
type Point struct {
	X, Y float64
}

// Block characters for drawing.
const (
	BlockFull      = '█'
	BlockUpperHalf = '▀'
	BlockLowerHalf = '▄'
)

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
