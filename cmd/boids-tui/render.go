package main

import "math"

// arrows by heading octant, starting east and turning clockwise since y grows down
var arrows = [8]rune{'→', '↘', '↓', '↙', '←', '↖', '↑', '↗'}

// glyph returns the arrow closest to heading (radians).
func glyph(heading float64) rune {
	if math.IsNaN(heading) {
		return '·'
	}
	octant := int(math.Round(heading/(math.Pi/4))) % 8
	if octant < 0 {
		octant += 8
	}
	return arrows[octant]
}

// cell maps a world position onto a cols×rows grid. ok is false when the
// grid is empty.
func cell(x, y, worldW, worldH float64, cols, rows int) (col, row int, ok bool) {
	if cols <= 0 || rows <= 0 {
		return 0, 0, false
	}
	col = min(cols-1, max(0, int(x/worldW*float64(cols))))
	row = min(rows-1, max(0, int(y/worldH*float64(rows))))
	return col, row, true
}
