// Package ui holds the small immediate-mode widgets used to tune a running
// flock: sliders, checkboxes and buttons stacked in a scrollable panel.
package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// Cursor is the pointer state a widget reacts to.
type Cursor struct {
	X, Y    float64
	Pressed bool
}

// CurrentCursor reads the mouse from ebiten.
func CurrentCursor() Cursor {
	mx, my := ebiten.CursorPosition()
	return Cursor{
		X:       float64(mx),
		Y:       float64(my),
		Pressed: ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
	}
}

// Widget is anything a Panel can stack.
type Widget interface {
	// Update reacts to the cursor and reports whether the value changed.
	Update(c Cursor) bool
	Draw(screen *ebiten.Image)
	Caption() string
	Height() float64
	Place(x, y, width float64)
}

var (
	trackColor  = color.RGBA{R: 80, G: 80, B: 80, A: 255}
	fillColor   = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	borderColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	checkColor  = color.RGBA{R: 100, G: 200, B: 100, A: 255}
)

func inside(c Cursor, x, y, w, h float64) bool {
	return c.X >= x && c.X <= x+w && c.Y >= y && c.Y <= y+h
}
