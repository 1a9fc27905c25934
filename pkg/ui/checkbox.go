package ui

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Checkbox toggles a boolean on each click.
type Checkbox struct {
	Label   string
	Value   bool
	X, Y    float64
	Size    float64
	clicked bool // held since the last toggle
}

func NewCheckbox(x, y float64, label string, value bool) *Checkbox {
	return &Checkbox{Label: label, Value: value, X: x, Y: y, Size: 16}
}

func (c *Checkbox) Update(cur Cursor) bool {
	if cur.Pressed && inside(cur, c.X, c.Y, c.Size, c.Size) {
		if !c.clicked {
			c.Value = !c.Value
			c.clicked = true
			return true
		}
		return false
	}
	c.clicked = false
	return false
}

func (c *Checkbox) Draw(screen *ebiten.Image) {
	vector.StrokeRect(screen, float32(c.X), float32(c.Y), float32(c.Size), float32(c.Size), 2, borderColor, true)
	if c.Value {
		vector.FillRect(screen, float32(c.X+2), float32(c.Y+2), float32(c.Size-4), float32(c.Size-4), checkColor, true)
	}
}

func (c *Checkbox) Caption() string { return c.Label }

func (c *Checkbox) Height() float64 { return c.Size + 20 }

func (c *Checkbox) Place(x, y, _ float64) {
	c.X, c.Y = x, y
}
