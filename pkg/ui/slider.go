package ui

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Slider edits a float64 in [Min, Max] by dragging.
type Slider struct {
	Label    string
	Value    float64
	Min, Max float64
	X, Y     float64
	W, H     float64
}

// NewSlider creates a slider with value clamped to [min, max].
func NewSlider(x, y, w float64, label string, min, max, value float64) *Slider {
	s := &Slider{Label: label, Min: min, Max: max, X: x, Y: y, W: w, H: 12}
	s.Value = s.clamp(value)
	return s
}

func (s *Slider) clamp(v float64) float64 {
	return max(s.Min, min(s.Max, v))
}

func (s *Slider) Update(c Cursor) bool {
	if !c.Pressed || !inside(c, s.X, s.Y, s.W, s.H) || s.W <= 0 {
		return false
	}
	p := (c.X - s.X) / s.W
	v := s.clamp(s.Min + p*(s.Max-s.Min))
	if v == s.Value {
		return false
	}
	s.Value = v
	return true
}

func (s *Slider) ratio() float64 {
	if s.Max == s.Min {
		return 0
	}
	return (s.Value - s.Min) / (s.Max - s.Min)
}

func (s *Slider) Draw(screen *ebiten.Image) {
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W), float32(s.H), trackColor, true)
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W*s.ratio()), float32(s.H), fillColor, true)
}

func (s *Slider) Caption() string { return fmt.Sprintf("%s: %.2f", s.Label, s.Value) }

func (s *Slider) Height() float64 { return s.H + 25 }

func (s *Slider) Place(x, y, width float64) {
	s.X, s.Y, s.W = x, y, width
}
