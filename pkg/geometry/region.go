package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRegion is returned when a region is built with a negative or
// non-finite extent.
var ErrInvalidRegion = errors.New("invalid region")

// Region is the closed set of query shapes understood by the quad-tree:
// Rectangle and Circle. Both bounds are inclusive.
type Region interface {
	// Contains reports whether p lies inside the region.
	Contains(p Vector2D) bool
	// Intersects reports whether the region overlaps the rectangle r.
	Intersects(r Rectangle) bool

	region()
}

var (
	_ Region = Rectangle{}
	_ Region = Circle{}
)

// Rectangle is an axis-aligned box given by its center (X, Y) and its
// half-extents W and H. It covers [X-W, X+W] × [Y-H, Y+H].
type Rectangle struct {
	X, Y float64
	W, H float64
}

// NewRectangle validates the half-extents and builds a Rectangle.
func NewRectangle(x, y, w, h float64) (Rectangle, error) {
	if !finite(x) || !finite(y) {
		return Rectangle{}, fmt.Errorf("%w: rectangle center (%v, %v) is not finite", ErrInvalidRegion, x, y)
	}
	if !finite(w) || !finite(h) || w < 0 || h < 0 {
		return Rectangle{}, fmt.Errorf("%w: rectangle half-extents (%v, %v) must be finite and non-negative", ErrInvalidRegion, w, h)
	}
	return Rectangle{X: x, Y: y, W: w, H: h}, nil
}

// Validate reports whether r could have been built by NewRectangle.
func (r Rectangle) Validate() error {
	_, err := NewRectangle(r.X, r.Y, r.W, r.H)
	return err
}

// Contains reports whether p falls inside the inclusive bounds of r.
func (r Rectangle) Contains(p Vector2D) bool {
	return p.X >= r.X-r.W &&
		p.X <= r.X+r.W &&
		p.Y >= r.Y-r.H &&
		p.Y <= r.Y+r.H
}

// Intersects is the inclusive AABB overlap test.
func (r Rectangle) Intersects(other Rectangle) bool {
	return !(other.X-other.W > r.X+r.W ||
		other.X+other.W < r.X-r.W ||
		other.Y-other.H > r.Y+r.H ||
		other.Y+other.H < r.Y-r.H)
}

// Center returns the center of the rectangle.
func (r Rectangle) Center() Vector2D {
	return Vector2D{X: r.X, Y: r.Y}
}

func (r Rectangle) String() string {
	return fmt.Sprintf("Rect[(%.2f, %.2f) ±(%.2f, %.2f)]", r.X, r.Y, r.W, r.H)
}

func (Rectangle) region() {}

// Circle is a disc given by its center and radius.
type Circle struct {
	X, Y float64
	R    float64
}

// NewCircle validates the radius and builds a Circle.
func NewCircle(x, y, r float64) (Circle, error) {
	if !finite(x) || !finite(y) {
		return Circle{}, fmt.Errorf("%w: circle center (%v, %v) is not finite", ErrInvalidRegion, x, y)
	}
	if !finite(r) || r < 0 {
		return Circle{}, fmt.Errorf("%w: circle radius %v must be finite and non-negative", ErrInvalidRegion, r)
	}
	return Circle{X: x, Y: y, R: r}, nil
}

// Contains compares squared distances, no square root involved.
func (c Circle) Contains(p Vector2D) bool {
	dx := p.X - c.X
	dy := p.Y - c.Y
	return dx*dx+dy*dy <= c.R*c.R
}

// Intersects clamps the center onto r and compares the squared distance to
// that nearest point. The edges are computed as in Rectangle.Contains, so a
// rectangle holding a point of the circle always intersects it.
func (c Circle) Intersects(r Rectangle) bool {
	nx := math.Max(r.X-r.W, math.Min(c.X, r.X+r.W))
	ny := math.Max(r.Y-r.H, math.Min(c.Y, r.Y+r.H))
	dx := c.X - nx
	dy := c.Y - ny
	return dx*dx+dy*dy <= c.R*c.R
}

// Center returns the center of the circle.
func (c Circle) Center() Vector2D {
	return Vector2D{X: c.X, Y: c.Y}
}

func (c Circle) String() string {
	return fmt.Sprintf("Circle[(%.2f, %.2f) r=%.2f]", c.X, c.Y, c.R)
}

func (Circle) region() {}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
