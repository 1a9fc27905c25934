// Package quadtree is a point quad-tree used to answer "who is near me"
// queries. It is meant to be rebuilt from scratch every simulation step:
// there is no removal or update, only Reset followed by Insert calls.
//
// Nodes live in a single slice (an arena) and refer to their children by
// index, so Reset drops the whole tree in O(1) and keeps every allocation
// for the next build.
package quadtree

import (
	"errors"
	"fmt"
	"math"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
)

var (
	// ErrInvalidCapacity is returned when a tree is built with capacity < 1.
	ErrInvalidCapacity = errors.New("quadtree capacity must be at least 1")
	// ErrInvalidBoundary is returned for a malformed root boundary.
	ErrInvalidBoundary = errors.New("invalid quadtree boundary")
)

// Quadrant identifies a child of a divided node. The declaration order is
// the order used for insertion and queries. North is towards negative Y.
type Quadrant int

const (
	NorthEast Quadrant = iota
	NorthWest
	SouthEast
	SouthWest
)

var quadrantNames = [4]string{"NE", "NW", "SE", "SW"}

func (q Quadrant) String() string {
	if q < NorthEast || q > SouthWest {
		return fmt.Sprintf("Quadrant(%d)", int(q))
	}
	return quadrantNames[q]
}

// Point is an index entry. Ref is an opaque handle to the owner of the
// position (the boids use their index in the flock); the tree never
// dereferences it.
type Point struct {
	Position geometry.Vector2D
	Ref      int
}

type node struct {
	boundary geometry.Rectangle
	points   []Point
	// index of the NorthEast child, the other three follow it.
	// 0 means the node is not divided: the root never is a child.
	children int
}

// QuadTree is a point quad-tree over a fixed rectangular boundary.
// It is not safe for concurrent Insert; once built, concurrent Query
// calls are fine.
type QuadTree struct {
	capacity int
	nodes    []node
	size     int
}

// New creates an empty tree. The boundary must have non-negative finite
// half-extents and capacity must be at least 1.
func New(boundary geometry.Rectangle, capacity int) (*QuadTree, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	t := &QuadTree{capacity: capacity}
	if err := t.Reset(boundary); err != nil {
		return nil, err
	}
	return t, nil
}

// Reset empties the tree and sets a new root boundary, keeping the
// memory of the previous build.
func (t *QuadTree) Reset(boundary geometry.Rectangle) error {
	if err := boundary.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBoundary, err)
	}
	t.nodes = t.nodes[:0]
	t.size = 0
	t.newNode(boundary)
	return nil
}

// Capacity is the number of points a node holds before it divides.
func (t *QuadTree) Capacity() int { return t.capacity }

// Boundary is the root boundary.
func (t *QuadTree) Boundary() geometry.Rectangle { return t.nodes[0].boundary }

// Len is the number of points accepted since the last Reset.
func (t *QuadTree) Len() int { return t.size }

// NodeCount is the number of nodes, root included.
func (t *QuadTree) NodeCount() int { return len(t.nodes) }

// Insert adds p to the tree. It returns false when p lies outside the root
// boundary. A point inside the boundary is never dropped.
func (t *QuadTree) Insert(p Point) bool {
	if !t.insert(0, p) {
		return false
	}
	t.size++
	return true
}

func (t *QuadTree) insert(idx int, p Point) bool {
	if !t.nodes[idx].boundary.Contains(p.Position) {
		return false
	}

	if t.nodes[idx].children == 0 {
		if len(t.nodes[idx].points) < t.capacity {
			t.nodes[idx].points = append(t.nodes[idx].points, p)
			return true
		}
		t.subdivide(idx)
	}

	first := t.nodes[idx].children
	for q := NorthEast; q <= SouthWest; q++ {
		if t.insert(first+int(q), p) {
			return true
		}
	}
	panic(fmt.Sprintf("quadtree: point %v inside %v rejected by every quadrant", p.Position, t.nodes[idx].boundary))
}

// subdivide splits a node at its center. Each child spans from a parent edge
// to the center line, as Contains computes them, so the four children
// together accept every point the parent accepts.
func (t *QuadTree) subdivide(idx int) {
	b := t.nodes[idx].boundary
	westX, westW := cover(b.X-b.W, b.X)
	eastX, eastW := cover(b.X, b.X+b.W)
	northY, northH := cover(b.Y-b.H, b.Y)
	southY, southH := cover(b.Y, b.Y+b.H)

	first := len(t.nodes)
	t.newNode(geometry.Rectangle{X: eastX, Y: northY, W: eastW, H: northH})
	t.newNode(geometry.Rectangle{X: westX, Y: northY, W: westW, H: northH})
	t.newNode(geometry.Rectangle{X: eastX, Y: southY, W: eastW, H: southH})
	t.newNode(geometry.Rectangle{X: westX, Y: southY, W: westW, H: southH})
	t.nodes[idx].children = first
}

// cover returns a center and half-extent whose computed edges center-half
// and center+half reach at least lo and hi. The half-extent grows one ulp at
// a time since center±half may round inward.
func cover(lo, hi float64) (center, half float64) {
	center = lo/2 + hi/2
	half = hi/2 - lo/2
	for center-half > lo || center+half < hi {
		half = math.Nextafter(half, math.Inf(1))
	}
	return center, half
}

// newNode appends a node, reusing the point buffer left in the arena by a
// previous build when there is one.
func (t *QuadTree) newNode(boundary geometry.Rectangle) {
	if len(t.nodes) < cap(t.nodes) {
		t.nodes = t.nodes[:len(t.nodes)+1]
		n := &t.nodes[len(t.nodes)-1]
		n.boundary = boundary
		n.points = n.points[:0]
		n.children = 0
		return
	}
	t.nodes = append(t.nodes, node{
		boundary: boundary,
		points:   make([]Point, 0, min(t.capacity, 8)),
	})
}

// Query appends to found every point contained in region and returns the
// extended slice. Subtrees whose boundary does not meet region are skipped.
// Callers must only rely on the set of points returned, not their order.
func (t *QuadTree) Query(region geometry.Region, found []Point) []Point {
	return t.query(0, region, found)
}

func (t *QuadTree) query(idx int, region geometry.Region, found []Point) []Point {
	n := &t.nodes[idx]
	if !region.Intersects(n.boundary) {
		return found
	}
	for _, p := range n.points {
		if region.Contains(p.Position) {
			found = append(found, p)
		}
	}
	if n.children != 0 {
		for q := NorthEast; q <= SouthWest; q++ {
			found = t.query(n.children+int(q), region, found)
		}
	}
	return found
}

// NodeView is a read-only view of one node handed to Walk.
type NodeView struct {
	Boundary geometry.Rectangle
	// Points held directly by the node. Must not be modified or retained.
	Points  []Point
	Depth   int
	Divided bool
}

// Walk visits every node depth-first, parent before children, children in
// Quadrant order.
func (t *QuadTree) Walk(fn func(NodeView)) {
	t.walk(0, 0, fn)
}

func (t *QuadTree) walk(idx, depth int, fn func(NodeView)) {
	n := &t.nodes[idx]
	fn(NodeView{
		Boundary: n.boundary,
		Points:   n.points,
		Depth:    depth,
		Divided:  n.children != 0,
	})
	if n.children == 0 {
		return
	}
	for q := NorthEast; q <= SouthWest; q++ {
		t.walk(n.children+int(q), depth+1, fn)
	}
}

// Child returns the boundary of the node reached by following path from
// the root. It reports false when a node on the path is not divided.
func (t *QuadTree) Child(path ...Quadrant) (geometry.Rectangle, bool) {
	idx := 0
	for _, q := range path {
		if t.nodes[idx].children == 0 {
			return geometry.Rectangle{}, false
		}
		idx = t.nodes[idx].children + int(q)
	}
	return t.nodes[idx].boundary, true
}
