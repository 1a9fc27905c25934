package quadtree

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
	"github.com/stretchr/testify/require"
)

var world = geometry.Rectangle{X: 500, Y: 400, W: 500, H: 400}

func randomPoints(rng *rand.Rand, n int, b geometry.Rectangle) []Point {
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{
			Position: geometry.Vector2D{
				X: b.X - b.W + rng.Float64()*2*b.W,
				Y: b.Y - b.H + rng.Float64()*2*b.H,
			},
			Ref: i,
		}
	}
	return pts
}

// edgePoints sits on the outer boundary and on the first two levels of
// dividing lines, where quadrants share edges.
func edgePoints(b geometry.Rectangle, firstRef int) []Point {
	xs := []float64{b.X - b.W, b.X - b.W/2, b.X, b.X + b.W/2, b.X + b.W}
	ys := []float64{b.Y - b.H, b.Y - b.H/2, b.Y, b.Y + b.H/2, b.Y + b.H}
	var pts []Point
	for _, x := range xs {
		for _, y := range ys {
			pts = append(pts, Point{Position: geometry.Vector2D{X: x, Y: y}, Ref: firstRef + len(pts)})
		}
	}
	return pts
}

// inside drops the points that rounding pushed past the computed edges of b.
func inside(b geometry.Rectangle, points []Point) []Point {
	return slices.DeleteFunc(points, func(p Point) bool { return !b.Contains(p.Position) })
}

func refs(points []Point) []int {
	out := make([]int, len(points))
	for i, p := range points {
		out[i] = p.Ref
	}
	slices.Sort(out)
	return out
}

func linearScan(points []Point, region geometry.Region) []int {
	out := make([]int, 0)
	for _, p := range points {
		if region.Contains(p.Position) {
			out = append(out, p.Ref)
		}
	}
	slices.Sort(out)
	return out
}

func build(t testing.TB, capacity int, points []Point) *QuadTree {
	t.Helper()
	tree, err := New(world, capacity)
	require.NoError(t, err)
	for _, p := range points {
		require.True(t, tree.Insert(p), "point %v should be accepted", p.Position)
	}
	return tree
}

func TestNew(t *testing.T) {
	t.Run("rejects capacity below one", func(t *testing.T) {
		_, err := New(world, 0)
		require.ErrorIs(t, err, ErrInvalidCapacity)
	})

	t.Run("rejects negative boundary", func(t *testing.T) {
		_, err := New(geometry.Rectangle{X: 0, Y: 0, W: -1, H: 10}, 4)
		require.ErrorIs(t, err, ErrInvalidBoundary)
		require.ErrorIs(t, err, geometry.ErrInvalidRegion)
	})

	t.Run("empty tree", func(t *testing.T) {
		tree, err := New(world, 4)
		require.NoError(t, err)
		require.Equal(t, 0, tree.Len())
		require.Equal(t, 1, tree.NodeCount())
		require.Equal(t, world, tree.Boundary())
		require.Empty(t, tree.Query(world, nil))
	})
}

func TestInsert_OutsideBoundary(t *testing.T) {
	tree, err := New(world, 1)
	require.NoError(t, err)

	require.False(t, tree.Insert(Point{Position: geometry.Vector2D{X: -0.001, Y: 10}}))
	require.False(t, tree.Insert(Point{Position: geometry.Vector2D{X: 10, Y: 800.001}}))
	require.Equal(t, 0, tree.Len())
}

func TestInsert_NoPointLoss(t *testing.T) {
	for _, capacity := range []int{1, 3, 100} {
		rng := rand.New(rand.NewPCG(1, uint64(capacity)))
		points := randomPoints(rng, 1000, world)
		points = append(points, edgePoints(world, len(points))...)

		tree := build(t, capacity, points)

		require.Equal(t, len(points), tree.Len(), "capacity %d", capacity)
		require.Equal(t, refs(points), refs(tree.Query(world, nil)), "capacity %d", capacity)
	}
}

func TestInsert_DividingLine(t *testing.T) {
	tree, err := New(world, 1)
	require.NoError(t, err)

	center := geometry.Vector2D{X: world.X, Y: world.Y}
	require.True(t, tree.Insert(Point{Position: center, Ref: 0}))
	// forces a split with the point exactly on both dividing lines
	require.True(t, tree.Insert(Point{Position: center, Ref: 1}))
	require.True(t, tree.Insert(Point{Position: geometry.Vector2D{X: world.X, Y: 10}, Ref: 2}))
	require.True(t, tree.Insert(Point{Position: geometry.Vector2D{X: 10, Y: world.Y}, Ref: 3}))

	require.Equal(t, []int{0, 1, 2, 3}, refs(tree.Query(world, nil)))
}

func TestInsert_CoincidentPoints(t *testing.T) {
	tree, err := New(world, 2)
	require.NoError(t, err)

	p := geometry.Vector2D{X: 123.25, Y: 77.5}
	for i := 0; i < 50; i++ {
		require.True(t, tree.Insert(Point{Position: p, Ref: i}))
	}
	c, err := geometry.NewCircle(p.X, p.Y, 0)
	require.NoError(t, err)
	require.Len(t, tree.Query(c, nil), 50)
}

func TestQuery_FindsEdgePointsOnRandomBoundaries(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 14))
	boundaries := []geometry.Rectangle{
		// 0.1 + 0.2 is not representable
		{X: 0.1, Y: 0.1, W: 0.2, H: 0.2},
		{X: 1e9 + 0.3, Y: -7.7, W: 1e-6, H: 0.35},
	}
	for i := 0; i < 50; i++ {
		boundaries = append(boundaries, geometry.Rectangle{
			X: rng.Float64()*2000 - 1000,
			Y: rng.Float64()*2000 - 1000,
			W: 1e-3 + rng.Float64()*1000,
			H: 1e-3 + rng.Float64()*1000,
		})
		// world roots built from a width and height
		w, h := 1e-3+rng.Float64()*2000, 1e-3+rng.Float64()*2000
		boundaries = append(boundaries, geometry.Rectangle{X: w / 2, Y: h / 2, W: w / 2, H: h / 2})
	}

	for _, b := range boundaries {
		points := edgePoints(b, 0)
		points = append(points, inside(b, randomPoints(rng, 20, b))...)
		for i := range points {
			points[i].Ref = i
		}

		tree, err := New(b, 1)
		require.NoError(t, err)
		for _, p := range points {
			require.True(t, tree.Insert(p), "point %v in %v", p.Position, b)
		}
		require.Equal(t, len(points), tree.Len(), "boundary %v", b)

		for _, p := range points {
			for _, region := range []geometry.Region{
				geometry.Rectangle{X: p.Position.X, Y: p.Position.Y},
				geometry.Circle{X: p.Position.X, Y: p.Position.Y},
			} {
				got := refs(tree.Query(region, nil))
				require.Contains(t, got, p.Ref, "point %v in %v, region %v", p.Position, b, region)
				require.Equal(t, linearScan(points, region), got, "boundary %v, region %v", b, region)
			}
		}
	}
}

func TestSubdivide_ChildrenCoverParent(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 5))
	b := geometry.Rectangle{X: 0.1, Y: 0.7, W: 0.2, H: 0.3}
	tree, err := New(b, 1)
	require.NoError(t, err)
	for _, p := range inside(b, randomPoints(rng, 200, b)) {
		require.True(t, tree.Insert(p))
	}

	var check func(path []Quadrant)
	check = func(path []Quadrant) {
		parent, _ := tree.Child(path...)
		ne, ok := tree.Child(append(slices.Clone(path), NorthEast)...)
		if !ok {
			return
		}
		nw, _ := tree.Child(append(slices.Clone(path), NorthWest)...)
		se, _ := tree.Child(append(slices.Clone(path), SouthEast)...)
		sw, _ := tree.Child(append(slices.Clone(path), SouthWest)...)

		require.LessOrEqual(t, nw.X-nw.W, parent.X-parent.W, "west edge under %v", path)
		require.LessOrEqual(t, sw.X-sw.W, parent.X-parent.W, "west edge under %v", path)
		require.GreaterOrEqual(t, ne.X+ne.W, parent.X+parent.W, "east edge under %v", path)
		require.GreaterOrEqual(t, se.X+se.W, parent.X+parent.W, "east edge under %v", path)
		require.LessOrEqual(t, ne.Y-ne.H, parent.Y-parent.H, "north edge under %v", path)
		require.LessOrEqual(t, nw.Y-nw.H, parent.Y-parent.H, "north edge under %v", path)
		require.GreaterOrEqual(t, se.Y+se.H, parent.Y+parent.H, "south edge under %v", path)
		require.GreaterOrEqual(t, sw.Y+sw.H, parent.Y+parent.H, "south edge under %v", path)
		// the center lines are shared
		require.GreaterOrEqual(t, nw.X+nw.W, parent.X, "center line under %v", path)
		require.LessOrEqual(t, ne.X-ne.W, parent.X, "center line under %v", path)
		require.GreaterOrEqual(t, ne.Y+ne.H, parent.Y, "center line under %v", path)
		require.LessOrEqual(t, se.Y-se.H, parent.Y, "center line under %v", path)

		for q := NorthEast; q <= SouthWest; q++ {
			check(append(slices.Clone(path), q))
		}
	}
	check(nil)
}

func TestQuery_MatchesLinearScan(t *testing.T) {
	for _, capacity := range []int{1, 3, 100} {
		rng := rand.New(rand.NewPCG(42, uint64(capacity)))
		points := randomPoints(rng, 500, world)
		points = append(points, edgePoints(world, len(points))...)

		shuffled := slices.Clone(points)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		for _, order := range [][]Point{points, shuffled} {
			tree := build(t, capacity, order)

			for i := 0; i < 200; i++ {
				center := randomPoints(rng, 1, world)[0].Position
				size := rng.Float64() * 300

				var region geometry.Region
				if i%2 == 0 {
					region = geometry.Circle{X: center.X, Y: center.Y, R: size}
				} else {
					region = geometry.Rectangle{X: center.X, Y: center.Y, W: size, H: size / 2}
				}

				require.Equal(t, linearScan(points, region), refs(tree.Query(region, nil)),
					"capacity %d, region %v", capacity, region)
			}
		}
	}
}

func TestQuery_AppendsToAccumulator(t *testing.T) {
	tree := build(t, 1, []Point{
		{Position: geometry.Vector2D{X: 10, Y: 10}, Ref: 1},
		{Position: geometry.Vector2D{X: 900, Y: 700}, Ref: 2},
	})

	found := []Point{{Ref: 99}}
	found = tree.Query(geometry.Circle{X: 10, Y: 10, R: 5}, found)
	require.Equal(t, []int{1, 99}, refs(found))

	// a region that misses the whole tree leaves the accumulator alone
	found = tree.Query(geometry.Circle{X: -500, Y: -500, R: 5}, found)
	require.Len(t, found, 2)
}

func TestSubdivide_Shape(t *testing.T) {
	tree := build(t, 1, []Point{
		{Position: geometry.Vector2D{X: 100, Y: 100}},
		{Position: geometry.Vector2D{X: 700, Y: 600}},
	})

	want := map[Quadrant]geometry.Vector2D{
		NorthEast: {X: world.X + world.W/2, Y: world.Y - world.H/2},
		NorthWest: {X: world.X - world.W/2, Y: world.Y - world.H/2},
		SouthEast: {X: world.X + world.W/2, Y: world.Y + world.H/2},
		SouthWest: {X: world.X - world.W/2, Y: world.Y + world.H/2},
	}
	for q, center := range want {
		child, ok := tree.Child(q)
		require.True(t, ok, q.String())
		require.Equal(t, world.W/2, child.W, q.String())
		require.Equal(t, world.H/2, child.H, q.String())
		require.Equal(t, center, child.Center(), q.String())
	}

	_, ok := tree.Child(NorthEast, NorthEast)
	require.False(t, ok, "second level should not exist yet")
}

func TestWalk(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	points := randomPoints(rng, 64, world)
	tree := build(t, 3, points)

	var nodes, held, maxDepth int
	tree.Walk(func(n NodeView) {
		nodes++
		held += len(n.Points)
		maxDepth = max(maxDepth, n.Depth)
		require.LessOrEqual(t, len(n.Points), 3)
		if n.Divided {
			require.Len(t, n.Points, 3, "a node divides only once full")
		}
	})

	require.Equal(t, tree.NodeCount(), nodes)
	require.Equal(t, len(points), held)
	require.Positive(t, maxDepth)
}

func TestReset(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 3))
	tree := build(t, 2, randomPoints(rng, 300, world))
	require.Greater(t, tree.NodeCount(), 1)

	small := geometry.Rectangle{X: 50, Y: 50, W: 50, H: 50}
	require.NoError(t, tree.Reset(small))
	require.Equal(t, 0, tree.Len())
	require.Equal(t, 1, tree.NodeCount())
	require.Equal(t, small, tree.Boundary())
	require.Empty(t, tree.Query(world, nil))

	require.ErrorIs(t, tree.Reset(geometry.Rectangle{W: -2}), ErrInvalidBoundary)
}

func TestQuadrant_String(t *testing.T) {
	require.Equal(t, "NE", NorthEast.String())
	require.Equal(t, "SW", SouthWest.String())
	require.Equal(t, "Quadrant(9)", Quadrant(9).String())
}

func BenchmarkRebuild(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 1))
	points := randomPoints(rng, 1000, world)
	tree, _ := New(world, 3)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tree.Reset(world)
		for _, p := range points {
			tree.Insert(p)
		}
	}
}

func BenchmarkQuery(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 1))
	points := randomPoints(rng, 1000, world)
	tree, _ := New(world, 3)
	for _, p := range points {
		tree.Insert(p)
	}
	region := geometry.Circle{X: 500, Y: 400, R: 50}
	found := make([]Point, 0, 64)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		found = tree.Query(region, found[:0])
	}
}
