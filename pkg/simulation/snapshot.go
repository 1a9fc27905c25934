package simulation

import (
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/quadtree"
)

// AgentView is what a renderer needs to draw one boid.
type AgentView struct {
	Position geometry.Vector2D
	Heading  float64
}

// Snapshot is the per-step output handed to renderers. It shares no memory
// with the simulation.
type Snapshot struct {
	RunID  string
	Stats  Stats
	Agents []AgentView

	// Tree holds every node boundary of the last index, when requested.
	Tree []geometry.Rectangle

	// Focus is the index of the highlighted boid, or -1.
	Focus           int
	FocusNeighbours []int

	// Err is set once the world has halted on a failed step.
	Err error
}

// SnapshotOptions select the optional parts of a Snapshot.
type SnapshotOptions struct {
	Tree  bool
	Focus int // -1 for none
}

// Snapshot copies the state of the last completed step.
func (s *Simulation) Snapshot(opts SnapshotOptions) *Snapshot {
	snap := &Snapshot{
		RunID:  s.runID.String(),
		Stats:  s.stats,
		Agents: make([]AgentView, len(s.boids)),
		Focus:  -1,
	}
	for i, b := range s.boids {
		snap.Agents[i] = AgentView{Position: b.Position, Heading: b.Heading()}
	}

	if opts.Tree && s.steps > 0 {
		snap.Tree = make([]geometry.Rectangle, 0, s.tree.NodeCount())
		s.tree.Walk(func(n quadtree.NodeView) {
			snap.Tree = append(snap.Tree, n.Boundary)
		})
	}

	if opts.Focus >= 0 && opts.Focus < len(s.boids) {
		snap.Focus = opts.Focus
		snap.FocusNeighbours = append([]int(nil), s.neighbours[opts.Focus]...)
	}
	return snap
}
