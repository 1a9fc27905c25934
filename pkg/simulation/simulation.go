package simulation

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/quadtree"
	"github.com/tochemey/goakt/v3/log"
	"golang.org/x/sync/errgroup"
)

// ErrOutOfBounds is returned when a boid cannot be placed in the world,
// at construction or when a step rebuilds the index.
var ErrOutOfBounds = errors.New("boid outside the world boundary")

// Simulation owns the flock and the per-step spatial index. A step runs to
// completion before the next one starts; Simulation is not safe for
// concurrent use.
type Simulation struct {
	cfg      Config
	runID    uuid.UUID
	logger   log.Logger
	rules    behavior.Rules
	boundary geometry.Rectangle
	workers  int

	boids []*behavior.Boid
	tree  *quadtree.QuadTree

	// per boid, reused from step to step
	forces     []geometry.Vector2D
	neighbours [][]int
	found      []quadtree.Point
	others     []*behavior.Boid

	steps uint64
	stats Stats
}

// Stats describe the last completed step.
type Stats struct {
	Step           uint64
	Boids          int
	TreeNodes      int
	MeanNeighbours float64
}

type Option func(*Simulation)

// WithLogger sets the logger, log.DiscardLogger by default.
func WithLogger(l log.Logger) Option {
	return func(s *Simulation) {
		s.logger = l
	}
}

// New builds a simulation over boids. The slice is owned by the simulation
// from now on. Every boid must lie inside [0, WorldWidth] × [0, WorldHeight].
func New(cfg *Config, boids []*behavior.Boid, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	boundary, err := geometry.NewRectangle(cfg.WorldWidth/2, cfg.WorldHeight/2, cfg.WorldWidth/2, cfg.WorldHeight/2)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	tree, err := quadtree.New(boundary, cfg.Capacity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for i, b := range boids {
		if !b.Position.IsFinite() || !boundary.Contains(b.Position) {
			return nil, fmt.Errorf("%w: boid %d at %s", ErrOutOfBounds, i, b.Position)
		}
	}

	s := &Simulation{
		cfg:        *cfg,
		runID:      uuid.New(),
		logger:     log.DiscardLogger,
		rules:      cfg.Rules(),
		boundary:   boundary,
		workers:    cfg.Workers,
		boids:      boids,
		tree:       tree,
		forces:     make([]geometry.Vector2D, len(boids)),
		neighbours: make([][]int, len(boids)),
	}
	if s.workers == 0 {
		s.workers = runtime.GOMAXPROCS(0)
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger.Infof("run %s: %d boids in %.1fx%.1f, capacity %d, perception %s r=%.1f, parallel=%t",
		s.runID, len(boids), cfg.WorldWidth, cfg.WorldHeight, cfg.Capacity,
		cfg.PerceptionShape, cfg.PerceptionRadius, cfg.Parallel)
	return s, nil
}

// RunID identifies this run in logs and snapshots.
func (s *Simulation) RunID() uuid.UUID { return s.runID }

// Config returns a copy of the configuration the simulation was built with.
func (s *Simulation) Config() Config { return s.cfg }

// Boids exposes the flock. Callers must not mutate it during Step.
func (s *Simulation) Boids() []*behavior.Boid { return s.boids }

// Tree is the index built by the last step.
func (s *Simulation) Tree() *quadtree.QuadTree { return s.tree }

// Stats describe the last completed step.
func (s *Simulation) Stats() Stats { return s.stats }

// Rules are the blend factors currently in use.
func (s *Simulation) Rules() behavior.Rules { return s.rules }

// SetRules replaces the blend factors from the next step on.
func (s *Simulation) SetRules(r behavior.Rules) { s.rules = r }

// SetSensitivity retunes every boid from the next step on.
func (s *Simulation) SetSensitivity(sens behavior.Sensitivity) {
	for _, b := range s.boids {
		b.Sensitivity = sens
	}
}

// Neighbours returns the indices of the boids found around boid i during
// the last step. The slice is reused by the next step.
func (s *Simulation) Neighbours(i int) []int {
	return s.neighbours[i]
}

// Step advances the simulation by one tick: rebuild the index from the
// current positions, compute every boid's steering against that frozen
// index, then apply it, integrate and wrap.
func (s *Simulation) Step() error {
	if err := s.rebuild(); err != nil {
		return err
	}

	if s.cfg.Parallel && s.workers > 1 && len(s.boids) > 1 {
		if err := s.steerParallel(); err != nil {
			return err
		}
	} else {
		s.found, s.others = s.steerRange(0, len(s.boids), s.found, s.others)
	}

	total := 0
	for i, b := range s.boids {
		b.ApplyForce(s.forces[i])
		b.Update()
		b.Wrap(s.cfg.WorldWidth, s.cfg.WorldHeight)
		total += len(s.neighbours[i])
	}

	s.steps++
	s.stats = Stats{
		Step:      s.steps,
		Boids:     len(s.boids),
		TreeNodes: s.tree.NodeCount(),
	}
	if len(s.boids) > 0 {
		s.stats.MeanNeighbours = float64(total) / float64(len(s.boids))
	}
	return nil
}

func (s *Simulation) rebuild() error {
	if err := s.tree.Reset(s.boundary); err != nil {
		return err
	}
	for i, b := range s.boids {
		if !s.tree.Insert(quadtree.Point{Position: b.Position, Ref: i}) {
			return fmt.Errorf("%w: boid %d at %s on step %d", ErrOutOfBounds, i, b.Position, s.steps+1)
		}
	}
	return nil
}

// perception is the query region around pos.
func (s *Simulation) perception(pos geometry.Vector2D) geometry.Region {
	r := s.cfg.PerceptionRadius
	if s.cfg.PerceptionShape == PerceptionSquare {
		return geometry.Rectangle{X: pos.X, Y: pos.Y, W: r, H: r}
	}
	return geometry.Circle{X: pos.X, Y: pos.Y, R: r}
}

// steerRange fills forces and neighbours for boids [lo, hi). It only reads
// the index and the other boids, so disjoint ranges may run concurrently.
func (s *Simulation) steerRange(lo, hi int, found []quadtree.Point, others []*behavior.Boid) ([]quadtree.Point, []*behavior.Boid) {
	for i := lo; i < hi; i++ {
		b := s.boids[i]
		found = s.tree.Query(s.perception(b.Position), found[:0])

		ids := s.neighbours[i][:0]
		others = others[:0]
		for _, p := range found {
			if p.Ref == i {
				continue
			}
			ids = append(ids, p.Ref)
			others = append(others, s.boids[p.Ref])
		}
		s.neighbours[i] = ids
		s.forces[i] = b.ComputeSteering(others, s.rules).Combined(s.rules)
	}
	return found, others
}

func (s *Simulation) steerParallel() error {
	chunk := (len(s.boids) + s.workers - 1) / s.workers

	var g errgroup.Group
	g.SetLimit(s.workers)
	for lo := 0; lo < len(s.boids); lo += chunk {
		hi := min(lo+chunk, len(s.boids))
		g.Go(func() error {
			s.steerRange(lo, hi, nil, nil)
			return nil
		})
	}
	return g.Wait()
}
