package behavior

import (
	"math"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
)

// MinSeparationDistance is the distance under which a neighbour is treated
// as coincident and contributes no separation term.
const MinSeparationDistance = 1e-9

// Boid represents a single entity in the flock.
// Boids is an artificial life program, developed by Craig Reynolds in 1986,
// which simulates the flocking behaviour of birds, and related group motion.
// https://en.wikipedia.org/wiki/Boids
//
// Acceleration is an impulse accumulator: it is consumed and cleared by
// every call to Update.
type Boid struct {
	Position     geometry.Vector2D
	Velocity     geometry.Vector2D
	Acceleration geometry.Vector2D

	Sensitivity Sensitivity
	// MaxForce caps each steering rule and the combined acceleration.
	MaxForce float64
}

// Sensitivity is the target magnitude of each flocking rule, before the
// boid's own velocity is subtracted. A zero sensitivity disables the rule.
type Sensitivity struct {
	Alignment  float64 `json:"alignment"`
	Cohesion   float64 `json:"cohesion"`
	Separation float64 `json:"separation"`
}

// DefaultSensitivity is the stock per-boid tuning.
func DefaultSensitivity() Sensitivity {
	return Sensitivity{Alignment: 1, Cohesion: 0.9, Separation: 0.8}
}

// Rules are the flock wide blend factors applied on top of each boid's
// own rule vectors.
type Rules struct {
	AlignmentBlend  float64
	CohesionBlend   float64
	SeparationBlend float64

	// SeparationSqrtFalloff divides each separation term once more by the
	// square root of the distance, on top of the inverse-square falloff.
	SeparationSqrtFalloff bool
}

// DefaultRules blends every rule at 1.0 with the steep separation falloff.
func DefaultRules() Rules {
	return Rules{
		AlignmentBlend:        1,
		CohesionBlend:         1,
		SeparationBlend:       1,
		SeparationSqrtFalloff: true,
	}
}

// Steering is the per-rule breakdown of one steering computation.
// Every vector is already clamped to MaxForce.
type Steering struct {
	Alignment  geometry.Vector2D
	Cohesion   geometry.Vector2D
	Separation geometry.Vector2D
}

// Combined blends the three rule vectors with the given factors.
func (s Steering) Combined(r Rules) geometry.Vector2D {
	return s.Alignment.Mul(r.AlignmentBlend).
		Add(s.Cohesion.Mul(r.CohesionBlend)).
		Add(s.Separation.Mul(r.SeparationBlend))
}

// New creates a boid at pos moving with vel and an empty accumulator.
func New(pos, vel geometry.Vector2D, s Sensitivity, maxForce float64) *Boid {
	return &Boid{
		Position:    pos,
		Velocity:    vel,
		Sensitivity: s,
		MaxForce:    maxForce,
	}
}

// Heading is the direction of travel in radians, as drawn by the renderers.
func (b *Boid) Heading() float64 {
	return b.Velocity.Angle()
}

// Update integrates one step: position moves by the current velocity, then
// the velocity takes the accumulated acceleration, which is then cleared.
func (b *Boid) Update() {
	b.Position = b.Position.Add(b.Velocity)
	b.Velocity = b.Velocity.Add(b.Acceleration)
	b.Acceleration = geometry.Zero
}

// Wrap makes the world a torus. Crossing width sends the boid to 0 and
// crossing 0 sends it to width; both comparisons are inclusive, so a boid
// resting exactly on 0 jumps to width.
func (b *Boid) Wrap(width, height float64) {
	if b.Position.X >= width {
		b.Position.X = 0
	} else if b.Position.X <= 0 {
		b.Position.X = width
	}

	if b.Position.Y >= height {
		b.Position.Y = 0
	} else if b.Position.Y <= 0 {
		b.Position.Y = height
	}
}

// ComputeSteering returns the alignment, cohesion and separation vectors
// for the given neighbours. neighbours must not contain b itself.
// With no neighbours all three are zero.
func (b *Boid) ComputeSteering(neighbours []*Boid, r Rules) Steering {
	if len(neighbours) == 0 {
		return Steering{}
	}

	var avgVelocity, avgPosition, avgRepulsion geometry.Vector2D
	for _, other := range neighbours {
		avgVelocity = avgVelocity.Add(other.Velocity)
		avgPosition = avgPosition.Add(other.Position)
		avgRepulsion = avgRepulsion.Add(repulsion(b.Position, other.Position, r.SeparationSqrtFalloff))
	}
	n := float64(len(neighbours))
	avgVelocity = avgVelocity.Mul(1 / n)
	avgPosition = avgPosition.Mul(1 / n)
	avgRepulsion = avgRepulsion.Mul(1 / n)

	return Steering{
		Alignment:  b.steer(avgVelocity, b.Sensitivity.Alignment),
		Cohesion:   b.steer(avgPosition.Sub(b.Position), b.Sensitivity.Cohesion),
		Separation: b.steer(avgRepulsion, b.Sensitivity.Separation),
	}
}

// steer turns a desired direction into a force: scaled to the rule's
// sensitivity, minus the current velocity, clamped to MaxForce.
func (b *Boid) steer(desired geometry.Vector2D, sensitivity float64) geometry.Vector2D {
	if sensitivity == 0 {
		return geometry.Zero
	}
	return desired.SetMag(sensitivity).Sub(b.Velocity).Limit(b.MaxForce)
}

// repulsion points from other to self with magnitude 1/d, divided once more
// by sqrt(d) when sqrtFalloff is set. Coincident boids give zero.
func repulsion(self, other geometry.Vector2D, sqrtFalloff bool) geometry.Vector2D {
	dist := self.DistanceTo(other)
	if dist < MinSeparationDistance {
		return geometry.Zero
	}
	v := self.DirectionFrom(other).Mul(1 / dist)
	if sqrtFalloff {
		v = v.Mul(1 / math.Sqrt(dist))
	}
	return v
}

// ApplyForce adds f to the acceleration accumulator and clamps the result
// to MaxForce. A non-finite force is ignored.
func (b *Boid) ApplyForce(f geometry.Vector2D) {
	if !f.IsFinite() {
		return
	}
	b.Acceleration = b.Acceleration.Add(f).Limit(b.MaxForce)
}

// Flock computes the steering for the given neighbours and applies it.
func (b *Boid) Flock(neighbours []*Boid, r Rules) {
	b.ApplyForce(b.ComputeSteering(neighbours, r).Combined(r))
}
