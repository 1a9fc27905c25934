package simulation

import (
	"math"
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
)

// Spawn creates cfg.NumBoids boids placed uniformly inside the world, kept
// SpawnMargin away from the edges when the world is large enough, each
// with a random heading and a speed in [MinInitialSpeed, MaxInitialSpeed].
func Spawn(cfg *Config, rng *rand.Rand) []*behavior.Boid {
	marginX := math.Min(cfg.SpawnMargin, cfg.WorldWidth/2)
	marginY := math.Min(cfg.SpawnMargin, cfg.WorldHeight/2)

	flock := make([]*behavior.Boid, cfg.NumBoids)
	for i := range flock {
		pos := geometry.Vector2D{
			X: marginX + rng.Float64()*(cfg.WorldWidth-2*marginX),
			Y: marginY + rng.Float64()*(cfg.WorldHeight-2*marginY),
		}
		speed := cfg.MinInitialSpeed + rng.Float64()*(cfg.MaxInitialSpeed-cfg.MinInitialSpeed)
		vel := geometry.NewVectorPolar(speed, rng.Float64()*2*math.Pi)

		flock[i] = behavior.New(pos, vel, cfg.Sensitivity(), cfg.MaxForce)
	}
	return flock
}

// NewRand returns the generator used by Spawn. A zero seed draws one.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
