package main

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/simulation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trackedScreen records Fini and can queue events once initialized.
type trackedScreen struct {
	tcell.SimulationScreen
	onInit    []tcell.Event
	finalized bool
}

func (s *trackedScreen) Init() error {
	if err := s.SimulationScreen.Init(); err != nil {
		return err
	}
	s.SetSize(40, 12)
	for _, ev := range s.onInit {
		if err := s.PostEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

func (s *trackedScreen) Fini() {
	s.finalized = true
	s.SimulationScreen.Fini()
}

func newTestSim(t *testing.T) *simulation.Simulation {
	t.Helper()
	cfg := simulation.DefaultConfig()
	cfg.WorldWidth, cfg.WorldHeight = 200, 100
	sim, err := simulation.New(cfg, []*behavior.Boid{
		behavior.New(geometry.NewVector(50, 50), geometry.NewVector(1, 0), behavior.DefaultSensitivity(), 0.3),
		behavior.New(geometry.NewVector(60, 50), geometry.NewVector(0, 1), behavior.DefaultSensitivity(), 0.3),
	})
	require.NoError(t, err)
	return sim
}

func TestPlay_RestoresScreenOnQuit(t *testing.T) {
	screen := &trackedScreen{
		SimulationScreen: tcell.NewSimulationScreen("UTF-8"),
		onInit:           []tcell.Event{tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)},
	}

	err := play(screen, newTestSim(t), time.Hour)
	assert.NoError(t, err)
	assert.True(t, screen.finalized)
}

func TestPlay_RestoresScreenOnFailedStep(t *testing.T) {
	screen := &trackedScreen{SimulationScreen: tcell.NewSimulationScreen("UTF-8")}
	sim := newTestSim(t)
	sim.Boids()[0].Position.X = 5000

	err := play(screen, sim, time.Millisecond)
	assert.ErrorIs(t, err, simulation.ErrOutOfBounds)
	assert.True(t, screen.finalized)
}
