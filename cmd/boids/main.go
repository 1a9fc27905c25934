package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/simulation"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
)

var (
	configFile = flag.String("config", "", "Config file (.json, .yaml, .yml or .toml), defaults when empty")
	numBoids   = flag.Int("boids", -1, "Override the number of boids")
	seed       = flag.Uint64("seed", 0, "Override the spawn seed, 0 keeps the config value")
	quiet      = flag.Bool("quiet", false, "Discard log output")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "boids: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg := simulation.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = simulation.LoadConfig(*configFile); err != nil {
			return err
		}
	}
	if *numBoids >= 0 {
		cfg.NumBoids = *numBoids
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	var logger golog.Logger = golog.New(golog.InfoLevel, os.Stdout)
	if *quiet {
		logger = golog.DiscardLogger
	}

	sim, err := simulation.New(cfg, simulation.Spawn(cfg, simulation.NewRand(cfg.Seed)), simulation.WithLogger(logger))
	if err != nil {
		return err
	}

	system, err := actor.NewActorSystem("BoidsWorld",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		return fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return fmt.Errorf("failed to start actor system: %w", err)
	}
	defer system.Stop(ctx)

	game, err := NewGame(ctx, system, sim)
	if err != nil {
		return err
	}

	ebiten.SetWindowSize(int(cfg.WorldWidth), int(cfg.WorldHeight))
	ebiten.SetWindowTitle("Boids: quad-tree flocking")
	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
