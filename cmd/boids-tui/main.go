package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/simulation"
)

var (
	configFile = flag.String("config", "", "Config file (.json, .yaml, .yml or .toml), defaults when empty")
	numBoids   = flag.Int("boids", 150, "Number of boids, negative keeps the config value")
	frame      = flag.Duration("frame", 33*time.Millisecond, "Time between steps")
)

type Game struct {
	screen        tcell.Screen
	width, height int

	sim    *simulation.Simulation
	cfg    simulation.Config
	paused bool
	focus  int
	err    error
}

func NewGame(screen tcell.Screen, sim *simulation.Simulation) (*Game, error) {
	if err := screen.Init(); err != nil {
		return nil, err
	}

	g := &Game{screen: screen, sim: sim, cfg: sim.Config(), focus: -1}
	g.width, g.height = screen.Size()
	return g, nil
}

func (g *Game) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				g.paused = !g.paused
			case 'f':
				// cycle the focus boid
				g.focus++
				if g.focus >= len(g.sim.Boids()) {
					g.focus = -1
				}
			}
		}
	case *tcell.EventResize:
		g.width, g.height = g.screen.Size()
		g.screen.Sync()
	}
	return true
}

func (g *Game) draw() {
	g.screen.Clear()
	rows := g.height - 1 // status line

	snap := g.sim.Snapshot(simulation.SnapshotOptions{Focus: g.focus})
	highlight := make(map[int]tcell.Style, len(snap.FocusNeighbours)+1)
	for _, n := range snap.FocusNeighbours {
		highlight[n] = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	}
	if snap.Focus >= 0 {
		highlight[snap.Focus] = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	}

	plain := tcell.StyleDefault.Foreground(tcell.ColorAqua)
	for i, a := range snap.Agents {
		col, row, ok := cell(a.Position.X, a.Position.Y, g.cfg.WorldWidth, g.cfg.WorldHeight, g.width, rows)
		if !ok {
			continue
		}
		style, hit := highlight[i]
		if !hit {
			style = plain
		}
		g.screen.SetContent(col, row, glyph(a.Heading), nil, style)
	}

	state := "running"
	if g.paused {
		state = "paused"
	}
	status := fmt.Sprintf(" step %d (%s) | boids %d | nodes %d | neighbours %.1f | space pause, f focus, q quit",
		snap.Stats.Step, state, snap.Stats.Boids, snap.Stats.TreeNodes, snap.Stats.MeanNeighbours)
	statusStyle := tcell.StyleDefault.Reverse(true)
	for x, r := range []rune(status) {
		if x >= g.width {
			break
		}
		g.screen.SetContent(x, g.height-1, r, nil, statusStyle)
	}

	g.screen.Show()
}

func (g *Game) run(frame time.Duration) {
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := g.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !g.handleInput(ev) {
				return
			}

		case <-ticker.C:
			if !g.paused {
				if err := g.sim.Step(); err != nil {
					g.err = err
					return
				}
			}
			g.draw()
		}
	}
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "boids-tui: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
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

	sim, err := simulation.New(cfg, simulation.Spawn(cfg, simulation.NewRand(cfg.Seed)))
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	return play(screen, sim, *frame)
}

// play runs the game on screen until the user quits or a step fails. The
// screen is always restored before returning.
func play(screen tcell.Screen, sim *simulation.Simulation, frame time.Duration) error {
	game, err := NewGame(screen, sim)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer screen.Fini()

	game.run(frame)
	return game.err
}
