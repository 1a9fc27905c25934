package main

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/ui"
	"github.com/tochemey/goakt/v3/actor"
	"google.golang.org/protobuf/types/known/durationpb"
)

const (
	boidLength = 8.0
	boidWidth  = 5.0
	pickRadius = 20.0

	// uint16 indices address at most 65535 vertices per batch
	maxBoidsPerBatch = 65535 / 3
)

var (
	backgroundColor = color.RGBA{R: 10, G: 10, B: 30, A: 255}
	treeColor       = color.RGBA{R: 60, G: 90, B: 60, A: 255}
	focusColor      = color.RGBA{R: 255, G: 80, B: 80, A: 255}
	neighbourColor  = color.RGBA{R: 255, G: 220, B: 60, A: 255}
	boidColor       = color.RGBA{R: 100, G: 200, B: 255, A: 255}
)

type Game struct {
	ctx        context.Context
	system     actor.ActorSystem
	worldPID   *actor.PID
	snapshotCh chan *simulation.Snapshot
	lastState  *simulation.Snapshot
	cfg        simulation.Config

	// UI Controls
	panel                 *ui.Panel
	widgetAlignmentBlend  *ui.Slider
	widgetCohesionBlend   *ui.Slider
	widgetSeparationBlend *ui.Slider
	widgetAlignmentSens   *ui.Slider
	widgetCohesionSens    *ui.Slider
	widgetSeparationSens  *ui.Slider
	widgetSqrtFalloff     *ui.Checkbox
	widgetShowTree        *ui.Checkbox
	widgetShowPerception  *ui.Checkbox

	focus   int
	paused  bool
	tuned   bool // tuning must be sent before the next tick
	lastTic time.Time

	whiteImage *ebiten.Image
	vertices   []ebiten.Vertex
	indices    []uint16

	// Timing instrumentation
	updateAvg float64 // Rolling average in ms
	drawAvg   float64 // Rolling average in ms
}

func NewGame(ctx context.Context, system actor.ActorSystem, sim *simulation.Simulation) (*Game, error) {
	snapshotCh := make(chan *simulation.Snapshot, 10)

	worldPID, err := system.Spawn(ctx, "world", simulation.NewWorldActor(sim, snapshotCh))
	if err != nil {
		return nil, fmt.Errorf("failed to spawn world: %w", err)
	}

	cfg := sim.Config()
	panel := ui.NewPanel(10, 10, 260, min(cfg.WorldHeight-20, 560))

	g := &Game{
		ctx:        ctx,
		system:     system,
		worldPID:   worldPID,
		snapshotCh: snapshotCh,
		lastState:  sim.Snapshot(simulation.SnapshotOptions{Focus: -1}),
		cfg:        cfg,
		panel:      panel,
		focus:      -1,
		tuned:      true,
		lastTic:    time.Now(),
		whiteImage: ebiten.NewImage(3, 3),
	}
	g.whiteImage.Fill(color.White)

	panel.AddSection("Rule Blend")
	g.widgetAlignmentBlend = panel.AddSlider("Alignment", 0, 3, cfg.AlignmentBlend)
	g.widgetCohesionBlend = panel.AddSlider("Cohesion", 0, 3, cfg.CohesionBlend)
	g.widgetSeparationBlend = panel.AddSlider("Separation", 0, 3, cfg.SeparationBlend)
	g.widgetSqrtFalloff = panel.AddCheckbox("Steep separation falloff", cfg.SeparationSqrtFalloff)

	panel.AddSection("Sensitivity")
	g.widgetAlignmentSens = panel.AddSlider("Alignment", 0, 5, cfg.AlignmentSensitivity)
	g.widgetCohesionSens = panel.AddSlider("Cohesion", 0, 5, cfg.CohesionSensitivity)
	g.widgetSeparationSens = panel.AddSlider("Separation", 0, 5, cfg.SeparationSensitivity)

	panel.AddSection("Visualization")
	g.widgetShowTree = panel.AddCheckbox("Show quad-tree", false)
	g.widgetShowPerception = panel.AddCheckbox("Show focus perception", true)
	panel.AddButton("Pause / Resume", func() { g.paused = !g.paused })

	return g, nil
}

func (g *Game) rules() behavior.Rules {
	return behavior.Rules{
		AlignmentBlend:        g.widgetAlignmentBlend.Value,
		CohesionBlend:         g.widgetCohesionBlend.Value,
		SeparationBlend:       g.widgetSeparationBlend.Value,
		SeparationSqrtFalloff: g.widgetSqrtFalloff.Value,
	}
}

func (g *Game) sensitivity() behavior.Sensitivity {
	return behavior.Sensitivity{
		Alignment:  g.widgetAlignmentSens.Value,
		Cohesion:   g.widgetCohesionSens.Value,
		Separation: g.widgetSeparationSens.Value,
	}
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	// 1. Retrieve Latest State (Non-blocking)
	select {
	case snap := <-g.snapshotCh:
		g.lastState = snap
	default:
	}
	if g.lastState.Err != nil {
		return g.lastState.Err
	}

	// 2. Keyboard and UI
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.panel.Visible = !g.panel.Visible
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyT) {
		g.widgetShowTree.Value = !g.widgetShowTree.Value
		g.tuned = true
	}

	_, dy := ebiten.Wheel()
	g.panel.Scroll(dy)
	cursor := ui.CurrentCursor()
	if g.panel.Update(cursor) {
		g.tuned = true
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && !g.panel.Contains(cursor.X, cursor.Y) {
		g.focus = g.pick(cursor.X, cursor.Y)
		g.tuned = true
	}

	// 3. Send tuning, then the tick
	if g.tuned {
		msg, err := simulation.NewTuning(g.rules(), g.sensitivity(), simulation.SnapshotOptions{
			Tree:  g.widgetShowTree.Value,
			Focus: g.focus,
		})
		if err != nil {
			return err
		}
		if err := actor.Tell(g.ctx, g.worldPID, msg); err != nil {
			return err
		}
		g.tuned = false
	}

	now := time.Now()
	if !g.paused {
		if err := actor.Tell(g.ctx, g.worldPID, durationpb.New(now.Sub(g.lastTic))); err != nil {
			return err
		}
	}
	g.lastTic = now
	return nil
}

// pick returns the boid closest to (x, y) within pickRadius, or -1.
func (g *Game) pick(x, y float64) int {
	best, bestSq := -1, pickRadius*pickRadius
	cursor := geometry.NewVector(x, y)
	for i, a := range g.lastState.Agents {
		if d := a.Position.DistanceSquaredTo(cursor); d <= bestSq {
			best, bestSq = i, d
		}
	}
	return best
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	screen.Fill(backgroundColor)
	snap := g.lastState

	// 1. Quad-tree overlay
	for _, r := range snap.Tree {
		vector.StrokeRect(screen,
			float32(r.X-r.W), float32(r.Y-r.H),
			float32(2*r.W), float32(2*r.H),
			1, treeColor, false)
	}

	// 2. Focus boid perception and links
	if snap.Focus >= 0 && snap.Focus < len(snap.Agents) {
		me := snap.Agents[snap.Focus].Position
		if g.widgetShowPerception.Value {
			r := float32(g.cfg.PerceptionRadius)
			if g.cfg.PerceptionShape == simulation.PerceptionSquare {
				vector.StrokeRect(screen, float32(me.X)-r, float32(me.Y)-r, 2*r, 2*r, 1, focusColor, true)
			} else {
				vector.StrokeCircle(screen, float32(me.X), float32(me.Y), r, 1, focusColor, true)
			}
		}
		for _, n := range snap.FocusNeighbours {
			other := snap.Agents[n].Position
			vector.StrokeLine(screen, float32(me.X), float32(me.Y), float32(other.X), float32(other.Y), 1, neighbourColor, true)
		}
	}

	// 3. Boids, batched as triangles
	g.drawBoids(screen, snap)

	// 4. UI Panel and stats
	g.panel.Draw(screen)

	state := "running"
	if g.paused {
		state = "paused"
	}
	msg := fmt.Sprintf("FPS: %.2f\nTPS: %.2f\n\nStep:  %d (%s)\nBoids: %d\nNodes: %d\nNeigh: %.1f\n\nUpdate: %.2fms\nDraw:   %.2fms",
		ebiten.ActualFPS(),
		ebiten.ActualTPS(),
		snap.Stats.Step, state,
		len(snap.Agents),
		snap.Stats.TreeNodes,
		snap.Stats.MeanNeighbours,
		g.updateAvg,
		g.drawAvg)
	ebitenutil.DebugPrintAt(screen, msg, int(g.cfg.WorldWidth)-170, 10)
}

func (g *Game) drawBoids(screen *ebiten.Image, snap *simulation.Snapshot) {
	highlight := make(map[int]color.RGBA, len(snap.FocusNeighbours)+1)
	for _, n := range snap.FocusNeighbours {
		highlight[n] = neighbourColor
	}
	if snap.Focus >= 0 {
		highlight[snap.Focus] = focusColor
	}

	op := &ebiten.DrawTrianglesOptions{}
	for lo := 0; lo < len(snap.Agents); lo += maxBoidsPerBatch {
		hi := min(lo+maxBoidsPerBatch, len(snap.Agents))
		g.vertices = g.vertices[:0]
		g.indices = g.indices[:0]

		for i := lo; i < hi; i++ {
			a := snap.Agents[i]
			clr, ok := highlight[i]
			if !ok {
				clr = boidColor
			}
			base := uint16(len(g.vertices))
			g.vertices = appendTriangle(g.vertices, a.Position.X, a.Position.Y, a.Heading, clr)
			g.indices = append(g.indices, base, base+1, base+2)
		}
		screen.DrawTriangles(g.vertices, g.indices, g.whiteImage, op)
	}
}

// appendTriangle adds an isosceles triangle centred on (x, y) pointing along heading.
func appendTriangle(dst []ebiten.Vertex, x, y, heading float64, clr color.RGBA) []ebiten.Vertex {
	r, gr, b, a := float32(clr.R)/255, float32(clr.G)/255, float32(clr.B)/255, float32(clr.A)/255
	vertex := func(angle, length float64) ebiten.Vertex {
		return ebiten.Vertex{
			DstX: float32(x + math.Cos(angle)*length),
			DstY: float32(y + math.Sin(angle)*length),
			SrcX: 1, SrcY: 1,
			ColorR: r, ColorG: gr, ColorB: b, ColorA: a,
		}
	}
	return append(dst,
		vertex(heading, boidLength),
		vertex(heading+2.5, boidWidth),
		vertex(heading-2.5, boidWidth),
	)
}

func (g *Game) Layout(w, h int) (int, int) { return int(g.cfg.WorldWidth), int(g.cfg.WorldHeight) }
