package simulation

import (
	"errors"
	"fmt"
	"time"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/behavior"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrUnknownTuning is returned for a tuning field the world does not know.
var ErrUnknownTuning = errors.New("unknown tuning field")

// Tuning field names carried in a *structpb.Struct message.
const (
	TuneAlignmentBlend        = "alignmentBlend"
	TuneCohesionBlend         = "cohesionBlend"
	TuneSeparationBlend       = "separationBlend"
	TuneSeparationSqrtFalloff = "separationSqrtFalloff"
	TuneAlignmentSensitivity  = "alignmentSensitivity"
	TuneCohesionSensitivity   = "cohesionSensitivity"
	TuneSeparationSensitivity = "separationSensitivity"
	TuneShowTree              = "showTree"
	TuneFocus                 = "focus"
)

// WorldActor owns a Simulation and advances it one step per tick. Each tick
// is a *durationpb.Duration carrying the host frame time; tuning arrives as
// a *structpb.Struct. After every step a Snapshot is offered to snapshotCh.
type WorldActor struct {
	sim        *Simulation
	snapshotCh chan<- *Snapshot

	sens behavior.Sensitivity
	view SnapshotOptions

	// set once a step failed, no further step runs
	halted error

	// --- Benchmark Stats ---
	stepCount   int
	frameTime   time.Duration
	lastLogTime time.Time
}

// NewWorldActor creates the actor driving sim.
func NewWorldActor(sim *Simulation, snapshotCh chan<- *Snapshot) *WorldActor {
	cfg := sim.Config()
	return &WorldActor{
		sim:         sim,
		snapshotCh:  snapshotCh,
		sens:        cfg.Sensitivity(),
		view:        SnapshotOptions{Focus: -1},
		lastLogTime: time.Now(),
	}
}

// NewTuning builds the message that retunes a running world.
func NewTuning(r behavior.Rules, s behavior.Sensitivity, view SnapshotOptions) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		TuneAlignmentBlend:        r.AlignmentBlend,
		TuneCohesionBlend:         r.CohesionBlend,
		TuneSeparationBlend:       r.SeparationBlend,
		TuneSeparationSqrtFalloff: r.SeparationSqrtFalloff,
		TuneAlignmentSensitivity:  s.Alignment,
		TuneCohesionSensitivity:   s.Cohesion,
		TuneSeparationSensitivity: s.Separation,
		TuneShowTree:              view.Tree,
		TuneFocus:                 view.Focus,
	})
}

func (w *WorldActor) PreStart(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("World %s is starting...", w.sim.RunID())
	return nil
}

func (w *WorldActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {

	case *goaktpb.PostStart:
		ctx.Logger().Infof("World started with %d boids", len(w.sim.Boids()))

	case *durationpb.Duration:
		if w.halted != nil {
			w.pushSnapshot()
			return
		}
		w.frameTime += msg.AsDuration()
		w.logBenchmarks(ctx)

		if err := w.sim.Step(); err != nil {
			ctx.Logger().Errorf("World halted: %v", err)
			w.halted = err
			w.pushSnapshot()
			return
		}
		w.stepCount++
		w.pushSnapshot()

	case *structpb.Struct:
		if err := w.applyTuning(msg); err != nil {
			ctx.Logger().Warnf("Tuning rejected: %v", err)
		}

	default:
		ctx.Unhandled()
	}
}

func (w *WorldActor) logBenchmarks(ctx *actor.ReceiveContext) {
	if time.Since(w.lastLogTime) >= time.Second {
		stats := w.sim.Stats()
		var frame time.Duration
		if w.stepCount > 0 {
			frame = w.frameTime / time.Duration(w.stepCount)
		}
		ctx.Logger().Infof("📊 STEP RATE: %d/sec | Boids: %d | Nodes: %d | Neighbours: %.1f | Frame: %s",
			w.stepCount, stats.Boids, stats.TreeNodes, stats.MeanNeighbours, frame)
		w.stepCount = 0
		w.frameTime = 0
		w.lastLogTime = time.Now()
	}
}

func (w *WorldActor) pushSnapshot() {
	snap := w.sim.Snapshot(w.view)
	if w.halted != nil {
		snap.Err = w.halted
	}
	select {
	case w.snapshotCh <- snap:
	default:
		// UI busy, skip frame
	}
}

func (w *WorldActor) applyTuning(msg *structpb.Struct) error {
	rules := w.sim.Rules()
	sens := w.sens
	view := w.view

	for key, v := range msg.GetFields() {
		switch key {
		case TuneAlignmentBlend:
			rules.AlignmentBlend = v.GetNumberValue()
		case TuneCohesionBlend:
			rules.CohesionBlend = v.GetNumberValue()
		case TuneSeparationBlend:
			rules.SeparationBlend = v.GetNumberValue()
		case TuneSeparationSqrtFalloff:
			rules.SeparationSqrtFalloff = v.GetBoolValue()
		case TuneAlignmentSensitivity:
			sens.Alignment = v.GetNumberValue()
		case TuneCohesionSensitivity:
			sens.Cohesion = v.GetNumberValue()
		case TuneSeparationSensitivity:
			sens.Separation = v.GetNumberValue()
		case TuneShowTree:
			view.Tree = v.GetBoolValue()
		case TuneFocus:
			view.Focus = int(v.GetNumberValue())
		default:
			return fmt.Errorf("%w: %q", ErrUnknownTuning, key)
		}
	}

	w.sim.SetRules(rules)
	if sens != w.sens {
		w.sim.SetSensitivity(sens)
		w.sens = sens
	}
	w.view = view
	return nil
}

func (w *WorldActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("World %s is shutdown after step %d", w.sim.RunID(), w.sim.Stats().Step)
	return nil
}
