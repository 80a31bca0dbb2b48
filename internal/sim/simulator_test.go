package sim

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/assets"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/config"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/robot"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/world"
)

type holdController struct {
	target []float64
}

func (h *holdController) Compute(arm *robot.Arm, s Sample) (Command, error) {
	return PositionCommand(h.target), nil
}

type failingController struct{ at int }

var errBoom = errors.New("boom")

func (f *failingController) Compute(arm *robot.Arm, s Sample) (Command, error) {
	if s.Step == f.at {
		return Command{}, errBoom
	}
	return TorqueCommand(make([]float64, len(s.Q))), nil
}

type stepCounter struct{ n, notified int }

func (c *stepCounter) Name() string     { return "steps" }
func (c *stepCounter) Observe(s Sample) { c.n++ }
func (c *stepCounter) Value() float64   { return float64(c.n) }
func (c *stepCounter) Reset()           { c.n = 0 }
func (c *stepCounter) OnStep(s Sample)  {}

func newTwoLinkWorld(t *testing.T) (*world.World, *robot.Arm) {
	t.Helper()
	dir, err := assets.Extract(t.TempDir())
	if err != nil {
		t.Fatalf("extract assets: %v", err)
	}
	cfg := config.GetWorldPreset("two_link_reach")
	if cfg == nil {
		t.Fatal("missing preset two_link_reach")
	}
	cfg.AssetsDir = dir
	w, err := world.New(*cfg, world.WithDefaultScene())
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w, w.Arms()[0]
}

func TestSimulatorRun(t *testing.T) {
	w, arm := newTwoLinkWorld(t)
	s := New(w, arm, &holdController{target: []float64{0.5, 0.4}})
	counter := &stepCounter{}
	s.AddMetric(counter)
	s.AddObserver(counter)

	result, err := s.Run(context.Background(), 1.0)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.StepsTaken != 240 {
		t.Errorf("expected 240 steps, got %d", result.StepsTaken)
	}
	if len(result.Samples) != 241 {
		t.Errorf("expected 241 samples, got %d", len(result.Samples))
	}
	if counter.notified != 240 {
		t.Errorf("expected 240 notifications, got %d", counter.notified)
	}
	if result.Metrics["steps"] != 240 {
		t.Errorf("expected metric 240, got %f", result.Metrics["steps"])
	}

	last := result.Samples[len(result.Samples)-1]
	if math.Abs(last.Time-1.0) > 1e-9 {
		t.Errorf("expected final time 1.0, got %f", last.Time)
	}
	if math.Abs(last.Q[0]-0.5) > 1e-2 || math.Abs(last.Q[1]-0.4) > 1e-2 {
		t.Errorf("expected q ~[0.5 0.4], got %v", last.Q)
	}
	if result.Samples[0].Command.Mode != engine.ControlPosition {
		t.Errorf("expected position command, got %v", result.Samples[0].Command.Mode)
	}
	if result.Digest == 0 {
		t.Error("expected non-zero digest")
	}
}

func TestSimulatorDeterministic(t *testing.T) {
	var digests [2]uint64
	for i := range digests {
		w, arm := newTwoLinkWorld(t)
		result, err := New(w, arm, &holdController{target: []float64{-0.3, 1.0}}).Run(context.Background(), 0.5)
		if err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
		digests[i] = result.Digest
	}
	if digests[0] != digests[1] {
		t.Errorf("digests differ: %x != %x", digests[0], digests[1])
	}
}

func TestSimulatorInvalidDuration(t *testing.T) {
	w, arm := newTwoLinkWorld(t)
	s := New(w, arm, &holdController{target: []float64{0, 0}})

	tests := []struct {
		name     string
		duration float64
	}{
		{"zero duration", 0},
		{"negative duration", -1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Run(context.Background(), tt.duration)
			if !errors.Is(err, ErrInvalidDuration) {
				t.Errorf("expected ErrInvalidDuration, got %v", err)
			}
		})
	}
}

func TestSimulatorCancelled(t *testing.T) {
	w, arm := newTwoLinkWorld(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := New(w, arm, &holdController{target: []float64{0, 0}}).Run(ctx, 1.0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.StepsTaken != 0 {
		t.Errorf("expected no steps, got %d", result.StepsTaken)
	}
}

func TestSimulatorControllerError(t *testing.T) {
	w, arm := newTwoLinkWorld(t)
	result, err := New(w, arm, &failingController{at: 10}).Run(context.Background(), 1.0)
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected controller error, got %v", err)
	}
	if result.StepsTaken != 10 {
		t.Errorf("expected 10 steps before failure, got %d", result.StepsTaken)
	}
}

func TestSimulatorRunWithCallback(t *testing.T) {
	w, arm := newTwoLinkWorld(t)
	s := New(w, arm, &holdController{target: []float64{0, 0}})

	var seen int
	err := s.RunWithCallback(context.Background(), 1.0, func(smp Sample) bool {
		seen++
		return smp.Step < 19
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if seen != 20 {
		t.Errorf("expected 20 callbacks, got %d", seen)
	}
}

func TestParallel(t *testing.T) {
	var inFlight, peak int32
	results, err := Parallel(context.Background(), 4, 2, func(ctx context.Context, i int) (*Result, error) {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		w, arm := newTwoLinkWorld(t)
		return New(w, arm, &holdController{target: []float64{0.1 * float64(i), 0}}).Run(ctx, 0.25)
	})
	if err != nil {
		t.Fatalf("parallel failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, r := range results {
		if r == nil || r.StepsTaken != 60 {
			t.Errorf("result %d: unexpected %+v", i, r)
		}
	}
	if peak > 2 {
		t.Errorf("expected at most 2 concurrent jobs, got %d", peak)
	}
}

func TestParallelFailure(t *testing.T) {
	_, err := Parallel(context.Background(), 3, 0, func(ctx context.Context, i int) (*Result, error) {
		if i == 1 {
			return nil, errBoom
		}
		return &Result{}, nil
	})
	if !errors.Is(err, errBoom) {
		t.Errorf("expected errBoom, got %v", err)
	}
}

func TestSimulatorStep(t *testing.T) {
	w, arm := newTwoLinkWorld(t)
	s := New(w, arm, &holdController{target: []float64{0.2, 0.8}})

	for i := 0; i < 3; i++ {
		smp, err := s.Step()
		if err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
		if smp.Step != i {
			t.Errorf("expected step %d, got %d", i, smp.Step)
		}
	}
	now, _ := w.Time()
	if math.Abs(now-3.0/240) > 1e-12 {
		t.Errorf("expected time %f, got %f", 3.0/240, now)
	}

	s.SetController(&failingController{at: 3})
	if _, err := s.Step(); !errors.Is(err, errBoom) {
		t.Errorf("expected errBoom after swapping controller, got %v", err)
	}
}
