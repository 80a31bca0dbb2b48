package metrics

import (
	"errors"
	"math"
	"testing"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

type fixedMass struct {
	m   spatial.Matrix
	err error
}

func (f fixedMass) MassMatrix() (spatial.Matrix, error) { return f.m, f.err }

func TestEnergy(t *testing.T) {
	m := NewEnergy(fixedMass{m: spatial.Matrix{{2, 0}, {0, 1}}})

	m.Observe(sim.Sample{Qd: []float64{1, 2}})
	expected := 0.5*2*1 + 0.5*1*4
	if math.Abs(m.Value()-expected) > 1e-12 {
		t.Errorf("expected energy %f, got %f", expected, m.Value())
	}

	m.Observe(sim.Sample{Qd: []float64{0, 0}})
	if math.Abs(m.Value()-expected/2) > 1e-12 {
		t.Errorf("expected mean energy %f, got %f", expected/2, m.Value())
	}
	if m.Peak() != expected {
		t.Errorf("expected peak %f, got %f", expected, m.Peak())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestEnergySkipsFailures(t *testing.T) {
	m := NewEnergy(fixedMass{err: errors.New("no engine")})
	m.Observe(sim.Sample{Qd: []float64{1}})
	if m.Failures() != 1 || m.Value() != 0 {
		t.Errorf("expected one skipped sample, got failures=%d value=%f", m.Failures(), m.Value())
	}

	m = NewEnergy(fixedMass{m: spatial.Matrix{{1, 0}, {0, 1}}})
	m.Observe(sim.Sample{Qd: []float64{1, 2, 3}})
	if m.Failures() != 1 {
		t.Errorf("expected a shape mismatch to be skipped, got failures=%d", m.Failures())
	}
}

func TestControlEffort(t *testing.T) {
	c := NewControlEffort()
	c.Observe(sim.Sample{Command: sim.PositionCommand([]float64{5, 5})})
	c.Observe(sim.Sample{Command: sim.TorqueCommand([]float64{1, -2})})
	c.Observe(sim.Sample{Command: sim.TorqueCommand([]float64{0, 1})})
	if c.Value() != 2 {
		t.Errorf("expected effort 2, got %f", c.Value())
	}
}

func TestTrackingError(t *testing.T) {
	target := spatial.Vec3{X: 1}
	cmd := sim.Command{Mode: engine.ControlPosition, Target: &target}

	rms := NewTrackingError()
	final := NewFinalTrackingError()
	for _, x := range []float64{0, 0.5, 1} {
		s := sim.Sample{EE: spatial.Pose{Position: spatial.Vec3{X: x}}, Command: cmd}
		rms.Observe(s)
		final.Observe(s)
	}
	rms.Observe(sim.Sample{})

	want := math.Sqrt((1 + 0.25) / 3)
	if math.Abs(rms.Value()-want) > 1e-12 {
		t.Errorf("expected rms %f, got %f", want, rms.Value())
	}
	if final.Value() != 0 {
		t.Errorf("expected final error 0, got %f", final.Value())
	}
}

func TestStability(t *testing.T) {
	s := NewStability(0.1)
	if s.Value() != 1 {
		t.Errorf("expected 1 with no samples, got %f", s.Value())
	}
	s.Observe(sim.Sample{Qd: []float64{0.5, 0}})
	s.Observe(sim.Sample{Qd: []float64{0.01, 0.02}})
	if s.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", s.Value())
	}
}

func TestSettleTime(t *testing.T) {
	s := NewSettleTime(0.1)
	for i, qd := range [][]float64{{1, 0}, {0.05, 0}, {0.5, 0}, {0.01, 0}, {0, 0}} {
		s.Observe(sim.Sample{Time: float64(i) * 0.5, Qd: qd})
	}
	if s.Value() != 1.5 {
		t.Errorf("expected 1.5, got %f", s.Value())
	}

	s.Observe(sim.Sample{Time: 3, Qd: []float64{0, 2}})
	if s.Value() != 3 {
		t.Errorf("unsettled run should report the last time, got %f", s.Value())
	}

	s.Reset()
	if s.Value() != 0 || s.threshold != 0.1 {
		t.Errorf("reset lost state: %+v", s)
	}
}

func TestDefaultNames(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Default(fixedMass{}) {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %s", m.Name())
		}
		seen[m.Name()] = true
	}
	for _, want := range []string{"tracking_error", "final_tracking_error", "control_effort", "stability", "settle_time", "kinetic_energy"} {
		if !seen[want] {
			t.Errorf("missing %s", want)
		}
	}
}
