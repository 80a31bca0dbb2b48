package control

import (
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/robot"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
)

// Hold keeps the arm at fixed joint positions. With no positions it holds
// wherever the arm is on the first step.
type Hold struct {
	q []float64
}

func NewHold(q []float64) *Hold {
	return &Hold{q: append([]float64(nil), q...)}
}

func (h *Hold) Compute(_ *robot.Arm, s sim.Sample) (sim.Command, error) {
	if len(h.q) == 0 {
		h.q = append([]float64(nil), s.Q...)
	}
	if err := checkLen("positions", len(h.q), len(s.Q)); err != nil {
		return sim.Command{}, err
	}
	return sim.PositionCommand(h.q), nil
}
