package control

import (
	"fmt"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/robot"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
)

// Manual holds a base configuration plus per-joint offsets jogged by the
// user from the live view.
type Manual struct {
	base    []float64
	offsets []float64
}

func NewManual(base []float64) *Manual {
	return &Manual{
		base:    append([]float64(nil), base...),
		offsets: make([]float64, len(base)),
	}
}

// Jog nudges one joint's offset by delta radians.
func (m *Manual) Jog(joint int, delta float64) error {
	if joint < 0 || joint >= len(m.offsets) {
		return fmt.Errorf("%w: %d", ErrJointIndex, joint)
	}
	m.offsets[joint] += delta
	return nil
}

// Offsets returns a copy of the current jog offsets.
func (m *Manual) Offsets() []float64 {
	return append([]float64(nil), m.offsets...)
}

// Reset returns every joint to the base configuration.
func (m *Manual) Reset() {
	for i := range m.offsets {
		m.offsets[i] = 0
	}
}

func (m *Manual) Compute(_ *robot.Arm, s sim.Sample) (sim.Command, error) {
	if err := checkLen("base positions", len(m.base), len(s.Q)); err != nil {
		return sim.Command{}, err
	}
	q := make([]float64, len(m.base))
	for i := range q {
		q[i] = m.base[i] + m.offsets[i]
	}
	return sim.PositionCommand(q), nil
}
