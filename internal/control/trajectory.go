package control

import (
	"fmt"
	"math"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/robot"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
)

// JointTrajectory swings every joint sinusoidally about a centre
// configuration. Joint i lags joint i-1 by a quarter period.
type JointTrajectory struct {
	Center    []float64
	Amplitude float64
	Frequency float64
}

func NewJointTrajectory(center []float64, amplitude, frequency float64) *JointTrajectory {
	return &JointTrajectory{
		Center:    append([]float64(nil), center...),
		Amplitude: amplitude,
		Frequency: frequency,
	}
}

// At returns the commanded configuration at time t.
func (j *JointTrajectory) At(t float64) []float64 {
	q := make([]float64, len(j.Center))
	for i, c := range j.Center {
		phase := float64(i) * math.Pi / 2
		q[i] = c + j.Amplitude*math.Sin(2*math.Pi*j.Frequency*t-phase)
	}
	return q
}

func (j *JointTrajectory) Compute(_ *robot.Arm, s sim.Sample) (sim.Command, error) {
	if err := checkLen("centre positions", len(j.Center), len(s.Q)); err != nil {
		return sim.Command{}, err
	}
	return sim.PositionCommand(j.At(s.Time)), nil
}

func (j *JointTrajectory) GetParams() map[string]float64 {
	return map[string]float64{
		"Amplitude": j.Amplitude,
		"Frequency": j.Frequency,
	}
}

func (j *JointTrajectory) SetParam(name string, value float64) error {
	switch name {
	case "Amplitude":
		j.Amplitude = value
	case "Frequency":
		j.Frequency = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return nil
}
