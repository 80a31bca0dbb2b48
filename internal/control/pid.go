package control

import (
	"fmt"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/robot"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
)

// PID drives each arm joint to its target with an independent torque loop.
type PID struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Target []float64

	integral []float64
	prevErr  []float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd float64, target []float64) *PID {
	return &PID{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Target: append([]float64(nil), target...),
		first:  true,
	}
}

func (p *PID) Compute(_ *robot.Arm, s sim.Sample) (sim.Command, error) {
	n := len(s.Q)
	if err := checkLen("targets", len(p.Target), n); err != nil {
		return sim.Command{}, err
	}
	errs := make([]float64, n)
	for i := range errs {
		errs[i] = p.Target[i] - s.Q[i]
	}
	tau := make([]float64, n)

	if p.first {
		p.integral = make([]float64, n)
		p.prevErr = errs
		p.prevT = s.Time
		p.first = false
		for i, e := range errs {
			tau[i] = p.Kp * e
		}
		return sim.TorqueCommand(tau), nil
	}

	dt := s.Time - p.prevT
	for i, e := range errs {
		if dt > 0 {
			p.integral[i] += e * dt
			tau[i] = p.Kp*e + p.Ki*p.integral[i] + p.Kd*(e-p.prevErr[i])/dt
		} else {
			tau[i] = p.Kp * e
		}
	}
	if dt > 0 {
		p.prevErr = errs
		p.prevT = s.Time
	}
	return sim.TorqueCommand(tau), nil
}

// Reset clears integral and derivative state.
func (p *PID) Reset() {
	p.integral = nil
	p.prevErr = nil
	p.first = true
}

func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp": p.Kp,
		"Ki": p.Ki,
		"Kd": p.Kd,
	}
}

func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return nil
}
