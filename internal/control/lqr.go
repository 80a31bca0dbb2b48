package control

import (
	"fmt"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/robot"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
)

// LQR applies linear state feedback tau = -K (x - x*) over the joint state
// x = [q; qd]. K has one row per joint and two columns per joint.
type LQR struct {
	K      [][]float64
	Target []float64
}

func NewLQR(k [][]float64, target []float64) *LQR {
	return &LQR{K: k, Target: target}
}

// NewJointPD builds the decoupled gain matrix [kp·I  kd·I] that holds
// target at rest.
func NewJointPD(kp, kd float64, target []float64) *LQR {
	n := len(target)
	k := make([][]float64, n)
	for i := range k {
		k[i] = make([]float64, 2*n)
		k[i][i] = kp
		k[i][n+i] = kd
	}
	x := make([]float64, 2*n)
	copy(x, target)
	return NewLQR(k, x)
}

func (l *LQR) Compute(_ *robot.Arm, s sim.Sample) (sim.Command, error) {
	n := len(s.Q)
	if err := checkLen("gain rows", len(l.K), n); err != nil {
		return sim.Command{}, err
	}
	x := append(append(make([]float64, 0, 2*n), s.Q...), s.Qd...)
	u := make([]float64, n)
	for i := range u {
		if len(l.K[i]) != 2*n {
			return sim.Command{}, fmt.Errorf("%w: gain row %d has %d columns, want %d", ErrDimension, i, len(l.K[i]), 2*n)
		}
		for j := range x {
			target := 0.0
			if j < len(l.Target) {
				target = l.Target[j]
			}
			u[i] -= l.K[i][j] * (x[j] - target)
		}
	}
	return sim.TorqueCommand(u), nil
}
