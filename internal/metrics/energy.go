package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

// MassMatrixer supplies the joint-space mass matrix of the observed arm.
// *robot.Arm satisfies it.
type MassMatrixer interface {
	MassMatrix() (spatial.Matrix, error)
}

// Energy is the mean kinetic energy ½·qdᵀ·M(q)·qd of the arm joints.
// Samples whose mass matrix cannot be evaluated are skipped and counted.
type Energy struct {
	name        string
	arm         MassMatrixer
	samples     int
	failures    int
	totalEnergy float64
	peak        float64
}

func NewEnergy(arm MassMatrixer) *Energy {
	return &Energy{
		name: "kinetic_energy",
		arm:  arm,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(s sim.Sample) {
	m, err := e.arm.MassMatrix()
	if err != nil {
		e.failures++
		return
	}
	if m.Rows() != len(s.Qd) || m.Cols() != len(s.Qd) || len(s.Qd) == 0 {
		e.failures++
		return
	}
	qd := mat.NewVecDense(len(s.Qd), append([]float64(nil), s.Qd...))
	ke := 0.5 * mat.Inner(qd, m.Dense(), qd)
	e.totalEnergy += ke
	if ke > e.peak {
		e.peak = ke
	}
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

// Peak is the largest kinetic energy observed.
func (e *Energy) Peak() float64 { return e.peak }

// Failures counts samples skipped because the mass matrix was unavailable.
func (e *Energy) Failures() int { return e.failures }

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.peak = 0
	e.samples = 0
	e.failures = 0
}
