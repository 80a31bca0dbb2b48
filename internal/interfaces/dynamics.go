package interfaces

import (
	"errors"
	"fmt"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/physics"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

// ErrMixedBodies indicates joints that do not all belong to the queried
// body.
var ErrMixedBodies = errors.New("interfaces: joints span several bodies")

// DynamicsBackend is the subset of the physics session Dynamics reads.
type DynamicsBackend interface {
	NumJoints(id physics.BodyID) (int, error)
	JointPosition(j physics.JointID) (float64, error)
	LinkLocalOffset(l physics.LinkID) (spatial.Pose, error)
	ComputeJacobian(l physics.LinkID, local spatial.Vec3, q, qd, qdd []float64) (spatial.Matrix, spatial.Matrix, error)
	ComputeMassMatrix(id physics.BodyID, q []float64) (spatial.Matrix, error)
}

// Jacobian holds the translational and rotational 3×N blocks.
type Jacobian struct {
	Translational spatial.Matrix
	Rotational    spatial.Matrix
}

// Coupled stacks the blocks into one 6×N matrix, translation first.
func (j Jacobian) Coupled() (spatial.Matrix, error) {
	return spatial.VStack(j.Translational, j.Rotational)
}

// Dynamics computes Jacobians and mass matrices for a body's joints.
type Dynamics struct {
	b DynamicsBackend
}

func NewDynamics(b DynamicsBackend) Dynamics { return Dynamics{b: b} }

func (d Dynamics) bodyPositions(id physics.BodyID) ([]float64, error) {
	n, err := d.b.NumJoints(id)
	if err != nil {
		return nil, err
	}
	q := make([]float64, n)
	for i := range q {
		if q[i], err = d.b.JointPosition(physics.JointID{Body: id, Index: i}); err != nil {
			return nil, err
		}
	}
	return q, nil
}

func columns(id physics.BodyID, joints []physics.JointID) ([]int, error) {
	idx := make([]int, len(joints))
	for i, j := range joints {
		if j.Body != id {
			return nil, fmt.Errorf("%w: %v is not on body %d", ErrMixedBodies, j, id)
		}
		idx[i] = j.Index
	}
	return idx, nil
}

// ZeroJacobian evaluates the Jacobian of ee's centre of mass at the current
// joint positions with zero velocities and accelerations. Columns follow the
// order of joints.
func (d Dynamics) ZeroJacobian(joints []physics.JointID, ee physics.LinkID) (Jacobian, error) {
	idx, err := columns(ee.Body, joints)
	if err != nil {
		return Jacobian{}, err
	}
	q, err := d.bodyPositions(ee.Body)
	if err != nil {
		return Jacobian{}, err
	}
	offset, err := d.b.LinkLocalOffset(ee)
	if err != nil {
		return Jacobian{}, err
	}
	zero := make([]float64, len(q))
	lin, ang, err := d.b.ComputeJacobian(ee, offset.Position, q, zero, zero)
	if err != nil {
		return Jacobian{}, err
	}
	var out Jacobian
	if out.Translational, err = lin.SelectColumns(idx); err != nil {
		return Jacobian{}, err
	}
	if out.Rotational, err = ang.SelectColumns(idx); err != nil {
		return Jacobian{}, err
	}
	return out, nil
}

func (d Dynamics) ZeroDecoupledJacobian(joints []physics.JointID, ee physics.LinkID) (Jacobian, error) {
	return d.ZeroJacobian(joints, ee)
}

func (d Dynamics) ZeroCoupledJacobian(joints []physics.JointID, ee physics.LinkID) (spatial.Matrix, error) {
	j, err := d.ZeroJacobian(joints, ee)
	if err != nil {
		return nil, err
	}
	return j.Coupled()
}

// MassMatrix is the joint-space inertia at the current configuration,
// restricted to joints in the order given.
func (d Dynamics) MassMatrix(id physics.BodyID, joints []physics.JointID) (spatial.Matrix, error) {
	idx, err := columns(id, joints)
	if err != nil {
		return nil, err
	}
	q, err := d.bodyPositions(id)
	if err != nil {
		return nil, err
	}
	m, err := d.b.ComputeMassMatrix(id, q)
	if err != nil {
		return nil, err
	}
	return m.Submatrix(idx)
}
