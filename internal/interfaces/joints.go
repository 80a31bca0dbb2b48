package interfaces

import (
	"fmt"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/physics"
)

// JointBackend is the subset of the physics session Joints drives.
type JointBackend interface {
	JointName(j physics.JointID) (string, error)
	JointPosition(j physics.JointID) (float64, error)
	JointVelocity(j physics.JointID) (float64, error)
	JointTorque(j physics.JointID) (float64, error)
	SetJointPosition(j physics.JointID, position float64) error
	SetJointVelocity(j physics.JointID, velocity float64) error
	PositionControl(j physics.JointID, target float64, opts ...physics.ControlOption) error
	TorqueControl(j physics.JointID, torque float64) error
}

// Joints reads and commands joints by id.
type Joints struct {
	b JointBackend
}

func NewJoints(b JointBackend) Joints { return Joints{b: b} }

func (j Joints) Name(id physics.JointID) (string, error)      { return j.b.JointName(id) }
func (j Joints) Position(id physics.JointID) (float64, error) { return j.b.JointPosition(id) }
func (j Joints) Velocity(id physics.JointID) (float64, error) { return j.b.JointVelocity(id) }
func (j Joints) Torque(id physics.JointID) (float64, error)   { return j.b.JointTorque(id) }

// SetPosition resets the joint instantly, bypassing any motor.
func (j Joints) SetPosition(id physics.JointID, q float64) error {
	return j.b.SetJointPosition(id, q)
}

func (j Joints) SetVelocity(id physics.JointID, qd float64) error {
	return j.b.SetJointVelocity(id, qd)
}

// Positions returns one position per id, in the order given.
func (j Joints) Positions(ids []physics.JointID) ([]float64, error) {
	out := make([]float64, len(ids))
	for i, id := range ids {
		q, err := j.b.JointPosition(id)
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}

func (j Joints) Velocities(ids []physics.JointID) ([]float64, error) {
	out := make([]float64, len(ids))
	for i, id := range ids {
		qd, err := j.b.JointVelocity(id)
		if err != nil {
			return nil, err
		}
		out[i] = qd
	}
	return out, nil
}

func (j Joints) SetPositions(ids []physics.JointID, q []float64) error {
	if len(ids) != len(q) {
		return fmt.Errorf("%w: %d joints, %d positions", physics.ErrDimensionMismatch, len(ids), len(q))
	}
	for i, id := range ids {
		if err := j.b.SetJointPosition(id, q[i]); err != nil {
			return err
		}
	}
	return nil
}

func (j Joints) PositionControl(id physics.JointID, target float64, opts ...physics.ControlOption) error {
	return j.b.PositionControl(id, target, opts...)
}

func (j Joints) TorqueControl(id physics.JointID, torque float64) error {
	return j.b.TorqueControl(id, torque)
}
