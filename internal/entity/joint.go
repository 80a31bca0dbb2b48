package entity

import (
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/interfaces"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/physics"
)

type Joint struct {
	id     physics.JointID
	p      *physics.Physics
	joints interfaces.Joints
}

func (j *Joint) ID() physics.JointID { return j.id }
func (j *Joint) Index() int          { return j.id.Index }
func (j *Joint) String() string      { return j.id.String() }

// Link is the child link moved by the joint.
func (j *Joint) Link() *Link { return newLink(j.p, j.id.Link()) }

func (j *Joint) Name() (string, error)              { return j.joints.Name(j.id) }
func (j *Joint) Type() (engine.JointType, error)    { return j.p.JointType(j.id) }
func (j *Joint) Limit() (physics.JointLimit, error) { return j.p.JointLimit(j.id) }

func (j *Joint) Lower() (float64, error) {
	l, err := j.Limit()
	return l.Lower, err
}

func (j *Joint) Upper() (float64, error) {
	l, err := j.Limit()
	return l.Upper, err
}

func (j *Joint) MaxEffort() (float64, error) {
	l, err := j.Limit()
	return l.Effort, err
}

func (j *Joint) MaxVelocity() (float64, error) {
	l, err := j.Limit()
	return l.Velocity, err
}

// Range is Upper-Lower.
func (j *Joint) Range() (float64, error) {
	l, err := j.Limit()
	return l.Upper - l.Lower, err
}

func (j *Joint) Dynamics() (physics.JointDynamics, error) { return j.p.JointDynamics(j.id) }

func (j *Joint) Damping() (float64, error) {
	d, err := j.Dynamics()
	return d.Damping, err
}

func (j *Joint) Friction() (float64, error) {
	d, err := j.Dynamics()
	return d.Friction, err
}

func (j *Joint) Position() (float64, error) { return j.joints.Position(j.id) }
func (j *Joint) Velocity() (float64, error) { return j.joints.Velocity(j.id) }
func (j *Joint) Torque() (float64, error)   { return j.joints.Torque(j.id) }

func (j *Joint) SetPosition(q float64) error  { return j.joints.SetPosition(j.id, q) }
func (j *Joint) SetVelocity(qd float64) error { return j.joints.SetVelocity(j.id, qd) }

func (j *Joint) EnableSensor() error { return j.p.EnableJointSensor(j.id) }

// ReactionForce fails with physics.ErrSensorDisabled until the sensor is
// enabled through this handle or the facade.
func (j *Joint) ReactionForce() ([6]float64, error) { return j.p.JointReactionForce(j.id) }
