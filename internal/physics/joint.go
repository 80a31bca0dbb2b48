package physics

import (
	"fmt"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
)

func (p *Physics) jointInfo(j JointID) (engine.JointInfo, error) {
	if err := p.alive(); err != nil {
		return engine.JointInfo{}, err
	}
	return p.eng.JointInfo(j.Body, j.Index)
}

func (p *Physics) jointState(j JointID) (engine.JointState, error) {
	if err := p.alive(); err != nil {
		return engine.JointState{}, err
	}
	return p.eng.JointState(j.Body, j.Index)
}

func (p *Physics) JointName(j JointID) (string, error) {
	info, err := p.jointInfo(j)
	return info.Name, err
}

func (p *Physics) JointType(j JointID) (engine.JointType, error) {
	info, err := p.jointInfo(j)
	return info.Type, err
}

func (p *Physics) JointDynamics(j JointID) (JointDynamics, error) {
	info, err := p.jointInfo(j)
	return JointDynamics{Damping: info.Damping, Friction: info.Friction}, err
}

func (p *Physics) JointLimit(j JointID) (JointLimit, error) {
	info, err := p.jointInfo(j)
	return JointLimit{
		Lower:    info.LowerLimit,
		Upper:    info.UpperLimit,
		Effort:   info.MaxForce,
		Velocity: info.MaxVelocity,
	}, err
}

func (p *Physics) JointPosition(j JointID) (float64, error) {
	s, err := p.jointState(j)
	return s.Position, err
}

func (p *Physics) JointVelocity(j JointID) (float64, error) {
	s, err := p.jointState(j)
	return s.Velocity, err
}

// JointReactionForce returns [Fx, Fy, Fz, Mx, My, Mz] from the joint's
// force/torque sensor. The sensor must have been enabled first.
func (p *Physics) JointReactionForce(j JointID) ([6]float64, error) {
	if err := p.alive(); err != nil {
		return [6]float64{}, err
	}
	if !p.sensors[j] {
		return [6]float64{}, fmt.Errorf("%w: %v", ErrSensorDisabled, j)
	}
	s, err := p.jointState(j)
	return s.ReactionForce, err
}

// JointTorque is the motor torque applied during the last step.
func (p *Physics) JointTorque(j JointID) (float64, error) {
	s, err := p.jointState(j)
	return s.MotorTorque, err
}

// SetJointPosition resets the joint instantly and zeroes its velocity.
func (p *Physics) SetJointPosition(j JointID, position float64) error {
	if err := p.alive(); err != nil {
		return err
	}
	if err := finite(j, position); err != nil {
		return err
	}
	return p.eng.ResetJointState(j.Body, j.Index, position, 0)
}

// SetJointVelocity resets the joint velocity, keeping its position.
func (p *Physics) SetJointVelocity(j JointID, velocity float64) error {
	if err := finite(j, velocity); err != nil {
		return err
	}
	s, err := p.jointState(j)
	if err != nil {
		return err
	}
	return p.eng.ResetJointState(j.Body, j.Index, s.Position, velocity)
}

func (p *Physics) EnableJointSensor(j JointID) error {
	if err := p.alive(); err != nil {
		return err
	}
	if err := p.eng.EnableJointSensor(j.Body, j.Index, true); err != nil {
		return err
	}
	p.sensors[j] = true
	return nil
}
