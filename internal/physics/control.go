package physics

import (
	"fmt"
	"math"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
)

func (p *Physics) command(j JointID, cmd Command) error {
	if err := p.alive(); err != nil {
		return err
	}
	vals := []float64{cmd.TargetPosition, cmd.TargetVelocity}
	if cmd.Force != nil {
		vals = append(vals, *cmd.Force)
	}
	if err := finite(j, vals...); err != nil {
		return err
	}
	if err := p.eng.SetMotor(j.Body, j.Index, cmd); err != nil {
		return fmt.Errorf("%v: %w", j, err)
	}
	p.commands[j] = cmd
	return nil
}

func finite(j JointID, vals ...float64) error {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%v: %w: %v", j, ErrNonFinite, v)
		}
	}
	return nil
}

func controlCommand(mode engine.ControlMode, opts []ControlOption) Command {
	var o controlOptions
	for _, opt := range opts {
		opt(&o)
	}
	cmd := Command{
		Mode:         mode,
		Force:        o.maxForce,
		MaxVelocity:  o.maxVelocity,
		PositionGain: o.positionGain,
		VelocityGain: o.velocityGain,
	}
	if o.targetVelocity != nil {
		cmd.TargetVelocity = *o.targetVelocity
	}
	return cmd
}

// PositionControl drives the joint motor towards target. The command stays
// in effect until replaced.
func (p *Physics) PositionControl(j JointID, target float64, opts ...ControlOption) error {
	cmd := controlCommand(engine.ControlPosition, opts)
	cmd.TargetPosition = target
	return p.command(j, cmd)
}

func (p *Physics) VelocityControl(j JointID, target float64, opts ...ControlOption) error {
	cmd := controlCommand(engine.ControlVelocity, opts)
	cmd.TargetVelocity = target
	return p.command(j, cmd)
}

// TorqueControl applies a constant joint torque, replacing the motor.
func (p *Physics) TorqueControl(j JointID, torque float64) error {
	return p.command(j, Command{Mode: engine.ControlTorque, Force: &torque})
}

// LastCommand reports the motor command most recently issued for j.
func (p *Physics) LastCommand(j JointID) (Command, bool) {
	cmd, ok := p.commands[j]
	return cmd, ok
}

func (o *arrayOptions) check(n int) error {
	for _, s := range [][]float64{o.targetVelocities, o.maxVelocities, o.maxForces, o.positionGains, o.velocityGains} {
		if s != nil && len(s) != n {
			return fmt.Errorf("%w: option has %d entries for %d joints", ErrDimensionMismatch, len(s), n)
		}
	}
	return nil
}

func pick(s []float64, i int) *float64 {
	if s == nil {
		return nil
	}
	v := s[i]
	return &v
}

func (p *Physics) controlArray(id BodyID, joints []int, targets []float64, mode engine.ControlMode, o arrayOptions) error {
	if err := p.alive(); err != nil {
		return err
	}
	if len(joints) != len(targets) {
		return fmt.Errorf("%w: %d joints, %d targets", ErrDimensionMismatch, len(joints), len(targets))
	}
	if err := o.check(len(joints)); err != nil {
		return err
	}
	for i, idx := range joints {
		cmd := Command{
			Mode:         mode,
			Force:        pick(o.maxForces, i),
			MaxVelocity:  pick(o.maxVelocities, i),
			PositionGain: pick(o.positionGains, i),
			VelocityGain: pick(o.velocityGains, i),
		}
		if o.targetVelocities != nil {
			cmd.TargetVelocity = o.targetVelocities[i]
		}
		switch mode {
		case engine.ControlPosition:
			cmd.TargetPosition = targets[i]
		case engine.ControlVelocity:
			cmd.TargetVelocity = targets[i]
		case engine.ControlTorque:
			t := targets[i]
			cmd = Command{Mode: mode, Force: &t}
		}
		if err := p.command(JointID{Body: id, Index: idx}, cmd); err != nil {
			return err
		}
	}
	return nil
}

// PositionControlArray commands several joints of one body at once.
// Per-joint max velocities are not available in array form and yield
// ErrNotImplemented.
func (p *Physics) PositionControlArray(id BodyID, joints []int, targets []float64, opts ...ArrayControlOption) error {
	var o arrayOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxVelocities != nil {
		return fmt.Errorf("%w: max velocities in array position control", ErrNotImplemented)
	}
	return p.controlArray(id, joints, targets, engine.ControlPosition, o)
}

func (p *Physics) VelocityControlArray(id BodyID, joints []int, targets []float64, opts ...ArrayControlOption) error {
	var o arrayOptions
	for _, opt := range opts {
		opt(&o)
	}
	return p.controlArray(id, joints, targets, engine.ControlVelocity, o)
}

func (p *Physics) TorqueControlArray(id BodyID, joints []int, torques []float64) error {
	return p.controlArray(id, joints, torques, engine.ControlTorque, arrayOptions{})
}
