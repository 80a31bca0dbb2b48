package control

import (
	"fmt"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/physics"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/robot"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

// IKReach solves inverse kinematics for an end-effector target and drives
// the arm there with position control. The solution is cached until the
// target changes.
type IKReach struct {
	Target spatial.Vec3
	// Orientation, when set, is matched as well as the position.
	Orientation *spatial.Quaternion

	solved []float64
}

func NewIKReach(target spatial.Vec3) *IKReach {
	return &IKReach{Target: target}
}

func (r *IKReach) solve(arm *robot.Arm) ([]float64, error) {
	target := spatial.Pose{Position: r.Target, Orientation: spatial.IdentityQuaternion()}
	var opts []physics.IKOption
	if r.Orientation != nil {
		target.Orientation = *r.Orientation
	} else {
		opts = append(opts, physics.WithPositionOnly())
	}
	full, err := arm.ComputeIKJoints(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("ik: %w", err)
	}
	return arm.ArmPositions(full)
}

func (r *IKReach) Compute(arm *robot.Arm, s sim.Sample) (sim.Command, error) {
	if r.solved == nil {
		q, err := r.solve(arm)
		if err != nil {
			return sim.Command{}, err
		}
		r.solved = q
	}
	cmd := sim.PositionCommand(r.solved)
	target := r.Target
	cmd.Target = &target
	return cmd, nil
}

func (r *IKReach) GetParams() map[string]float64 {
	return map[string]float64{"x": r.Target.X, "y": r.Target.Y, "z": r.Target.Z}
}

func (r *IKReach) SetParam(name string, value float64) error {
	switch name {
	case "x":
		r.Target.X = value
	case "y":
		r.Target.Y = value
	case "z":
		r.Target.Z = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	r.solved = nil
	return nil
}
