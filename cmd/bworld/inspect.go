package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/physics"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/robot"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/world"
)

func newIKCommand(a *app) *cobra.Command {
	var preset string
	cmd := &cobra.Command{
		Use:   "ik x y z",
		Short: "solve inverse kinematics for an end-effector position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p [3]float64
			for i, s := range args {
				v, err := strconv.ParseFloat(s, 64)
				if err != nil {
					return fmt.Errorf("invalid coordinate %q: %w", s, err)
				}
				p[i] = v
			}
			w, arm, err := a.inspectArm(preset)
			if err != nil {
				return err
			}
			target := spatial.Pose{Position: spatial.Vec3{X: p[0], Y: p[1], Z: p[2]}, Orientation: spatial.IdentityQuaternion()}
			full, err := arm.ComputeIKJoints(target, physics.WithPositionOnly())
			if err != nil {
				return err
			}
			q, err := arm.ArmPositions(full)
			if err != nil {
				return err
			}
			if err := setArm(w.Physics(), arm, q); err != nil {
				return err
			}
			ee, err := arm.EEPose()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "q: %.4f\n", q)
			fmt.Fprintf(a.out, "ee: %v\n", ee.Position)
			fmt.Fprintf(a.out, "error: %.5f\n", ee.Position.Sub(target.Position).Norm())
			return nil
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "", "world preset (default "+defaultPreset+")")
	return cmd
}

func newJacobianCommand(a *app) *cobra.Command {
	var (
		preset string
		q      []float64
	)
	cmd := &cobra.Command{
		Use:   "jacobian",
		Short: "print the end-effector jacobian and mass matrix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, arm, err := a.inspectArm(preset)
			if err != nil {
				return err
			}
			if q != nil {
				if err := setArm(w.Physics(), arm, q); err != nil {
					return err
				}
			}
			jac, err := arm.ZeroDecoupledJacobian()
			if err != nil {
				return err
			}
			mass, err := arm.MassMatrix()
			if err != nil {
				return err
			}
			printMatrix(a, "translational", jac.Translational)
			printMatrix(a, "rotational", jac.Rotational)
			printMatrix(a, "mass", mass)
			return nil
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "", "world preset (default "+defaultPreset+")")
	cmd.Flags().Float64SliceVar(&q, "q", nil, "arm joint positions (default neutral)")
	return cmd
}

func (a *app) inspectArm(preset string) (*world.World, *robot.Arm, error) {
	cfg, _, err := a.worldConfig(preset, "")
	if err != nil {
		return nil, nil, err
	}
	w, err := a.openWorld(cfg)
	if err != nil {
		return nil, nil, err
	}
	return w, w.Arms()[0], nil
}

// setArm resets the arm joints to q without stepping the world.
func setArm(p *physics.Physics, arm *robot.Arm, q []float64) error {
	ids := arm.JointIDs()
	if len(q) != len(ids) {
		return fmt.Errorf("expected %d joint values, got %d", len(ids), len(q))
	}
	for i, id := range ids {
		if err := p.SetJointPosition(id, q[i]); err != nil {
			return err
		}
	}
	return nil
}

func printMatrix(a *app, name string, m spatial.Matrix) {
	fmt.Fprintf(a.out, "%s (%dx%d):\n", name, m.Rows(), m.Cols())
	for _, row := range m {
		for _, v := range row {
			fmt.Fprintf(a.out, " %9.4f", v)
		}
		fmt.Fprintln(a.out)
	}
}
