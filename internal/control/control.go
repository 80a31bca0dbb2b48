package control

import (
	"fmt"
	"sort"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/config"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/robot"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

// Tunable controllers expose parameters for live adjustment.
type Tunable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

type factory func(arm *robot.Arm, p config.ControllerConfig) sim.Controller

var registry = map[string]factory{
	"hold": func(arm *robot.Arm, _ config.ControllerConfig) sim.Controller {
		return NewHold(arm.Config().NeutralJointPositions)
	},
	"ik_reach": func(_ *robot.Arm, p config.ControllerConfig) sim.Controller {
		return NewIKReach(spatial.Vec3{X: p.Target[0], Y: p.Target[1], Z: p.Target[2]})
	},
	"trajectory": func(arm *robot.Arm, p config.ControllerConfig) sim.Controller {
		return NewJointTrajectory(arm.Config().NeutralJointPositions, p.Amplitude, p.Frequency)
	},
	"pid": func(arm *robot.Arm, p config.ControllerConfig) sim.Controller {
		return NewPID(p.Kp, p.Ki, p.Kd, arm.Config().NeutralJointPositions)
	},
	"lqr": func(arm *robot.Arm, p config.ControllerConfig) sim.Controller {
		return NewJointPD(p.Kp, p.Kd, arm.Config().NeutralJointPositions)
	},
	"manual": func(arm *robot.Arm, _ config.ControllerConfig) sim.Controller {
		return NewManual(arm.Config().NeutralJointPositions)
	},
}

// New builds the named controller for arm.
func New(name string, arm *robot.Arm, params config.ControllerConfig) (sim.Controller, error) {
	build, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownController, name, Names())
	}
	return build(arm, params), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func checkLen(what string, got, want int) error {
	if got != want {
		return fmt.Errorf("%w: %d %s for %d joints", ErrDimension, got, what, want)
	}
	return nil
}

// SetParams applies params to a [Tunable] controller in name order.
func SetParams(ctrl sim.Controller, params map[string]float64) error {
	if len(params) == 0 {
		return nil
	}
	t, ok := ctrl.(Tunable)
	if !ok {
		return fmt.Errorf("%w: %T is not tunable", ErrUnknownParam, ctrl)
	}
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if err := t.SetParam(k, params[k]); err != nil {
			return err
		}
	}
	return nil
}
