package sim

import (
	"errors"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/robot"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

var (
	ErrRealTime        = errors.New("sim: cannot drive a real-time world step by step")
	ErrInvalidDuration = errors.New("sim: duration must be positive")
	ErrCommandMode     = errors.New("sim: unsupported command mode")
)

// Command is what a controller asks of the arm for one step.
type Command struct {
	Mode   engine.ControlMode
	Values []float64
	// Target is the end-effector position the controller aims for, if any.
	Target *spatial.Vec3
}

func PositionCommand(q []float64) Command {
	return Command{Mode: engine.ControlPosition, Values: q}
}

func TorqueCommand(tau []float64) Command {
	return Command{Mode: engine.ControlTorque, Values: tau}
}

// Sample is the arm state at the start of a step, together with the command
// issued for that step.
type Sample struct {
	Step    int
	Time    float64
	Q       []float64
	Qd      []float64
	EE      spatial.Pose
	Command Command
}

type Controller interface {
	Compute(arm *robot.Arm, s Sample) (Command, error)
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Sample)
}

type Result struct {
	Samples    []Sample
	Metrics    map[string]float64
	StepsTaken int
	// Digest fingerprints the final world state.
	Digest uint64
}
