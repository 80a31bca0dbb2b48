package physics

import (
	"fmt"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

type (
	BodyID         = engine.BodyID
	LinkID         = engine.EntityRef
	ConstraintID   = engine.ConstraintID
	StateID        = engine.StateID
	DynamicsUpdate = engine.DynamicsUpdate
	Command        = engine.MotorCommand
)

// JointID addresses joint Index of Body.
type JointID struct {
	Body  BodyID
	Index int
}

func (j JointID) String() string { return fmt.Sprintf("joint(%d,%d)", j.Body, j.Index) }

// Link is the link moved by this joint.
func (j JointID) Link() LinkID { return engine.LinkRef(j.Body, engine.LinkIndex(j.Index)) }

type Dynamics struct {
	Mass             float64
	LateralFriction  float64
	RollingFriction  float64
	SpinningFriction float64
}

type JointDynamics struct {
	Damping  float64
	Friction float64
}

type JointLimit struct {
	Lower    float64
	Upper    float64
	Effort   float64
	Velocity float64
}

// DebugCameraConfig positions the debug visualizer camera. Yaw and Pitch
// are radians.
type DebugCameraConfig struct {
	Distance float64
	Yaw      float64
	Pitch    float64
	Target   spatial.Vec3
}

type DebugVisualizerInfo struct {
	DebugCameraConfig
	View       spatial.Mat4
	Projection spatial.Mat4
}

type ImageMode string

const (
	ImageRGB          ImageMode = "rgb"
	ImageDepth        ImageMode = "depth"
	ImageRGBD         ImageMode = "rgbd"
	ImageSegmentation ImageMode = "segmentation"
)

// CameraImage carries the buffers selected by its Mode; the others are nil.
type CameraImage struct {
	Mode          ImageMode
	Width, Height int
	RGBA          []uint8
	Depth         []float32
	Segmentation  []int32
}
