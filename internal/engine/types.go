package engine

import (
	"fmt"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

type (
	BodyID       int
	LinkIndex    int
	ConstraintID int
	StateID      int
	ShapeID      int
)

// BaseLink is the link index of a body's base frame.
const BaseLink LinkIndex = -1

// NoShape marks an absent collision or visual shape.
const NoShape ShapeID = -1

// EntityRef names a body (Link == BaseLink) or one of its links.
type EntityRef struct {
	Body BodyID
	Link LinkIndex
}

// NoEntity anchors a constraint to the world.
var NoEntity = EntityRef{Body: -1, Link: BaseLink}

func BodyRef(id BodyID) EntityRef                 { return EntityRef{Body: id, Link: BaseLink} }
func LinkRef(id BodyID, link LinkIndex) EntityRef { return EntityRef{Body: id, Link: link} }

func (r EntityRef) IsBase() bool  { return r.Link == BaseLink }
func (r EntityRef) IsWorld() bool { return r.Body < 0 }

func (r EntityRef) String() string {
	if r.IsWorld() {
		return "world"
	}
	if r.IsBase() {
		return fmt.Sprintf("body(%d)", r.Body)
	}
	return fmt.Sprintf("link(%d,%d)", r.Body, r.Link)
}

type JointType int

const (
	JointRevolute JointType = iota
	JointPrismatic
	JointSpherical
	JointPlanar
	JointFixed
	JointPoint2Point
	JointGear
)

var jointTypeNames = map[JointType]string{
	JointRevolute:    "revolute",
	JointPrismatic:   "prismatic",
	JointSpherical:   "spherical",
	JointPlanar:      "planar",
	JointFixed:       "fixed",
	JointPoint2Point: "point2point",
	JointGear:        "gear",
}

func (t JointType) String() string {
	if n, ok := jointTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("JointType(%d)", int(t))
}

// ParseJointType maps a joint type name to its value.
func ParseJointType(name string) (JointType, bool) {
	for t, n := range jointTypeNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// Movable reports whether the joint contributes a scalar degree of freedom.
func (t JointType) Movable() bool {
	return t == JointRevolute || t == JointPrismatic
}

type GeometryType int

const (
	GeomSphere GeometryType = iota + 2
	GeomBox
	GeomCapsule
	GeomCylinder
	GeomPlane
	GeomMesh
)

func (g GeometryType) String() string {
	switch g {
	case GeomSphere:
		return "sphere"
	case GeomBox:
		return "box"
	case GeomCapsule:
		return "capsule"
	case GeomCylinder:
		return "cylinder"
	case GeomPlane:
		return "plane"
	case GeomMesh:
		return "mesh"
	}
	return fmt.Sprintf("GeometryType(%d)", int(g))
}

// BodyInfo names a body and its base link as declared by its asset.
type BodyInfo struct {
	BaseName string
	BodyName string
}

// JointInfo is the static description of one joint.
type JointInfo struct {
	Index       int
	Name        string
	Type        JointType
	Damping     float64
	Friction    float64
	LowerLimit  float64
	UpperLimit  float64
	MaxForce    float64
	MaxVelocity float64
	LinkName    string
	Axis        spatial.Vec3
	ParentFrame spatial.Pose
	ParentIndex LinkIndex
}

// JointState is the dynamic state of one joint after the last step.
type JointState struct {
	Position      float64
	Velocity      float64
	ReactionForce [6]float64
	MotorTorque   float64
}

// LinkState mirrors the engine's link state record. LinkFrame is the pose of
// the link's own frame; WorldCOM is the centre of mass; LocalInertial is the
// centre of mass expressed in the link frame.
type LinkState struct {
	WorldCOM      spatial.Pose
	LocalInertial spatial.Pose
	LinkFrame     spatial.Pose
}

type DynamicsInfo struct {
	Mass              float64
	LateralFriction   float64
	RollingFriction   float64
	SpinningFriction  float64
	Restitution       float64
	ContactDamping    float64
	ContactStiffness  float64
	LocalInertialDiag spatial.Vec3
}

// DynamicsUpdate changes only the non-nil fields.
type DynamicsUpdate struct {
	Mass             *float64
	LateralFriction  *float64
	RollingFriction  *float64
	SpinningFriction *float64
	ContactDamping   *float64
	ContactStiffness *float64
}

type ControlMode int

const (
	ControlPosition ControlMode = iota
	ControlVelocity
	ControlTorque
)

func (m ControlMode) String() string {
	switch m {
	case ControlPosition:
		return "position"
	case ControlVelocity:
		return "velocity"
	case ControlTorque:
		return "torque"
	}
	return fmt.Sprintf("ControlMode(%d)", int(m))
}

// MotorCommand is one joint motor setting. Nil pointers take the engine
// defaults.
type MotorCommand struct {
	Mode           ControlMode
	TargetPosition float64
	TargetVelocity float64
	Force          *float64
	MaxVelocity    *float64
	PositionGain   *float64
	VelocityGain   *float64
}

// ShapeSpec describes a collision or visual shape.
type ShapeSpec struct {
	Geometry    GeometryType
	Radius      float64
	HalfExtents spatial.Vec3
	Height      float64
	FileName    string
	MeshScale   spatial.Vec3
	FramePose   spatial.Pose
	RGBA        [4]float64
}

// MultiBodySpec creates a single-link body from shapes.
type MultiBodySpec struct {
	BaseMass       float64
	CollisionShape ShapeID
	VisualShape    ShapeID
	BasePose       spatial.Pose
	Static         bool
}

type ConstraintSpec struct {
	Parent      EntityRef
	Child       EntityRef
	Type        JointType
	Axis        spatial.Vec3
	ParentFrame spatial.Pose
	ChildFrame  spatial.Pose
}

// ConstraintUpdate changes only the non-nil fields.
type ConstraintUpdate struct {
	ChildFrame *spatial.Pose
	MaxForce   *float64
}

type ConstraintInfo struct {
	Spec       ConstraintSpec
	ChildFrame spatial.Pose
	MaxForce   float64
}

// IKRequest asks for a joint configuration placing Link at Target.
// Orientation is ignored when TargetOrientation is false.
type IKRequest struct {
	Body              BodyID
	Link              LinkIndex
	Target            spatial.Pose
	TargetOrientation bool
	LowerLimits       []float64
	UpperLimits       []float64
	Ranges            []float64
	Damping           []float64
	RestPoses         []float64
	MaxIterations     int
	Threshold         float64
}

// ContactQuery selects contacts involving A, and B when set. A reference to
// a body's base matches every link of that body.
type ContactQuery struct {
	A EntityRef
	B *EntityRef
}

type ContactPoint struct {
	A, B        EntityRef
	PositionOnA spatial.Vec3
	PositionOnB spatial.Vec3
	NormalOnB   spatial.Vec3
	Distance    float64
	NormalForce float64
}

// VisualShape is one visual geometry record of a body link, posed in the
// link frame.
type VisualShape struct {
	Body       BodyID
	Link       LinkIndex
	Geometry   GeometryType
	Dimensions spatial.Vec3
	MeshFile   string
	LocalPose  spatial.Pose
	RGBA       [4]float64
}

// DebugCamera uses the engine's units: degrees for yaw and pitch.
type DebugCamera struct {
	Distance float64
	YawDeg   float64
	PitchDeg float64
	Target   spatial.Vec3
}

type ImageRequest struct {
	Width, Height int
	View          spatial.Mat4
	Projection    spatial.Mat4
}

// Image holds row-major pixel buffers.
type Image struct {
	Width, Height int
	RGBA          []uint8
	Depth         []float32
	Segmentation  []int32
}
