package engine

import "github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"

// Engine is the solver session consumed by the physics facade.
type Engine interface {
	Disconnect() error
	ResetSimulation() error
	SetTimeStep(dt float64) error
	SetRealTime(enabled bool) error
	StepSimulation() error
	SetGravity(g spatial.Vec3) error

	LoadArticulated(path string, base spatial.Pose, scale float64, fixedBase bool) (BodyID, error)
	CreateCollisionShape(spec ShapeSpec) (ShapeID, error)
	CreateVisualShape(spec ShapeSpec) (ShapeID, error)
	CreateMultiBody(spec MultiBodySpec) (BodyID, error)
	RemoveBody(id BodyID) error
	Bodies() []BodyID
	BodyInfo(id BodyID) (BodyInfo, error)

	BasePose(id BodyID) (spatial.Pose, error)
	ResetBasePose(id BodyID, pose spatial.Pose) error
	BaseVelocity(id BodyID) (linear, angular spatial.Vec3, err error)
	ResetBaseVelocity(id BodyID, linear, angular *spatial.Vec3) error

	NumJoints(id BodyID) (int, error)
	JointInfo(id BodyID, joint int) (JointInfo, error)
	JointState(id BodyID, joint int) (JointState, error)
	ResetJointState(id BodyID, joint int, position, velocity float64) error
	EnableJointSensor(id BodyID, joint int, enable bool) error
	SetMotor(id BodyID, joint int, cmd MotorCommand) error

	LinkState(id BodyID, link LinkIndex) (LinkState, error)
	DynamicsInfo(id BodyID, link LinkIndex) (DynamicsInfo, error)
	ChangeDynamics(id BodyID, link LinkIndex, upd DynamicsUpdate) error
	ChangeVisualColor(id BodyID, link LinkIndex, rgba, specular *[4]float64) error
	VisualShapes(id BodyID) ([]VisualShape, error)

	ApplyExternalForce(ref EntityRef, force, position spatial.Vec3) error
	ApplyExternalTorque(ref EntityRef, torque spatial.Vec3) error

	CreateConstraint(spec ConstraintSpec) (ConstraintID, error)
	ChangeConstraint(id ConstraintID, upd ConstraintUpdate) error
	RemoveConstraint(id ConstraintID) error
	ConstraintInfo(id ConstraintID) (ConstraintInfo, error)
	Constraints() []ConstraintID

	InverseKinematics(req IKRequest) ([]float64, error)
	InverseDynamics(id BodyID, q, qd, qdd []float64) ([]float64, error)
	MassMatrix(id BodyID, q []float64) (spatial.Matrix, error)
	Jacobian(id BodyID, link LinkIndex, local spatial.Vec3, q, qd, qdd []float64) (linear, angular spatial.Matrix, err error)

	ContactPoints(q ContactQuery) ([]ContactPoint, error)

	SaveState() (StateID, error)
	RestoreState(id StateID) error
	RemoveState(id StateID) error

	ResetDebugCamera(cam DebugCamera) error
	DebugCamera() (DebugCamera, error)
	CameraImage(req ImageRequest) (*Image, error)
}
