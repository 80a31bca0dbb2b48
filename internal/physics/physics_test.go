package physics_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/assets"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine/reference"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/physics"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

const dt = 1.0 / 240

func newSession(t *testing.T, opts ...physics.Option) (*physics.Physics, string) {
	t.Helper()
	dir, err := assets.Extract(t.TempDir())
	require.NoError(t, err)
	return physics.New(reference.New(), opts...), dir
}

func addArm(t *testing.T, p *physics.Physics, dir string) physics.BodyID {
	t.Helper()
	id, err := p.AddBody(filepath.Join(dir, assets.TwoLink), spatial.IdentityPose(), physics.WithStatic())
	require.NoError(t, err)
	return id
}

func at(x, y, z float64) spatial.Pose {
	return spatial.Pose{Position: spatial.Vec3{X: x, Y: y, Z: z}, Orientation: spatial.IdentityQuaternion()}
}

func TestFixedStepTime(t *testing.T) {
	p, _ := newSession(t, physics.WithTimeStep(dt))

	_, err := p.Time()
	assert.ErrorIs(t, err, physics.ErrNotStarted)
	assert.ErrorIs(t, p.Step(), physics.ErrNotStarted)

	require.NoError(t, p.Start())
	assert.False(t, p.IsRealTime())
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Step())
	}
	assert.Equal(t, 3, p.NumSteps())
	now, err := p.Time()
	require.NoError(t, err)
	assert.InDelta(t, 3*dt, now, 1e-12)
}

func TestRealTimeSession(t *testing.T) {
	clock := time.Unix(100, 0)
	p, _ := newSession(t, physics.WithClock(func() time.Time { return clock }))

	require.NoError(t, p.Start())
	assert.True(t, p.IsRealTime())
	assert.Zero(t, p.TimeStep())
	assert.ErrorIs(t, p.Step(), physics.ErrRealTimeStep)

	clock = clock.Add(1500 * time.Millisecond)
	now, err := p.Time()
	require.NoError(t, err)
	assert.InDelta(t, 1.5, now, 1e-9)
}

func TestDisconnectIsFinal(t *testing.T) {
	p, dir := newSession(t)
	id := addArm(t, p, dir)

	require.NoError(t, p.Disconnect())
	assert.ErrorIs(t, p.Disconnect(), physics.ErrDisconnected)
	_, err := p.BodyPose(id)
	assert.ErrorIs(t, err, physics.ErrDisconnected)
	assert.ErrorIs(t, p.Start(), physics.ErrDisconnected)
}

func TestAddBodyErrors(t *testing.T) {
	p, dir := newSession(t)

	_, err := p.AddBody(filepath.Join(dir, "missing.urdf"), spatial.IdentityPose())
	assert.ErrorIs(t, err, physics.ErrNotFound)

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))
	_, err = p.AddBody(txt, spatial.IdentityPose())
	assert.ErrorIs(t, err, physics.ErrUnrecognizedExtension)
}

func TestMeshBodyPoseBeforeFirstStep(t *testing.T) {
	p, dir := newSession(t, physics.WithTimeStep(dt))
	pose := spatial.PoseFromEuler(spatial.Vec3{X: 0.1, Y: -0.2, Z: 0.5}, spatial.Euler{Yaw: 0.3})

	id, err := p.AddBody(filepath.Join(dir, assets.Cube), pose)
	require.NoError(t, err)

	got, err := p.BodyPose(id)
	require.NoError(t, err)
	assert.True(t, got.ApproxEqual(pose, 1e-9), "got %v", got)

	mass, err := p.BodyMass(id)
	require.NoError(t, err)
	assert.InDelta(t, physics.DefaultMeshMass, mass, 1e-12)

	name, err := p.BodyName(id)
	require.NoError(t, err)
	assert.Equal(t, "cube", name)
}

func TestLinkAndJointQueries(t *testing.T) {
	p, dir := newSession(t)
	id := addArm(t, p, dir)

	n, err := p.NumJoints(id)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	name, err := p.LinkName(engine.BodyRef(id))
	require.NoError(t, err)
	assert.Equal(t, "base", name)
	name, err = p.LinkName(engine.LinkRef(id, 1))
	require.NoError(t, err)
	assert.Equal(t, "lower", name)

	elbow := physics.JointID{Body: id, Index: 1}
	jn, err := p.JointName(elbow)
	require.NoError(t, err)
	assert.Equal(t, "elbow", jn)
	jt, err := p.JointType(elbow)
	require.NoError(t, err)
	assert.Equal(t, engine.JointRevolute, jt)
	lim, err := p.JointLimit(elbow)
	require.NoError(t, err)
	assert.Equal(t, physics.JointLimit{Lower: -3, Upper: 3, Effort: 100, Velocity: 2}, lim)
	jd, err := p.JointDynamics(elbow)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, jd.Damping, 1e-12)

	_, err = p.LinkMass(engine.LinkRef(id, 0))
	assert.ErrorIs(t, err, physics.ErrNotSupported)
	assert.ErrorIs(t, p.SetLinkMass(engine.LinkRef(id, 0), 1), physics.ErrNotSupported)

	off, err := p.LinkLocalOffset(engine.LinkRef(id, 0))
	require.NoError(t, err)
	assert.InDelta(t, 0.25, off.Position.X, 1e-12)
}

func TestJointResets(t *testing.T) {
	p, dir := newSession(t)
	id := addArm(t, p, dir)
	shoulder := physics.JointID{Body: id, Index: 0}

	require.NoError(t, p.SetJointVelocity(shoulder, 0.4))
	require.NoError(t, p.SetJointPosition(shoulder, 0.7))
	pos, err := p.JointPosition(shoulder)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, pos, 1e-12)
	vel, err := p.JointVelocity(shoulder)
	require.NoError(t, err)
	assert.Zero(t, vel)

	require.NoError(t, p.SetJointVelocity(shoulder, -0.2))
	pos, _ = p.JointPosition(shoulder)
	vel, _ = p.JointVelocity(shoulder)
	assert.InDelta(t, 0.7, pos, 1e-12)
	assert.InDelta(t, -0.2, vel, 1e-12)
}

func TestNonFiniteValuesAreRejected(t *testing.T) {
	p, dir := newSession(t)
	id := addArm(t, p, dir)
	shoulder := physics.JointID{Body: id, Index: 0}
	require.NoError(t, p.SetJointPosition(shoulder, 0.3))

	assert.ErrorIs(t, p.SetJointPosition(shoulder, math.NaN()), physics.ErrNonFinite)
	assert.ErrorIs(t, p.SetJointVelocity(shoulder, math.Inf(1)), physics.ErrNonFinite)
	assert.ErrorIs(t, p.PositionControl(shoulder, math.NaN()), physics.ErrNonFinite)
	assert.ErrorIs(t, p.TorqueControl(shoulder, math.Inf(-1)), physics.ErrNonFinite)

	pos, err := p.JointPosition(shoulder)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, pos, 1e-12)
	_, ok := p.LastCommand(shoulder)
	assert.False(t, ok)
}

func TestReactionForceNeedsSensor(t *testing.T) {
	p, dir := newSession(t, physics.WithTimeStep(dt))
	id := addArm(t, p, dir)
	elbow := physics.JointID{Body: id, Index: 1}

	_, err := p.JointReactionForce(elbow)
	assert.ErrorIs(t, err, physics.ErrSensorDisabled)

	require.NoError(t, p.EnableJointSensor(elbow))
	require.NoError(t, p.Start())
	require.NoError(t, p.Step())
	_, err = p.JointReactionForce(elbow)
	assert.NoError(t, err)
}

func TestRestoreStateRollsBackSensorsAndCommands(t *testing.T) {
	p, dir := newSession(t, physics.WithTimeStep(dt))
	id := addArm(t, p, dir)
	shoulder := physics.JointID{Body: id, Index: 0}
	elbow := physics.JointID{Body: id, Index: 1}
	require.NoError(t, p.Start())

	snap, err := p.SaveState()
	require.NoError(t, err)

	require.NoError(t, p.EnableJointSensor(elbow))
	require.NoError(t, p.PositionControl(shoulder, 0.5))
	require.NoError(t, p.Step())
	_, err = p.JointReactionForce(elbow)
	require.NoError(t, err)

	require.NoError(t, p.RestoreState(snap))
	require.NoError(t, p.Step())
	_, err = p.JointReactionForce(elbow)
	assert.ErrorIs(t, err, physics.ErrSensorDisabled)
	_, ok := p.LastCommand(shoulder)
	assert.False(t, ok)

	// a snapshot taken with the sensor on brings it back
	require.NoError(t, p.EnableJointSensor(elbow))
	on, err := p.SaveState()
	require.NoError(t, err)
	require.NoError(t, p.RestoreState(snap))
	require.NoError(t, p.RestoreState(on))
	_, err = p.JointReactionForce(elbow)
	assert.NoError(t, err)
}

func TestRemoveBodyDropsJointRecords(t *testing.T) {
	p, dir := newSession(t, physics.WithTimeStep(dt))
	id := addArm(t, p, dir)
	elbow := physics.JointID{Body: id, Index: 1}
	require.NoError(t, p.EnableJointSensor(elbow))
	require.NoError(t, p.PositionControl(elbow, 0.2))

	require.NoError(t, p.RemoveBody(id))
	_, ok := p.LastCommand(elbow)
	assert.False(t, ok)
}

func TestPositionControlRecordsAndConverges(t *testing.T) {
	p, dir := newSession(t, physics.WithTimeStep(dt))
	id := addArm(t, p, dir)
	shoulder := physics.JointID{Body: id, Index: 0}

	_, ok := p.LastCommand(shoulder)
	assert.False(t, ok)

	require.NoError(t, p.PositionControl(shoulder, 0.5, physics.WithMaxForce(50)))
	cmd, ok := p.LastCommand(shoulder)
	require.True(t, ok)
	assert.Equal(t, engine.ControlPosition, cmd.Mode)
	assert.Equal(t, 0.5, cmd.TargetPosition)
	require.NotNil(t, cmd.Force)
	assert.Equal(t, 50.0, *cmd.Force)

	require.NoError(t, p.Start())
	for i := 0; i < 480; i++ {
		require.NoError(t, p.Step())
	}
	q, err := p.JointPosition(shoulder)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, q, 1e-2)
}

func TestControlArrays(t *testing.T) {
	p, dir := newSession(t)
	id := addArm(t, p, dir)

	err := p.PositionControlArray(id, []int{0, 1}, []float64{0.1})
	assert.ErrorIs(t, err, physics.ErrDimensionMismatch)

	err = p.PositionControlArray(id, []int{0, 1}, []float64{0.1, 0.2}, physics.WithMaxVelocities([]float64{1, 1}))
	assert.ErrorIs(t, err, physics.ErrNotImplemented)

	err = p.VelocityControlArray(id, []int{0, 1}, []float64{0.1, 0.2}, physics.WithMaxForces([]float64{1}))
	assert.ErrorIs(t, err, physics.ErrDimensionMismatch)

	require.NoError(t, p.PositionControlArray(id, []int{0, 1}, []float64{0.1, 0.2},
		physics.WithPositionGains([]float64{0.3, 0.4})))
	cmd, ok := p.LastCommand(physics.JointID{Body: id, Index: 1})
	require.True(t, ok)
	assert.Equal(t, 0.2, cmd.TargetPosition)
	require.NotNil(t, cmd.PositionGain)
	assert.Equal(t, 0.4, *cmd.PositionGain)

	require.NoError(t, p.TorqueControlArray(id, []int{0}, []float64{1.5}))
	cmd, _ = p.LastCommand(physics.JointID{Body: id, Index: 0})
	assert.Equal(t, engine.ControlTorque, cmd.Mode)
	assert.Equal(t, 1.5, *cmd.Force)
}

func TestInverseKinematicsReachesPose(t *testing.T) {
	p, dir := newSession(t)
	id := addArm(t, p, dir)
	tool := engine.LinkRef(id, 2)
	shoulder := physics.JointID{Body: id, Index: 0}
	elbow := physics.JointID{Body: id, Index: 1}

	require.NoError(t, p.SetJointPosition(shoulder, 0.3))
	require.NoError(t, p.SetJointPosition(elbow, 0.6))
	target, err := p.LinkPose(tool)
	require.NoError(t, err)
	require.NoError(t, p.SetJointPosition(shoulder, 0))
	require.NoError(t, p.SetJointPosition(elbow, 0))

	q, err := p.ComputeInverseKinematics(tool, target,
		physics.WithPositionOnly(), physics.WithRestPoses([]float64{0.2, 0.8, 0}))
	require.NoError(t, err)
	require.Len(t, q, 3)

	require.NoError(t, p.SetJointPosition(shoulder, q[0]))
	require.NoError(t, p.SetJointPosition(elbow, q[1]))
	got, err := p.LinkPose(tool)
	require.NoError(t, err)
	assert.True(t, got.Position.ApproxEqual(target.Position, 1e-3), "got %v want %v", got.Position, target.Position)

	_, err = p.ComputeInverseKinematics(tool, target, physics.WithRestPoses([]float64{0}))
	assert.ErrorIs(t, err, physics.ErrDimensionMismatch)
}

func TestJacobianAndDynamicsDimensions(t *testing.T) {
	p, dir := newSession(t)
	id := addArm(t, p, dir)
	zero := []float64{0, 0, 0}

	lin, ang, err := p.ComputeJacobian(engine.LinkRef(id, 2), spatial.Vec3{}, zero, zero, zero)
	require.NoError(t, err)
	assert.Equal(t, 3, lin.Rows())
	assert.Equal(t, 3, lin.Cols())
	assert.Equal(t, 3, ang.Rows())
	assert.InDelta(t, 0.9, lin[1][0], 1e-9)

	_, _, err = p.ComputeJacobian(engine.LinkRef(id, 2), spatial.Vec3{}, zero[:2], zero, zero)
	assert.ErrorIs(t, err, physics.ErrDimensionMismatch)

	m, err := p.ComputeMassMatrix(id, zero)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Rows())
	_, err = p.ComputeMassMatrix(id, nil)
	assert.ErrorIs(t, err, physics.ErrDimensionMismatch)

	_, err = p.ComputeInverseDynamics(id, zero, zero, zero[:1])
	assert.ErrorIs(t, err, physics.ErrDimensionMismatch)
}

func TestConstraintLifecycle(t *testing.T) {
	p, dir := newSession(t)
	cube, err := p.AddBody(filepath.Join(dir, assets.Cube), at(0, 0, 1))
	require.NoError(t, err)

	_, err = p.AddConstraint(engine.NoEntity, engine.BodyRef(cube), physics.WithJointType("ball"))
	assert.ErrorIs(t, err, physics.ErrUnknownJointType)

	cid, err := p.AddConstraint(engine.NoEntity, engine.BodyRef(cube))
	require.NoError(t, err)
	n, err := p.NumConstraints()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	f, err := p.ConstraintMaxForce(cid)
	require.NoError(t, err)
	assert.Positive(t, f)

	require.NoError(t, p.SetConstraintPosition(cid, spatial.Vec3{X: 0.2}))
	pos, err := p.ConstraintPosition(cid)
	require.NoError(t, err)
	assert.Equal(t, spatial.Vec3{X: 0.2}, pos)
	orient, err := p.ConstraintOrientation(cid)
	require.NoError(t, err)
	assert.True(t, orient.ApproxEqual(spatial.IdentityQuaternion(), 1e-12))

	require.NoError(t, p.RemoveConstraint(cid))
	n, _ = p.NumConstraints()
	assert.Zero(t, n)
}

func TestRemoveBodyWarnsAboutConstraints(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p, dir := newSession(t, physics.WithLogger(zap.New(core)))
	cube, err := p.AddBody(filepath.Join(dir, assets.Cube), at(0, 0, 1))
	require.NoError(t, err)
	_, err = p.AddConstraint(engine.NoEntity, engine.BodyRef(cube))
	require.NoError(t, err)

	require.NoError(t, p.RemoveBody(cube))
	assert.Equal(t, 1, logs.FilterMessage("removed body is still referenced by constraints").Len())
	n, _ := p.NumConstraints()
	assert.Equal(t, 1, n)
}

func TestCubeRestsOnPlane(t *testing.T) {
	p, dir := newSession(t, physics.WithTimeStep(dt))
	plane, err := p.AddBody(filepath.Join(dir, assets.Plane), spatial.IdentityPose(), physics.WithStatic())
	require.NoError(t, err)
	cube, err := p.AddBody(filepath.Join(dir, assets.Cube), at(0, 0, 0.3))
	require.NoError(t, err)
	require.NoError(t, p.SetGravity(spatial.Vec3{Z: -9.81}))

	require.NoError(t, p.Start())
	for i := 0; i < 480; i++ {
		require.NoError(t, p.Step())
	}
	pos, err := p.BodyPosition(cube)
	require.NoError(t, err)
	assert.InDelta(t, 0.025, pos.Z, 5e-3)

	bodies, err := p.ContactBodies(engine.BodyRef(cube))
	require.NoError(t, err)
	assert.Equal(t, []physics.BodyID{plane}, bodies)

	forces, err := p.ContactNormalForces(engine.BodyRef(cube), nil)
	require.NoError(t, err)
	require.NotEmpty(t, forces)
	total := 0.0
	for _, f := range forces {
		total += f
	}
	assert.Positive(t, total)
}

func TestStateDigestIsDeterministic(t *testing.T) {
	run := func() (*physics.Physics, uint64) {
		p, dir := newSession(t, physics.WithTimeStep(dt))
		id := addArm(t, p, dir)
		require.NoError(t, p.PositionControl(physics.JointID{Body: id, Index: 0}, 1))
		require.NoError(t, p.Start())
		for i := 0; i < 50; i++ {
			require.NoError(t, p.Step())
		}
		d, err := p.StateDigest()
		require.NoError(t, err)
		return p, d
	}
	p, a := run()
	_, b := run()
	assert.Equal(t, a, b)

	sid, err := p.SaveState()
	require.NoError(t, err)
	require.NoError(t, p.Step())
	moved, err := p.StateDigest()
	require.NoError(t, err)
	assert.NotEqual(t, a, moved)

	require.NoError(t, p.RestoreState(sid))
	restored, err := p.StateDigest()
	require.NoError(t, err)
	assert.Equal(t, a, restored)
	require.NoError(t, p.RemoveState(sid))
}

func TestDebugVisualizerUsesRadians(t *testing.T) {
	p, _ := newSession(t)
	cfg := physics.DebugCameraConfig{Distance: 1.5, Yaw: math.Pi / 4, Pitch: -math.Pi / 6, Target: spatial.Vec3{Z: 0.7}}

	require.NoError(t, p.ResetDebugVisualizer(cfg))
	info, err := p.DebugVisualizerInfo()
	require.NoError(t, err)
	assert.InDelta(t, cfg.Yaw, info.Yaw, 1e-12)
	assert.InDelta(t, cfg.Pitch, info.Pitch, 1e-12)
	assert.Equal(t, cfg.Target, info.Target)

	cam, err := p.Engine().DebugCamera()
	require.NoError(t, err)
	assert.InDelta(t, 45, cam.YawDeg, 1e-9)
	assert.InDelta(t, -30, cam.PitchDeg, 1e-9)
}

func TestCameraImageModes(t *testing.T) {
	p, dir := newSession(t)
	_, err := p.AddBody(filepath.Join(dir, assets.Cube), spatial.IdentityPose())
	require.NoError(t, err)
	view := p.ComputeViewMatrix(spatial.Vec3{X: 1, Z: 0.5}, spatial.Vec3{}, spatial.Vec3{Z: 1})
	proj := p.ComputeProjectionMatrixFOV(math.Pi/3, 1, 0.01, 10)

	_, err = p.CameraImage(8, 8, "infrared", &view, &proj)
	assert.ErrorIs(t, err, physics.ErrNotImplemented)

	img, err := p.CameraImage(8, 8, physics.ImageDepth, &view, &proj)
	require.NoError(t, err)
	assert.Len(t, img.Depth, 64)
	assert.Nil(t, img.RGBA)
	assert.Nil(t, img.Segmentation)

	img, err = p.CameraImage(8, 6, physics.ImageRGBD, nil, nil)
	require.NoError(t, err)
	assert.Len(t, img.RGBA, 8*6*4)
	assert.Len(t, img.Depth, 8*6)
}

type recordingEngine struct {
	engine.Engine
	frame  spatial.Pose
	force  spatial.Vec3
	at     spatial.Vec3
	torque spatial.Vec3
}

func (r *recordingEngine) LinkState(engine.BodyID, engine.LinkIndex) (engine.LinkState, error) {
	return engine.LinkState{LinkFrame: r.frame}, nil
}

func (r *recordingEngine) ApplyExternalForce(_ engine.EntityRef, force, position spatial.Vec3) error {
	r.force, r.at = force, position
	return nil
}

func (r *recordingEngine) ApplyExternalTorque(_ engine.EntityRef, torque spatial.Vec3) error {
	r.torque = torque
	return nil
}

func TestApplyForceUsesLinkFrame(t *testing.T) {
	rec := &recordingEngine{frame: spatial.PoseFromEuler(spatial.Vec3{X: 1}, spatial.Euler{Yaw: math.Pi / 2})}
	p := physics.New(rec)

	require.NoError(t, p.ApplyForceToLink(engine.LinkRef(0, 0), spatial.Vec3{X: 2}, spatial.Vec3{X: 0.5}))
	assert.True(t, rec.force.ApproxEqual(spatial.Vec3{Y: 2}, 1e-12), "force %v", rec.force)
	assert.True(t, rec.at.ApproxEqual(spatial.Vec3{X: 1, Y: 0.5}, 1e-12), "position %v", rec.at)

	require.NoError(t, p.ApplyTorqueToBody(0, spatial.Vec3{X: 1}))
	assert.True(t, rec.torque.ApproxEqual(spatial.Vec3{Y: 1}, 1e-12), "torque %v", rec.torque)
}
