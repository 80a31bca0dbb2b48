package reference

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/integrators"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

const (
	DefaultTimeStep = 1.0 / 240
	// DefaultMotorForce bounds motors on joints that declare no effort limit.
	DefaultMotorForce = 500.0
	// DefaultContactStiffness applies when a link's stiffness is unset.
	DefaultContactStiffness = 1e4
)

var defaultCamera = engine.DebugCamera{Distance: 5, YawDeg: 50, PitchDeg: -35}

type shape struct {
	spec engine.ShapeSpec
	g    geom
}

type snapshot struct {
	bodies      map[engine.BodyID]*body
	constraints map[engine.ConstraintID]engine.ConstraintInfo
	contacts    []engine.ContactPoint
}

// Engine is a single-session reference solver. It is not safe for
// concurrent use; run one Engine per goroutine.
type Engine struct {
	connected bool
	dt        float64
	realTime  bool
	gravity   spatial.Vec3
	camera    engine.DebugCamera

	bodies   map[engine.BodyID]*body
	nextBody engine.BodyID

	shapes    map[engine.ShapeID]shape
	nextShape engine.ShapeID

	constraints    map[engine.ConstraintID]engine.ConstraintInfo
	nextConstraint engine.ConstraintID

	states    map[engine.StateID]snapshot
	nextState engine.StateID

	contacts []engine.ContactPoint
	rk4      *integrators.RK4
}

var _ engine.Engine = (*Engine)(nil)

func New() *Engine {
	e := &Engine{
		connected: true,
		dt:        DefaultTimeStep,
		camera:    defaultCamera,
		shapes:    make(map[engine.ShapeID]shape),
		states:    make(map[engine.StateID]snapshot),
		rk4:       integrators.NewRK4(),
	}
	e.clearWorld()
	return e
}

func (e *Engine) clearWorld() {
	e.bodies = make(map[engine.BodyID]*body)
	e.constraints = make(map[engine.ConstraintID]engine.ConstraintInfo)
	e.contacts = nil
}

func (e *Engine) check() error {
	if !e.connected {
		return engine.ErrNotConnected
	}
	return nil
}

func (e *Engine) body(id engine.BodyID) (*body, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	b, ok := e.bodies[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", engine.ErrUnknownBody, id)
	}
	return b, nil
}

func (e *Engine) joint(id engine.BodyID, joint int) (*body, *link, error) {
	b, err := e.body(id)
	if err != nil {
		return nil, nil, err
	}
	if joint < 0 || joint >= len(b.links) {
		return nil, nil, fmt.Errorf("%w: body %d joint %d", engine.ErrUnknownJoint, id, joint)
	}
	return b, &b.links[joint], nil
}

func (e *Engine) link(id engine.BodyID, idx engine.LinkIndex) (*body, *link, error) {
	b, err := e.body(id)
	if err != nil {
		return nil, nil, err
	}
	l, ok := b.link(idx)
	if !ok {
		return nil, nil, fmt.Errorf("%w: body %d link %d", engine.ErrUnknownLink, id, idx)
	}
	return b, l, nil
}

func (e *Engine) Disconnect() error {
	if err := e.check(); err != nil {
		return err
	}
	e.connected = false
	e.clearWorld()
	e.states = nil
	return nil
}

func (e *Engine) ResetSimulation() error {
	if err := e.check(); err != nil {
		return err
	}
	e.clearWorld()
	e.gravity = spatial.Vec3{}
	return nil
}

func (e *Engine) SetTimeStep(dt float64) error {
	if err := e.check(); err != nil {
		return err
	}
	if dt <= 0 {
		return fmt.Errorf("time step must be positive, got %g", dt)
	}
	e.dt = dt
	return nil
}

func (e *Engine) SetRealTime(enabled bool) error {
	if err := e.check(); err != nil {
		return err
	}
	e.realTime = enabled
	return nil
}

func (e *Engine) SetGravity(g spatial.Vec3) error {
	if err := e.check(); err != nil {
		return err
	}
	e.gravity = g
	return nil
}

func (e *Engine) add(name string, base link, links []link, pose spatial.Pose, static bool) engine.BodyID {
	id := e.nextBody
	e.nextBody++
	b := newBody(id, name, base, links)
	b.basePose = pose
	b.static = static
	e.bodies[id] = b
	return id
}

func (e *Engine) LoadArticulated(path string, base spatial.Pose, scale float64, fixedBase bool) (engine.BodyID, error) {
	if err := e.check(); err != nil {
		return 0, err
	}
	if !strings.EqualFold(filepath.Ext(path), ".urdf") {
		return 0, fmt.Errorf("%w: %s", engine.ErrUnsupportedFormat, path)
	}
	if scale <= 0 {
		scale = 1
	}
	name, root, links, err := loadURDF(path, scale)
	if err != nil {
		return 0, err
	}
	return e.add(name, root, links, base, fixedBase), nil
}

func (e *Engine) createShape(spec engine.ShapeSpec) (engine.ShapeID, error) {
	if err := e.check(); err != nil {
		return 0, err
	}
	local := spec.FramePose
	if local == (spatial.Pose{}) {
		local = spatial.IdentityPose()
	}
	rgba := spec.RGBA
	if rgba == ([4]float64{}) {
		rgba = defaultRGBA
	}
	g := geom{kind: spec.Geometry, local: local, rgba: rgba}
	switch spec.Geometry {
	case engine.GeomSphere:
		g.dims = spatial.Vec3{X: spec.Radius}
	case engine.GeomBox:
		g.dims = spec.HalfExtents
	case engine.GeomCylinder, engine.GeomCapsule:
		g.dims = spatial.Vec3{X: spec.Radius, Z: spec.Height}
	case engine.GeomPlane:
	case engine.GeomMesh:
		scale := spec.MeshScale
		if scale == (spatial.Vec3{}) {
			scale = spatial.Vec3{X: 1, Y: 1, Z: 1}
		}
		if _, _, err := objBounds(spec.FileName); err != nil {
			return 0, err
		}
		g = meshGeom(spec.FileName, scale, local, rgba)
	default:
		return 0, fmt.Errorf("%w: geometry %v", engine.ErrUnsupportedFormat, spec.Geometry)
	}
	id := e.nextShape
	e.nextShape++
	e.shapes[id] = shape{spec: spec, g: g}
	return id, nil
}

func (e *Engine) CreateCollisionShape(spec engine.ShapeSpec) (engine.ShapeID, error) {
	return e.createShape(spec)
}

func (e *Engine) CreateVisualShape(spec engine.ShapeSpec) (engine.ShapeID, error) {
	return e.createShape(spec)
}

func (e *Engine) shape(id engine.ShapeID) (*geom, error) {
	if id == engine.NoShape {
		return nil, nil
	}
	s, ok := e.shapes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", engine.ErrUnknownShape, id)
	}
	return &s.g, nil
}

func (e *Engine) CreateMultiBody(spec engine.MultiBodySpec) (engine.BodyID, error) {
	if err := e.check(); err != nil {
		return 0, err
	}
	col, err := e.shape(spec.CollisionShape)
	if err != nil {
		return 0, err
	}
	vis, err := e.shape(spec.VisualShape)
	if err != nil {
		return 0, err
	}
	base := link{name: "baseLink", parent: engine.BaseLink, mass: spec.BaseMass, inertial: spatial.IdentityPose(), dyn: defaultDynamics()}
	name := "body"
	if col != nil {
		base.collisions = []geom{*col}
		base.inertiaDiag = boxInertia(spec.BaseMass, col.halfExtents())
		if col.mesh != "" {
			name = strings.TrimSuffix(filepath.Base(col.mesh), filepath.Ext(col.mesh))
		}
	}
	if vis != nil {
		base.visuals = []geom{*vis}
	}
	pose := spec.BasePose
	if pose == (spatial.Pose{}) {
		pose = spatial.IdentityPose()
	}
	return e.add(name, base, nil, pose, spec.Static || spec.BaseMass <= 0), nil
}

func (e *Engine) RemoveBody(id engine.BodyID) error {
	if _, err := e.body(id); err != nil {
		return err
	}
	delete(e.bodies, id)
	return nil
}

// Bodies returns the live body ids in ascending order.
func (e *Engine) Bodies() []engine.BodyID {
	ids := make([]engine.BodyID, 0, len(e.bodies))
	for id := range e.bodies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (e *Engine) BodyInfo(id engine.BodyID) (engine.BodyInfo, error) {
	b, err := e.body(id)
	if err != nil {
		return engine.BodyInfo{}, err
	}
	return engine.BodyInfo{BaseName: b.base.name, BodyName: b.name}, nil
}

func (e *Engine) BasePose(id engine.BodyID) (spatial.Pose, error) {
	b, err := e.body(id)
	if err != nil {
		return spatial.Pose{}, err
	}
	return b.basePose, nil
}

func (e *Engine) ResetBasePose(id engine.BodyID, pose spatial.Pose) error {
	b, err := e.body(id)
	if err != nil {
		return err
	}
	o, err := pose.Orientation.Normalize()
	if err != nil {
		return err
	}
	b.basePose = spatial.Pose{Position: pose.Position, Orientation: o}
	return nil
}

func (e *Engine) BaseVelocity(id engine.BodyID) (spatial.Vec3, spatial.Vec3, error) {
	b, err := e.body(id)
	if err != nil {
		return spatial.Vec3{}, spatial.Vec3{}, err
	}
	return b.linVel, b.angVel, nil
}

func (e *Engine) ResetBaseVelocity(id engine.BodyID, linear, angular *spatial.Vec3) error {
	b, err := e.body(id)
	if err != nil {
		return err
	}
	if linear != nil {
		b.linVel = *linear
	}
	if angular != nil {
		b.angVel = *angular
	}
	return nil
}

func (e *Engine) NumJoints(id engine.BodyID) (int, error) {
	b, err := e.body(id)
	if err != nil {
		return 0, err
	}
	return len(b.links), nil
}

func (e *Engine) JointInfo(id engine.BodyID, joint int) (engine.JointInfo, error) {
	_, l, err := e.joint(id, joint)
	if err != nil {
		return engine.JointInfo{}, err
	}
	return engine.JointInfo{
		Index:       joint,
		Name:        l.joint,
		Type:        l.jointType,
		Damping:     l.damping,
		Friction:    l.friction,
		LowerLimit:  l.lower,
		UpperLimit:  l.upper,
		MaxForce:    l.maxForce,
		MaxVelocity: l.maxVelocity,
		LinkName:    l.name,
		Axis:        l.axis,
		ParentFrame: l.origin,
		ParentIndex: l.parent,
	}, nil
}

func (e *Engine) JointState(id engine.BodyID, joint int) (engine.JointState, error) {
	b, _, err := e.joint(id, joint)
	if err != nil {
		return engine.JointState{}, err
	}
	s := engine.JointState{Position: b.q[joint], Velocity: b.qd[joint], MotorTorque: b.torque[joint]}
	if b.sensors[joint] {
		s.ReactionForce = b.reaction[joint]
	}
	return s, nil
}

func (e *Engine) ResetJointState(id engine.BodyID, joint int, position, velocity float64) error {
	b, l, err := e.joint(id, joint)
	if err != nil {
		return err
	}
	if !l.jointType.Movable() {
		return nil
	}
	b.q[joint], b.qd[joint] = position, velocity
	return nil
}

func (e *Engine) EnableJointSensor(id engine.BodyID, joint int, enable bool) error {
	b, _, err := e.joint(id, joint)
	if err != nil {
		return err
	}
	b.sensors[joint] = enable
	if !enable {
		b.reaction[joint] = [6]float64{}
	}
	return nil
}

func (e *Engine) SetMotor(id engine.BodyID, joint int, cmd engine.MotorCommand) error {
	b, _, err := e.joint(id, joint)
	if err != nil {
		return err
	}
	b.motors[joint] = motor{cmd: cmd}
	return nil
}

func (e *Engine) LinkState(id engine.BodyID, idx engine.LinkIndex) (engine.LinkState, error) {
	b, l, err := e.link(id, idx)
	if err != nil {
		return engine.LinkState{}, err
	}
	frame := b.linkFrame(b.frames(b.q), idx)
	return engine.LinkState{
		WorldCOM:      frame.Multiply(l.inertial),
		LocalInertial: l.inertial,
		LinkFrame:     frame,
	}, nil
}

func (e *Engine) DynamicsInfo(id engine.BodyID, idx engine.LinkIndex) (engine.DynamicsInfo, error) {
	_, l, err := e.link(id, idx)
	if err != nil {
		return engine.DynamicsInfo{}, err
	}
	return engine.DynamicsInfo{
		Mass:              l.mass,
		LateralFriction:   l.dyn.lateralFriction,
		RollingFriction:   l.dyn.rollingFriction,
		SpinningFriction:  l.dyn.spinningFriction,
		Restitution:       l.dyn.restitution,
		ContactDamping:    l.dyn.contactDamping,
		ContactStiffness:  l.dyn.contactStiffness,
		LocalInertialDiag: l.inertiaDiag,
	}, nil
}

func (e *Engine) ChangeDynamics(id engine.BodyID, idx engine.LinkIndex, upd engine.DynamicsUpdate) error {
	_, l, err := e.link(id, idx)
	if err != nil {
		return err
	}
	if upd.Mass != nil {
		if l.mass > 0 {
			l.inertiaDiag = l.inertiaDiag.Scale(*upd.Mass / l.mass)
		}
		l.mass = *upd.Mass
	}
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&l.dyn.lateralFriction, upd.LateralFriction)
	set(&l.dyn.rollingFriction, upd.RollingFriction)
	set(&l.dyn.spinningFriction, upd.SpinningFriction)
	set(&l.dyn.contactDamping, upd.ContactDamping)
	set(&l.dyn.contactStiffness, upd.ContactStiffness)
	return nil
}

func (e *Engine) ChangeVisualColor(id engine.BodyID, idx engine.LinkIndex, rgba, _ *[4]float64) error {
	_, l, err := e.link(id, idx)
	if err != nil {
		return err
	}
	if rgba != nil {
		for i := range l.visuals {
			l.visuals[i].rgba = *rgba
		}
	}
	return nil
}

func (e *Engine) VisualShapes(id engine.BodyID) ([]engine.VisualShape, error) {
	b, err := e.body(id)
	if err != nil {
		return nil, err
	}
	var out []engine.VisualShape
	emit := func(idx engine.LinkIndex, l *link) {
		for _, g := range l.visuals {
			out = append(out, engine.VisualShape{
				Body:       id,
				Link:       idx,
				Geometry:   g.kind,
				Dimensions: g.dims,
				MeshFile:   g.mesh,
				LocalPose:  g.local,
				RGBA:       g.rgba,
			})
		}
	}
	emit(engine.BaseLink, &b.base)
	for i := range b.links {
		emit(engine.LinkIndex(i), &b.links[i])
	}
	return out, nil
}

func (e *Engine) ApplyExternalForce(ref engine.EntityRef, f, position spatial.Vec3) error {
	b, _, err := e.link(ref.Body, ref.Link)
	if err != nil {
		return err
	}
	b.external = append(b.external, force{link: ref.Link, force: f, position: position})
	return nil
}

func (e *Engine) ApplyExternalTorque(ref engine.EntityRef, torque spatial.Vec3) error {
	b, _, err := e.link(ref.Body, ref.Link)
	if err != nil {
		return err
	}
	b.external = append(b.external, force{link: ref.Link, torque: torque})
	return nil
}

func (e *Engine) checkRef(ref engine.EntityRef) error {
	if ref.IsWorld() {
		return nil
	}
	_, _, err := e.link(ref.Body, ref.Link)
	return err
}

func (e *Engine) CreateConstraint(spec engine.ConstraintSpec) (engine.ConstraintID, error) {
	if err := e.check(); err != nil {
		return 0, err
	}
	if err := e.checkRef(spec.Parent); err != nil {
		return 0, err
	}
	if spec.Parent.IsWorld() && spec.Child.IsWorld() {
		return 0, fmt.Errorf("%w: constraint needs at least one body", engine.ErrUnknownBody)
	}
	if err := e.checkRef(spec.Child); err != nil {
		return 0, err
	}
	switch spec.Type {
	case engine.JointFixed, engine.JointRevolute, engine.JointPrismatic, engine.JointPoint2Point, engine.JointGear:
	default:
		return 0, fmt.Errorf("%w: constraint type %v", engine.ErrUnsupportedFormat, spec.Type)
	}
	if spec.ParentFrame == (spatial.Pose{}) {
		spec.ParentFrame = spatial.IdentityPose()
	}
	if spec.ChildFrame == (spatial.Pose{}) {
		spec.ChildFrame = spatial.IdentityPose()
	}
	id := e.nextConstraint
	e.nextConstraint++
	e.constraints[id] = engine.ConstraintInfo{Spec: spec, ChildFrame: spec.ChildFrame, MaxForce: DefaultMotorForce}
	return id, nil
}

func (e *Engine) constraint(id engine.ConstraintID) (engine.ConstraintInfo, error) {
	if err := e.check(); err != nil {
		return engine.ConstraintInfo{}, err
	}
	c, ok := e.constraints[id]
	if !ok {
		return engine.ConstraintInfo{}, fmt.Errorf("%w: %d", engine.ErrUnknownConstraint, id)
	}
	return c, nil
}

func (e *Engine) ChangeConstraint(id engine.ConstraintID, upd engine.ConstraintUpdate) error {
	c, err := e.constraint(id)
	if err != nil {
		return err
	}
	if upd.ChildFrame != nil {
		c.ChildFrame = *upd.ChildFrame
	}
	if upd.MaxForce != nil {
		c.MaxForce = *upd.MaxForce
	}
	e.constraints[id] = c
	return nil
}

func (e *Engine) RemoveConstraint(id engine.ConstraintID) error {
	if _, err := e.constraint(id); err != nil {
		return err
	}
	delete(e.constraints, id)
	return nil
}

func (e *Engine) ConstraintInfo(id engine.ConstraintID) (engine.ConstraintInfo, error) {
	return e.constraint(id)
}

func (e *Engine) Constraints() []engine.ConstraintID {
	ids := make([]engine.ConstraintID, 0, len(e.constraints))
	for id := range e.constraints {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (e *Engine) InverseKinematics(req engine.IKRequest) ([]float64, error) {
	b, err := e.body(req.Body)
	if err != nil {
		return nil, err
	}
	if req.Link < 0 || int(req.Link) >= len(b.links) {
		return nil, fmt.Errorf("%w: body %d link %d", engine.ErrUnknownLink, req.Body, req.Link)
	}
	n := len(b.links)
	for _, s := range [][]float64{req.LowerLimits, req.UpperLimits, req.Ranges, req.Damping, req.RestPoses} {
		if s != nil && len(s) != n {
			return nil, fmt.Errorf("%w: IK option has %d entries, body has %d joints", engine.ErrDimensionMismatch, len(s), n)
		}
	}
	return b.inverseKinematics(req), nil
}

func (e *Engine) checkDims(b *body, vs ...[]float64) error {
	for _, v := range vs {
		if len(v) != len(b.links) {
			return fmt.Errorf("%w: got %d values, body %d has %d joints", engine.ErrDimensionMismatch, len(v), b.id, len(b.links))
		}
	}
	return nil
}

func (e *Engine) InverseDynamics(id engine.BodyID, q, qd, qdd []float64) ([]float64, error) {
	b, err := e.body(id)
	if err != nil {
		return nil, err
	}
	if err := e.checkDims(b, q, qd, qdd); err != nil {
		return nil, err
	}
	tau, _ := b.rnea(q, qd, qdd, e.gravity)
	return tau, nil
}

func (e *Engine) MassMatrix(id engine.BodyID, q []float64) (spatial.Matrix, error) {
	b, err := e.body(id)
	if err != nil {
		return nil, err
	}
	if err := e.checkDims(b, q); err != nil {
		return nil, err
	}
	return b.massMatrix(q), nil
}

// Jacobian ignores qd and qdd beyond their length check; the geometric
// Jacobian depends on q alone.
func (e *Engine) Jacobian(id engine.BodyID, idx engine.LinkIndex, local spatial.Vec3, q, qd, qdd []float64) (spatial.Matrix, spatial.Matrix, error) {
	b, _, err := e.link(id, idx)
	if err != nil {
		return nil, nil, err
	}
	if err := e.checkDims(b, q, qd, qdd); err != nil {
		return nil, nil, err
	}
	lin, ang := b.jacobian(q, idx, local)
	return lin, ang, nil
}

func (e *Engine) ContactPoints(q engine.ContactQuery) ([]engine.ContactPoint, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	var out []engine.ContactPoint
	for _, c := range e.contacts {
		if m, ok := orient(c, q.A); ok {
			if q.B == nil || matches(m.B, *q.B) {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func (e *Engine) SaveState() (engine.StateID, error) {
	if err := e.check(); err != nil {
		return 0, err
	}
	s := snapshot{
		bodies:      make(map[engine.BodyID]*body, len(e.bodies)),
		constraints: make(map[engine.ConstraintID]engine.ConstraintInfo, len(e.constraints)),
		contacts:    append([]engine.ContactPoint(nil), e.contacts...),
	}
	for id, b := range e.bodies {
		s.bodies[id] = b.clone()
	}
	for id, c := range e.constraints {
		s.constraints[id] = c
	}
	id := e.nextState
	e.nextState++
	e.states[id] = s
	return id, nil
}

func (e *Engine) RestoreState(id engine.StateID) error {
	if err := e.check(); err != nil {
		return err
	}
	s, ok := e.states[id]
	if !ok {
		return fmt.Errorf("%w: %d", engine.ErrUnknownState, id)
	}
	e.bodies = make(map[engine.BodyID]*body, len(s.bodies))
	for bid, b := range s.bodies {
		e.bodies[bid] = b.clone()
	}
	e.constraints = make(map[engine.ConstraintID]engine.ConstraintInfo, len(s.constraints))
	for cid, c := range s.constraints {
		e.constraints[cid] = c
	}
	e.contacts = append([]engine.ContactPoint(nil), s.contacts...)
	return nil
}

func (e *Engine) RemoveState(id engine.StateID) error {
	if err := e.check(); err != nil {
		return err
	}
	if _, ok := e.states[id]; !ok {
		return fmt.Errorf("%w: %d", engine.ErrUnknownState, id)
	}
	delete(e.states, id)
	return nil
}

func (e *Engine) ResetDebugCamera(cam engine.DebugCamera) error {
	if err := e.check(); err != nil {
		return err
	}
	e.camera = cam
	return nil
}

func (e *Engine) DebugCamera() (engine.DebugCamera, error) {
	if err := e.check(); err != nil {
		return engine.DebugCamera{}, err
	}
	return e.camera, nil
}
