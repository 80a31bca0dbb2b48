package reference

import (
	"math"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

// geom is one visual or collision geometry in its link frame. For meshes
// dims holds the half extents of the scaled vertex bounds and local is
// shifted to their centre.
type geom struct {
	kind  engine.GeometryType
	dims  spatial.Vec3
	mesh  string
	local spatial.Pose
	rgba  [4]float64
}

// halfExtents is the box enclosing the geometry in its own frame.
func (g geom) halfExtents() spatial.Vec3 {
	switch g.kind {
	case engine.GeomSphere:
		return spatial.Vec3{X: g.dims.X, Y: g.dims.X, Z: g.dims.X}
	case engine.GeomCylinder, engine.GeomCapsule:
		r, h := g.dims.X, g.dims.Z/2
		if g.kind == engine.GeomCapsule {
			h += r
		}
		return spatial.Vec3{X: r, Y: r, Z: h}
	case engine.GeomPlane:
		return spatial.Vec3{X: planeExtent, Y: planeExtent, Z: planeThickness}
	}
	return g.dims
}

// solidPose is the world pose of the centre of the geometry's enclosing box.
func (g geom) solidPose(frame spatial.Pose) spatial.Pose {
	pose := frame.Multiply(g.local)
	if g.kind == engine.GeomPlane {
		pose.Position = pose.Position.Sub(pose.Orientation.Rotate(spatial.Vec3{Z: planeThickness}))
	}
	return pose
}

// Planes are slabs whose top face is the plane; the half thickness keeps
// fast bodies from tunnelling through in one step.
const (
	planeExtent    = 1e3
	planeThickness = 0.5
)

type dynamics struct {
	lateralFriction  float64
	rollingFriction  float64
	spinningFriction float64
	restitution      float64
	contactDamping   float64
	contactStiffness float64
}

func defaultDynamics() dynamics {
	return dynamics{lateralFriction: 0.5, contactDamping: -1, contactStiffness: -1}
}

// link is one rigid link together with the joint connecting it to its
// parent. The base link uses only the rigid-body fields.
type link struct {
	name string

	joint       string
	jointType   engine.JointType
	parent      engine.LinkIndex
	origin      spatial.Pose
	axis        spatial.Vec3
	lower       float64
	upper       float64
	maxForce    float64
	maxVelocity float64
	damping     float64
	friction    float64

	mass        float64
	inertial    spatial.Pose
	inertiaDiag spatial.Vec3

	visuals    []geom
	collisions []geom
	dyn        dynamics
}

func (l *link) hasLimits() bool {
	return l.jointType.Movable() && l.upper >= l.lower && !(l.upper == 0 && l.lower == 0)
}

type motor struct {
	cmd engine.MotorCommand
}

type force struct {
	link     engine.LinkIndex
	force    spatial.Vec3
	position spatial.Vec3
	torque   spatial.Vec3
}

type body struct {
	id       engine.BodyID
	name     string
	static   bool
	base     link
	links    []link
	basePose spatial.Pose
	linVel   spatial.Vec3
	angVel   spatial.Vec3

	q, qd    []float64
	motors   []motor
	sensors  []bool
	reaction [][6]float64
	torque   []float64
	external []force
}

func newBody(id engine.BodyID, name string, base link, links []link) *body {
	n := len(links)
	b := &body{
		id:       id,
		name:     name,
		base:     base,
		links:    links,
		basePose: spatial.IdentityPose(),
		q:        make([]float64, n),
		qd:       make([]float64, n),
		motors:   make([]motor, n),
		sensors:  make([]bool, n),
		reaction: make([][6]float64, n),
		torque:   make([]float64, n),
	}
	for i := range b.motors {
		b.motors[i] = motor{cmd: engine.MotorCommand{Mode: engine.ControlVelocity}}
	}
	return b
}

func (b *body) clone() *body {
	c := *b
	c.links = append([]link(nil), b.links...)
	for i := range c.links {
		c.links[i].visuals = append([]geom(nil), b.links[i].visuals...)
		c.links[i].collisions = append([]geom(nil), b.links[i].collisions...)
	}
	c.base.visuals = append([]geom(nil), b.base.visuals...)
	c.base.collisions = append([]geom(nil), b.base.collisions...)
	c.q = append([]float64(nil), b.q...)
	c.qd = append([]float64(nil), b.qd...)
	c.motors = append([]motor(nil), b.motors...)
	c.sensors = append([]bool(nil), b.sensors...)
	c.reaction = append([][6]float64(nil), b.reaction...)
	c.torque = append([]float64(nil), b.torque...)
	c.external = append([]force(nil), b.external...)
	return &c
}

func (b *body) link(idx engine.LinkIndex) (*link, bool) {
	if idx == engine.BaseLink {
		return &b.base, true
	}
	if idx < 0 || int(idx) >= len(b.links) {
		return nil, false
	}
	return &b.links[idx], true
}

func (b *body) totalMass() float64 {
	m := b.base.mass
	for i := range b.links {
		m += b.links[i].mass
	}
	return m
}

// boxInertia is the principal inertia of a solid box with the given half
// extents.
func boxInertia(mass float64, half spatial.Vec3) spatial.Vec3 {
	x, y, z := 2*half.X, 2*half.Y, 2*half.Z
	return spatial.Vec3{
		X: mass / 12 * (y*y + z*z),
		Y: mass / 12 * (x*x + z*z),
		Z: mass / 12 * (x*x + y*y),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
