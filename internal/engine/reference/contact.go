package reference

import (
	"math"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

// contactMargin keeps resting bodies, which sit exactly on the surface after
// being pushed out, in contact.
const contactMargin = 1e-3

type aabb struct {
	lo, hi spatial.Vec3
}

func (a aabb) center() spatial.Vec3 { return a.lo.Add(a.hi).Scale(0.5) }

func (a aabb) shift(d spatial.Vec3) aabb { return aabb{lo: a.lo.Add(d), hi: a.hi.Add(d)} }

func (a aabb) union(o aabb) aabb { return aabb{lo: a.lo.Min(o.lo), hi: a.hi.Max(o.hi)} }

// penetration returns the overlap depth along the axis of least overlap and
// the unit normal pushing a out of o. ok is false when the boxes are
// separated by more than the contact margin on any axis.
func (a aabb) penetration(o aabb) (depth float64, normal spatial.Vec3, ok bool) {
	over := [3]float64{
		math.Min(a.hi.X, o.hi.X) - math.Max(a.lo.X, o.lo.X),
		math.Min(a.hi.Y, o.hi.Y) - math.Max(a.lo.Y, o.lo.Y),
		math.Min(a.hi.Z, o.hi.Z) - math.Max(a.lo.Z, o.lo.Z),
	}
	axis := 0
	for i := 1; i < 3; i++ {
		if over[i] < over[axis] {
			axis = i
		}
	}
	for _, v := range over {
		if v < -contactMargin {
			return 0, spatial.Vec3{}, false
		}
	}
	ca, co := a.center().Slice(), o.center().Slice()
	dir := 1.0
	if ca[axis] < co[axis] {
		dir = -1
	}
	n := [3]float64{}
	n[axis] = dir
	return over[axis], spatial.Vec3{X: n[0], Y: n[1], Z: n[2]}, true
}

func bounds(boxes []linkBox) aabb {
	out := boxes[0].aabb
	for _, b := range boxes[1:] {
		out = out.union(b.aabb)
	}
	return out
}

type linkBox struct {
	aabb
	link engine.LinkIndex
}

// worldBox is the axis-aligned box enclosing g posed at frame.
func worldBox(frame spatial.Pose, g geom) aabb {
	pose := g.solidPose(frame)
	r := pose.Matrix3()
	h := g.halfExtents()
	ext := spatial.Vec3{
		X: math.Abs(r[0][0])*h.X + math.Abs(r[0][1])*h.Y + math.Abs(r[0][2])*h.Z,
		Y: math.Abs(r[1][0])*h.X + math.Abs(r[1][1])*h.Y + math.Abs(r[1][2])*h.Z,
		Z: math.Abs(r[2][0])*h.X + math.Abs(r[2][1])*h.Y + math.Abs(r[2][2])*h.Z,
	}
	return aabb{lo: pose.Position.Sub(ext), hi: pose.Position.Add(ext)}
}

func (b *body) collisionBoxes() []linkBox {
	var out []linkBox
	frames := b.frames(b.q)
	add := func(idx engine.LinkIndex, l *link) {
		frame := b.linkFrame(frames, idx)
		for _, g := range l.collisions {
			if g.halfExtents() == (spatial.Vec3{}) {
				continue
			}
			out = append(out, linkBox{aabb: worldBox(frame, g), link: idx})
		}
	}
	add(engine.BaseLink, &b.base)
	for i := range b.links {
		add(engine.LinkIndex(i), &b.links[i])
	}
	return out
}

func stiffness(l *link) float64 {
	if l.dyn.contactStiffness > 0 {
		return l.dyn.contactStiffness
	}
	return DefaultContactStiffness
}

// detectContacts pairs every link box against boxes of other bodies. Pairs
// of static bodies never touch.
func (e *Engine) detectContacts() []engine.ContactPoint {
	type entry struct {
		b     *body
		boxes []linkBox
	}
	var all []entry
	for _, id := range e.Bodies() {
		b := e.bodies[id]
		if boxes := b.collisionBoxes(); len(boxes) > 0 {
			all = append(all, entry{b: b, boxes: boxes})
		}
	}
	g := e.gravity.Norm()
	var out []engine.ContactPoint
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			a, o := all[i], all[j]
			if a.b.static && o.b.static {
				continue
			}
			for _, ba := range a.boxes {
				for _, bo := range o.boxes {
					depth, n, ok := ba.penetration(bo.aabb)
					if !ok {
						continue
					}
					la, _ := a.b.link(ba.link)
					lo, _ := o.b.link(bo.link)
					k := math.Min(stiffness(la), stiffness(lo))
					force := k * math.Max(depth, 0)
					if !a.b.static && n.Z > 0.7 {
						force += a.b.totalMass() * g
					}
					if !o.b.static && n.Z < -0.7 {
						force += o.b.totalMass() * g
					}
					mid := overlapCenter(ba.aabb, bo.aabb)
					out = append(out, engine.ContactPoint{
						A:           engine.LinkRef(a.b.id, ba.link),
						B:           engine.LinkRef(o.b.id, bo.link),
						PositionOnA: mid.Sub(n.Scale(depth / 2)),
						PositionOnB: mid.Add(n.Scale(depth / 2)),
						NormalOnB:   n,
						Distance:    -depth,
						NormalForce: force,
					})
				}
			}
		}
	}
	return out
}

func overlapCenter(a, b aabb) spatial.Vec3 {
	lo, hi := a.lo.Max(b.lo), a.hi.Min(b.hi)
	return lo.Add(hi).Scale(0.5)
}

// matches reports whether ref selects the entity; a base reference selects
// the whole body.
func matches(entity, ref engine.EntityRef) bool {
	if entity.Body != ref.Body {
		return false
	}
	return ref.IsBase() || entity.Link == ref.Link
}

// orient returns c with a on the A side, swapping sides if needed.
func orient(c engine.ContactPoint, a engine.EntityRef) (engine.ContactPoint, bool) {
	if matches(c.A, a) {
		return c, true
	}
	if matches(c.B, a) {
		return engine.ContactPoint{
			A:           c.B,
			B:           c.A,
			PositionOnA: c.PositionOnB,
			PositionOnB: c.PositionOnA,
			NormalOnB:   c.NormalOnB.Neg(),
			Distance:    c.Distance,
			NormalForce: c.NormalForce,
		}, true
	}
	return c, false
}
