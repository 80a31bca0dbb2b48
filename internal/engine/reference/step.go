package reference

import (
	"math"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/integrators"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

const (
	DefaultPositionGain = 0.1
	DefaultVelocityGain = 1.0
)

// StepSimulation advances every body by one time step: joint motors and
// joint dynamics, free bases, constraints, then contact generation. External
// forces apply to this step only.
func (e *Engine) StepSimulation() error {
	if err := e.check(); err != nil {
		return err
	}
	ids := e.Bodies()
	for _, id := range ids {
		e.stepJoints(e.bodies[id])
	}
	for _, id := range ids {
		e.stepBase(e.bodies[id])
	}
	e.enforceConstraints()
	e.contacts = e.detectContacts()
	for _, id := range ids {
		e.bodies[id].external = nil
	}
	return nil
}

func (e *Engine) motorLimits(l *link, cmd engine.MotorCommand) (maxForce, maxVel float64) {
	maxForce = DefaultMotorForce
	if l.maxForce > 0 {
		maxForce = l.maxForce
	}
	if cmd.Force != nil {
		maxForce = *cmd.Force
	}
	maxVel = math.Inf(1)
	if l.maxVelocity > 0 {
		maxVel = l.maxVelocity
	}
	if cmd.MaxVelocity != nil {
		maxVel = *cmd.MaxVelocity
	}
	return maxForce, maxVel
}

// motorVelocity is the velocity a position or velocity motor drives its
// joint towards during the next step.
func (e *Engine) motorVelocity(b *body, i int, cmd engine.MotorCommand, maxVel float64) float64 {
	v := cmd.TargetVelocity
	if cmd.Mode == engine.ControlPosition {
		pg, vg := DefaultPositionGain, DefaultVelocityGain
		if cmd.PositionGain != nil {
			pg = *cmd.PositionGain
		}
		if cmd.VelocityGain != nil {
			vg = *cmd.VelocityGain
		}
		v = pg*(cmd.TargetPosition-b.q[i])/e.dt + vg*cmd.TargetVelocity
	}
	return clamp(v, -maxVel, maxVel)
}

func (e *Engine) stepJoints(b *body) {
	n := len(b.links)
	if n == 0 {
		return
	}
	sys := &jointSystem{
		b:          b,
		gravity:    e.gravity,
		tau:        e.externalJointTorques(b),
		prescribed: make([]bool, n),
		accel:      make([]float64, n),
	}
	applied := make([]float64, n)
	maxForce := make([]float64, n)
	for i := range b.links {
		l := &b.links[i]
		if !l.jointType.Movable() {
			continue
		}
		cmd := b.motors[i].cmd
		if cmd.Mode == engine.ControlTorque {
			if cmd.Force != nil {
				sys.tau[i] += *cmd.Force
				applied[i] = *cmd.Force
			}
			continue
		}
		f, vmax := e.motorLimits(l, cmd)
		if f <= 0 {
			continue
		}
		maxForce[i] = f
		sys.prescribed[i] = true
		sys.accel[i] = (e.motorVelocity(b, i, cmd, vmax) - b.qd[i]) / e.dt
	}

	// Motors that would need more than their force budget saturate and
	// become torque sources.
	qdd := sys.forward(b.q, b.qd)
	required, _ := b.rnea(b.q, b.qd, qdd, e.gravity)
	for i := range b.links {
		if !sys.prescribed[i] {
			continue
		}
		need := required[i] + b.links[i].damping*b.qd[i] - sys.tau[i]
		if math.Abs(need) > maxForce[i] {
			sys.prescribed[i] = false
			sat := math.Copysign(maxForce[i], need)
			sys.tau[i] += sat
			applied[i] = sat
			continue
		}
		applied[i] = need
	}

	if anySensor(b) {
		qdd = sys.forward(b.q, b.qd)
		_, w := b.rnea(b.q, b.qd, qdd, e.gravity)
		frames := b.frames(b.q)
		for i := range b.links {
			if !b.sensors[i] {
				continue
			}
			inv := frames[i].Orientation.Conjugate()
			f, m := inv.Rotate(w[i].force), inv.Rotate(w[i].moment)
			b.reaction[i] = [6]float64{f.X, f.Y, f.Z, m.X, m.Y, m.Z}
		}
	}

	x := make(integrators.State, 2*n)
	copy(x[:n], b.q)
	copy(x[n:], b.qd)
	x = e.rk4.Step(sys, x, nil, 0, e.dt)
	for i := range b.links {
		l := &b.links[i]
		if !l.jointType.Movable() {
			b.q[i], b.qd[i] = 0, 0
			continue
		}
		b.q[i], b.qd[i] = x[i], x[n+i]
		if l.hasLimits() {
			if b.q[i] < l.lower {
				b.q[i] = l.lower
				b.qd[i] = math.Max(b.qd[i], 0)
			} else if b.q[i] > l.upper {
				b.q[i] = l.upper
				b.qd[i] = math.Min(b.qd[i], 0)
			}
		}
	}
	copy(b.torque, applied)
}

func anySensor(b *body) bool {
	for _, s := range b.sensors {
		if s {
			return true
		}
	}
	return false
}

// externalJointTorques maps this step's external link loads through the
// link Jacobians.
func (e *Engine) externalJointTorques(b *body) []float64 {
	tau := make([]float64, len(b.links))
	if len(b.external) == 0 {
		return tau
	}
	frames := b.frames(b.q)
	for _, f := range b.external {
		if f.link == engine.BaseLink {
			continue
		}
		local := frames[f.link].Inverse().TransformPoint(f.position)
		if f.force == (spatial.Vec3{}) {
			local = spatial.Vec3{}
		}
		lin, ang := b.jacobian(b.q, f.link, local)
		for j := range tau {
			tau[j] += lin[0][j]*f.force.X + lin[1][j]*f.force.Y + lin[2][j]*f.force.Z
			tau[j] += ang[0][j]*f.torque.X + ang[1][j]*f.torque.Y + ang[2][j]*f.torque.Z
		}
	}
	return tau
}

// stepBase integrates a free base as one rigid body and pushes it out of
// static geometry.
func (e *Engine) stepBase(b *body) {
	if b.static {
		return
	}
	m := b.totalMass()
	if m <= 0 {
		return
	}
	f := e.gravity.Scale(m)
	var torque spatial.Vec3
	for _, x := range b.external {
		if x.link != engine.BaseLink {
			continue
		}
		f = f.Add(x.force)
		torque = torque.Add(x.torque)
		if x.force != (spatial.Vec3{}) {
			torque = torque.Add(x.position.Sub(b.basePose.Position).Cross(x.force))
		}
	}
	b.linVel = b.linVel.Add(f.Scale(e.dt / m))
	if torque != (spatial.Vec3{}) {
		rot := b.basePose.Orientation.Mul(b.base.inertial.Orientation)
		local := rot.Conjugate().Rotate(torque)
		d := b.base.inertiaDiag
		local = spatial.Vec3{X: safeDiv(local.X, d.X), Y: safeDiv(local.Y, d.Y), Z: safeDiv(local.Z, d.Z)}
		b.angVel = b.angVel.Add(rot.Rotate(local).Scale(e.dt))
	}

	b.basePose.Position = b.basePose.Position.Add(b.linVel.Scale(e.dt))
	if w := b.angVel.Norm(); w > 0 {
		dq := spatial.QuaternionFromAxisAngle(b.angVel.Scale(1/w), w*e.dt)
		if o, err := dq.Mul(b.basePose.Orientation).Normalize(); err == nil {
			b.basePose.Orientation = o
		}
	}
	e.resolveStatic(b)
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func (e *Engine) resolveStatic(b *body) {
	boxes := b.collisionBoxes()
	if len(boxes) == 0 {
		return
	}
	self := bounds(boxes)
	for _, id := range e.Bodies() {
		other := e.bodies[id]
		if other == b || !other.static {
			continue
		}
		for _, s := range other.collisionBoxes() {
			depth, n, ok := self.penetration(s.aabb)
			if !ok || depth <= 0 {
				continue
			}
			b.basePose.Position = b.basePose.Position.Add(n.Scale(depth))
			self = self.shift(n.Scale(depth))
			vn := b.linVel.Dot(n)
			if vn < 0 {
				b.linVel = b.linVel.Sub(n.Scale(vn))
			}
			vt := b.linVel.Sub(n.Scale(b.linVel.Dot(n)))
			mu := math.Max(b.base.dyn.lateralFriction, 0)
			if s := vt.Norm(); s > 0 {
				drop := mu * e.gravity.Norm() * e.dt
				b.linVel = b.linVel.Sub(vt.Scale(math.Min(1, drop/s)))
			}
			b.angVel = b.angVel.Scale(0.5)
		}
	}
}

// enforceConstraints holds parent·ParentFrame equal to child·ChildFrame by
// moving the base of the constrained body: the child, or the parent when the
// child is the world. Only fixed and point2point constraints on a base move
// anything; records naming removed bodies are skipped.
func (e *Engine) enforceConstraints() {
	for _, id := range e.Constraints() {
		c := e.constraints[id]
		if c.MaxForce <= 0 {
			continue
		}
		if c.Spec.Type != engine.JointFixed && c.Spec.Type != engine.JointPoint2Point {
			continue
		}
		moved, anchor := c.Spec.Child, c.Spec.Parent
		target := func(anchorFrame spatial.Pose) spatial.Pose {
			return anchorFrame.Multiply(c.Spec.ParentFrame).Multiply(c.ChildFrame.Inverse())
		}
		if c.Spec.Child.IsWorld() {
			moved, anchor = c.Spec.Parent, c.Spec.Child
			target = func(anchorFrame spatial.Pose) spatial.Pose {
				return anchorFrame.Multiply(c.ChildFrame).Multiply(c.Spec.ParentFrame.Inverse())
			}
		}
		if !moved.IsBase() {
			continue
		}
		b, ok := e.bodies[moved.Body]
		if !ok || b.static {
			continue
		}
		frame := spatial.IdentityPose()
		if !anchor.IsWorld() {
			ab, ok := e.bodies[anchor.Body]
			if !ok || int(anchor.Link) >= len(ab.links) {
				continue
			}
			frame = ab.linkFrame(ab.frames(ab.q), anchor.Link)
		}
		pose := target(frame)
		if c.Spec.Type == engine.JointFixed {
			b.basePose = pose
			b.angVel = spatial.Vec3{}
		} else {
			b.basePose.Position = pose.Position
		}
		b.linVel = spatial.Vec3{}
	}
}
