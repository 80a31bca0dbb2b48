package reference

import (
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/integrators"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

// wrench is the force and moment (about the link frame origin) the parent
// exerts on a link, in world coordinates.
type wrench struct {
	force, moment spatial.Vec3
}

// rnea runs recursive Newton-Euler over the tree with the base held still
// and returns the joint torques and the per-link wrenches. Gravity enters as
// an upward base acceleration.
func (b *body) rnea(q, qd, qdd []float64, gravity spatial.Vec3) ([]float64, []wrench) {
	n := len(b.links)
	frames := b.frames(q)
	omega := make([]spatial.Vec3, n)
	alpha := make([]spatial.Vec3, n)
	acc := make([]spatial.Vec3, n)
	forces := make([]spatial.Vec3, n)
	moments := make([]spatial.Vec3, n)
	com := make([]spatial.Vec3, n)

	baseAcc := gravity.Neg()
	for i := 0; i < n; i++ {
		l := &b.links[i]
		var wp, ap, accp, op spatial.Vec3
		if l.parent == engine.BaseLink {
			accp, op = baseAcc, b.basePose.Position
		} else {
			wp, ap, accp, op = omega[l.parent], alpha[l.parent], acc[l.parent], frames[l.parent].Position
		}
		o := frames[i].Position
		r := o.Sub(op)
		axis := frames[i].Orientation.Rotate(l.axis)
		a := accp.Add(ap.Cross(r)).Add(wp.Cross(wp.Cross(r)))

		switch l.jointType {
		case engine.JointRevolute:
			omega[i] = wp.Add(axis.Scale(qd[i]))
			alpha[i] = ap.Add(axis.Scale(qdd[i])).Add(wp.Cross(axis.Scale(qd[i])))
		case engine.JointPrismatic:
			omega[i], alpha[i] = wp, ap
			a = a.Add(axis.Scale(qdd[i])).Add(wp.Cross(axis.Scale(2 * qd[i])))
		default:
			omega[i], alpha[i] = wp, ap
		}
		acc[i] = a

		rot := frames[i].Orientation.Mul(l.inertial.Orientation)
		c := frames[i].Orientation.Rotate(l.inertial.Position)
		com[i] = c
		ac := a.Add(alpha[i].Cross(c)).Add(omega[i].Cross(omega[i].Cross(c)))
		forces[i] = ac.Scale(l.mass)
		iw := inertiaMul(rot, l.inertiaDiag, omega[i])
		moments[i] = inertiaMul(rot, l.inertiaDiag, alpha[i]).Add(omega[i].Cross(iw))
	}

	wrenches := make([]wrench, n)
	for i := 0; i < n; i++ {
		wrenches[i] = wrench{force: forces[i], moment: moments[i].Add(com[i].Cross(forces[i]))}
	}
	for i := n - 1; i >= 0; i-- {
		p := b.links[i].parent
		if p == engine.BaseLink {
			continue
		}
		r := frames[i].Position.Sub(frames[p].Position)
		wrenches[p].force = wrenches[p].force.Add(wrenches[i].force)
		wrenches[p].moment = wrenches[p].moment.Add(wrenches[i].moment).Add(r.Cross(wrenches[i].force))
	}

	tau := make([]float64, n)
	for i := 0; i < n; i++ {
		axis := frames[i].Orientation.Rotate(b.links[i].axis)
		switch b.links[i].jointType {
		case engine.JointRevolute:
			tau[i] = axis.Dot(wrenches[i].moment)
		case engine.JointPrismatic:
			tau[i] = axis.Dot(wrenches[i].force)
		}
	}
	return tau, wrenches
}

// inertiaMul applies R·diag(d)·Rᵀ to v.
func inertiaMul(r spatial.Quaternion, d, v spatial.Vec3) spatial.Vec3 {
	local := r.Conjugate().Rotate(v)
	return r.Rotate(local.Mul(d))
}

// massMatrix builds M(q) one column at a time from unit accelerations.
func (b *body) massMatrix(q []float64) spatial.Matrix {
	n := len(b.links)
	m := spatial.NewMatrix(n, n)
	zero := make([]float64, n)
	for j := 0; j < n; j++ {
		if !b.links[j].jointType.Movable() {
			continue
		}
		unit := make([]float64, n)
		unit[j] = 1
		col, _ := b.rnea(q, zero, unit, spatial.Vec3{})
		for i := 0; i < n; i++ {
			m[i][j] = col[i]
		}
	}
	return m
}

// jointSystem is the joint-space forward dynamics of one body with the
// state laid out as [q, qd]. Joints in prescribed move with a fixed
// acceleration; the rest respond to tau.
type jointSystem struct {
	b          *body
	gravity    spatial.Vec3
	tau        []float64
	prescribed []bool
	accel      []float64
}

func (s *jointSystem) Derive(x integrators.State, _ integrators.Control, _ float64) integrators.State {
	n := len(s.b.links)
	q, qd := x[:n], x[n:]
	out := make(integrators.State, 2*n)
	copy(out[:n], qd)
	qdd := s.forward(q, qd)
	copy(out[n:], qdd)
	return out
}

// forward solves M_ff·qdd_f = tau_f - bias_f for the free joints.
func (s *jointSystem) forward(q, qd []float64) []float64 {
	n := len(s.b.links)
	qdd := make([]float64, n)
	var free []int
	for i := 0; i < n; i++ {
		switch {
		case !s.b.links[i].jointType.Movable():
		case s.prescribed[i]:
			qdd[i] = s.accel[i]
		default:
			free = append(free, i)
		}
	}
	if len(free) == 0 {
		return qdd
	}
	bias, _ := s.b.rnea(q, qd, qdd, s.gravity)
	m, err := s.b.massMatrix(q).Submatrix(free)
	if err != nil {
		return qdd
	}
	rhs := make([]float64, len(free))
	for k, i := range free {
		rhs[k] = s.tau[i] - bias[i] - s.b.links[i].damping*qd[i]
	}
	sol, err := m.Solve(rhs)
	if err != nil {
		return qdd
	}
	for k, i := range free {
		qdd[i] = sol[k]
	}
	return qdd
}
