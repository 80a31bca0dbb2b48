package reference

import (
	"math"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

// jointMotion is the transform a joint applies at position q, expressed in
// the joint frame.
func jointMotion(l *link, q float64) spatial.Pose {
	switch l.jointType {
	case engine.JointRevolute:
		return spatial.Pose{Orientation: spatial.QuaternionFromAxisAngle(l.axis, q)}
	case engine.JointPrismatic:
		return spatial.Pose{Position: l.axis.Scale(q), Orientation: spatial.IdentityQuaternion()}
	}
	return spatial.IdentityPose()
}

// frames returns the world pose of every link frame for configuration q.
// Parents always precede their children in link order.
func (b *body) frames(q []float64) []spatial.Pose {
	out := make([]spatial.Pose, len(b.links))
	for i := range b.links {
		l := &b.links[i]
		parent := b.basePose
		if l.parent != engine.BaseLink {
			parent = out[l.parent]
		}
		out[i] = parent.Multiply(l.origin).Multiply(jointMotion(l, q[i]))
	}
	return out
}

func (b *body) linkFrame(frames []spatial.Pose, idx engine.LinkIndex) spatial.Pose {
	if idx == engine.BaseLink {
		return b.basePose
	}
	return frames[idx]
}

// ancestors reports which joints move link idx.
func (b *body) ancestors(idx engine.LinkIndex) []bool {
	out := make([]bool, len(b.links))
	for i := idx; i != engine.BaseLink; i = b.links[i].parent {
		out[i] = true
	}
	return out
}

// jacobian is the geometric Jacobian of a point given in link idx's frame,
// one column per joint.
func (b *body) jacobian(q []float64, idx engine.LinkIndex, local spatial.Vec3) (lin, ang spatial.Matrix) {
	n := len(b.links)
	lin, ang = spatial.NewMatrix(3, n), spatial.NewMatrix(3, n)
	if idx == engine.BaseLink {
		return lin, ang
	}
	frames := b.frames(q)
	point := frames[idx].TransformPoint(local)
	moves := b.ancestors(idx)
	for j := 0; j < n; j++ {
		if !moves[j] {
			continue
		}
		l := &b.links[j]
		axis := frames[j].Orientation.Rotate(l.axis)
		var jl, ja spatial.Vec3
		switch l.jointType {
		case engine.JointRevolute:
			jl = axis.Cross(point.Sub(frames[j].Position))
			ja = axis
		case engine.JointPrismatic:
			jl = axis
		default:
			continue
		}
		lin[0][j], lin[1][j], lin[2][j] = jl.X, jl.Y, jl.Z
		ang[0][j], ang[1][j], ang[2][j] = ja.X, ja.Y, ja.Z
	}
	return lin, ang
}

const (
	ikLambda        = 0.05
	ikMaxIterations = 100
	ikThreshold     = 1e-4
	ikMaxStep       = 0.2
)

// inverseKinematics runs damped least squares from the rest poses (or the
// current configuration) and clamps every iterate to the joint limits.
func (b *body) inverseKinematics(req engine.IKRequest) []float64 {
	n := len(b.links)
	q := append([]float64(nil), b.q...)
	if len(req.RestPoses) == n {
		copy(q, req.RestPoses)
	}
	lower, upper := b.limits(req)
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1
		if len(req.Damping) == n && req.Damping[i] > 0 {
			weights[i] = 1 / req.Damping[i]
		}
	}
	iters := req.MaxIterations
	if iters <= 0 {
		iters = ikMaxIterations
	}
	threshold := req.Threshold
	if threshold <= 0 {
		threshold = ikThreshold
	}

	for it := 0; it < iters; it++ {
		frame := b.frames(q)[req.Link]
		e := req.Target.Position.Sub(frame.Position).Slice()
		lin, ang := b.jacobian(q, req.Link, spatial.Vec3{})
		j := lin
		if req.TargetOrientation {
			e = append(e, orientationError(req.Target.Orientation, frame.Orientation).Slice()...)
			j, _ = spatial.VStack(lin, ang)
		}
		if norm(e) < threshold {
			break
		}
		dq, ok := dlsStep(j, e, weights)
		if !ok {
			break
		}
		if s := maxAbs(dq); s > ikMaxStep {
			for i := range dq {
				dq[i] *= ikMaxStep / s
			}
		}
		for i := range q {
			if !b.links[i].jointType.Movable() {
				q[i] = 0
				continue
			}
			q[i] += dq[i]
			if lower[i] <= upper[i] {
				q[i] = clamp(q[i], lower[i], upper[i])
			}
		}
	}
	for i := range q {
		if !b.links[i].jointType.Movable() {
			q[i] = 0
		}
	}
	return q
}

// limits prefers the request's limits and falls back to the joint's own.
// Unlimited joints get lower > upper.
func (b *body) limits(req engine.IKRequest) (lower, upper []float64) {
	n := len(b.links)
	lower, upper = make([]float64, n), make([]float64, n)
	custom := len(req.LowerLimits) == n && len(req.UpperLimits) == n
	for i := range b.links {
		switch {
		case custom:
			lower[i], upper[i] = req.LowerLimits[i], req.UpperLimits[i]
		case b.links[i].hasLimits():
			lower[i], upper[i] = b.links[i].lower, b.links[i].upper
		default:
			lower[i], upper[i] = 0, -1
		}
	}
	return lower, upper
}

// dlsStep solves dq = W Jᵀ (J W Jᵀ + λ²I)⁻¹ e. The bracket is symmetric
// positive definite for λ > 0, so it goes through Cholesky.
func dlsStep(j spatial.Matrix, e []float64, w []float64) ([]float64, bool) {
	rows, cols := j.Rows(), j.Cols()
	jw := spatial.NewMatrix(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			jw[r][c] = j[r][c] * w[c]
		}
	}
	a, err := jw.Mul(j.Transpose())
	if err != nil {
		return nil, false
	}
	for i := 0; i < rows; i++ {
		a[i][i] += ikLambda * ikLambda
	}
	y, err := a.SolveSymmetric(e)
	if err != nil {
		return nil, false
	}
	dq, err := jw.Transpose().MulVec(y)
	if err != nil {
		return nil, false
	}
	return dq, true
}

// orientationError is the rotation vector taking current onto target.
func orientationError(target, current spatial.Quaternion) spatial.Vec3 {
	d := target.Mul(current.Conjugate())
	if d.W < 0 {
		d = spatial.Quaternion{X: -d.X, Y: -d.Y, Z: -d.Z, W: -d.W}
	}
	v := spatial.Vec3{X: d.X, Y: d.Y, Z: d.Z}
	s := v.Norm()
	if s < 1e-12 {
		return v.Scale(2)
	}
	return v.Scale(2 * math.Atan2(s, d.W) / s)
}

func norm(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

func maxAbs(v []float64) float64 {
	var m float64
	for _, x := range v {
		m = math.Max(m, math.Abs(x))
	}
	return m
}
