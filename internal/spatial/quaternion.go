package spatial

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// degenerateNorm is the smallest norm a quaternion may have and still be
// renormalized.
const degenerateNorm = 1e-9

// Quaternion is an orientation in scalar-last [x, y, z, w] order.
type Quaternion struct {
	X, Y, Z, W float64
}

// IdentityQuaternion is the zero rotation.
func IdentityQuaternion() Quaternion { return Quaternion{W: 1} }

// NewQuaternion builds a unit quaternion from raw components, renormalizing
// them. It fails when the components are degenerate.
func NewQuaternion(x, y, z, w float64) (Quaternion, error) {
	return Quaternion{x, y, z, w}.Normalize()
}

// QuaternionFromSlice reads [x, y, z, w] and renormalizes.
func QuaternionFromSlice(s []float64) (Quaternion, error) {
	if len(s) != 4 {
		return Quaternion{}, fmt.Errorf("%w: quaternion needs 4 values, got %d", ErrDimensionMismatch, len(s))
	}
	return NewQuaternion(s[0], s[1], s[2], s[3])
}

// QuaternionFromAxisAngle returns the rotation of angle radians about axis.
func QuaternionFromAxisAngle(axis Vec3, angle float64) Quaternion {
	return fromQuat(mgl64.QuatRotate(angle, axis.Normalize().vec()))
}

func (q Quaternion) quat() mgl64.Quat {
	return mgl64.Quat{W: q.W, V: mgl64.Vec3{q.X, q.Y, q.Z}}
}

func fromQuat(q mgl64.Quat) Quaternion {
	return Quaternion{X: q.V[0], Y: q.V[1], Z: q.V[2], W: q.W}
}

func (q Quaternion) Norm() float64 { return q.quat().Len() }

// Normalize returns q scaled to unit length.
func (q Quaternion) Normalize() (Quaternion, error) {
	n := q.Norm()
	if n < degenerateNorm || math.IsNaN(n) || math.IsInf(n, 0) {
		return Quaternion{}, fmt.Errorf("%w: norm %g", ErrDegenerateQuaternion, n)
	}
	return fromQuat(q.quat().Scale(1 / n)), nil
}

// IsUnit reports whether |q| is within tol of 1.
func (q Quaternion) IsUnit(tol float64) bool {
	return math.Abs(q.Norm()-1) <= tol
}

func (q Quaternion) Conjugate() Quaternion { return fromQuat(q.quat().Conjugate()) }

// Inverse of a unit quaternion is its conjugate; non-unit values are scaled.
// The zero quaternion has no inverse and maps to itself.
func (q Quaternion) Inverse() Quaternion {
	if q.quat().Dot(q.quat()) == 0 {
		return Quaternion{}
	}
	return fromQuat(q.quat().Inverse())
}

// Mul returns the Hamilton product q·o (apply o first, then q).
func (q Quaternion) Mul(o Quaternion) Quaternion {
	return fromQuat(q.quat().Mul(o.quat()))
}

// Rotate applies the rotation to v.
func (q Quaternion) Rotate(v Vec3) Vec3 {
	return fromVec(q.quat().Rotate(v.vec()))
}

// Euler converts to roll/pitch/yaw (static XYZ). mgl64 only converts
// angles to quaternions, so the inverse is written out here.
func (q Quaternion) Euler() Euler {
	x, y, z, w := q.X, q.Y, q.Z, q.W
	return Euler{
		Roll:  math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y)),
		Pitch: math.Asin(mgl64.Clamp(2*(w*y-z*x), -1, 1)),
		Yaw:   math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z)),
	}
}

// Matrix3 returns the rotation matrix of a unit quaternion.
func (q Quaternion) Matrix3() Mat3 {
	return fromMat4(q.quat().Mat4()).Rotation()
}

// XYZW returns the components in the engine's order.
func (q Quaternion) XYZW() []float64 { return []float64{q.X, q.Y, q.Z, q.W} }

// WXYZ returns the components scalar-first, as renderers expect.
func (q Quaternion) WXYZ() []float64 { return []float64{q.W, q.X, q.Y, q.Z} }

// ApproxEqual treats q and -q as the same rotation.
func (q Quaternion) ApproxEqual(o Quaternion, tol float64) bool {
	d := math.Abs(q.quat().Dot(o.quat()))
	return math.Abs(d-1) <= tol
}

func (q Quaternion) String() string {
	return fmt.Sprintf("[%g, %g, %g, %g]", q.X, q.Y, q.Z, q.W)
}

// QuaternionFromMatrix3 converts a rotation matrix. Degenerate input
// yields the identity.
func QuaternionFromMatrix3(m Mat3) Quaternion {
	var h Mat4
	for i := range 3 {
		copy(h[i][:3], m[i][:])
	}
	h[3][3] = 1
	if n, err := fromQuat(mgl64.Mat4ToQuat(h.mat())).Normalize(); err == nil {
		return n
	}
	return IdentityQuaternion()
}
