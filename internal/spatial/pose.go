package spatial

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Pose is a position plus a unit orientation.
type Pose struct {
	Position    Vec3
	Orientation Quaternion
}

// IdentityPose sits at the origin with no rotation.
func IdentityPose() Pose {
	return Pose{Orientation: IdentityQuaternion()}
}

// NewPose renormalizes orientation and fails if it is degenerate.
func NewPose(position Vec3, orientation Quaternion) (Pose, error) {
	q, err := orientation.Normalize()
	if err != nil {
		return Pose{}, err
	}
	return Pose{Position: position, Orientation: q}, nil
}

// PoseFromSlices reads [x, y, z] and [x, y, z, w].
func PoseFromSlices(position, orientation []float64) (Pose, error) {
	p, err := Vec3FromSlice(position)
	if err != nil {
		return Pose{}, err
	}
	q, err := QuaternionFromSlice(orientation)
	if err != nil {
		return Pose{}, err
	}
	return Pose{Position: p, Orientation: q}, nil
}

// PoseFromEuler builds a pose from a position and roll/pitch/yaw.
func PoseFromEuler(position Vec3, e Euler) Pose {
	return Pose{Position: position, Orientation: e.Quaternion()}
}

// PoseFromMatrix4 extracts the rotation and translation of a transform.
func PoseFromMatrix4(m Mat4) Pose {
	return Pose{Position: m.Translation(), Orientation: QuaternionFromMatrix3(m.Rotation())}
}

func (p Pose) Euler() Euler   { return p.Orientation.Euler() }
func (p Pose) Matrix3() Mat3  { return p.Orientation.Matrix3() }
func (p Pose) IsValid() bool  { return p.Orientation.IsUnit(1e-6) && isFinite(p.Position) }
func (p Pose) String() string { return fmt.Sprintf("{%v, %v}", p.Position, p.Orientation) }

func (p Pose) Matrix4() Mat4 {
	t := mgl64.Translate3D(p.Position.X, p.Position.Y, p.Position.Z)
	return fromMat4(t.Mul4(p.Orientation.quat().Mat4()))
}

// Multiply composes p·o: o is expressed in p's frame.
func (p Pose) Multiply(o Pose) Pose {
	return Pose{
		Position:    p.Position.Add(p.Orientation.Rotate(o.Position)),
		Orientation: p.Orientation.Mul(o.Orientation),
	}
}

func (p Pose) Inverse() Pose {
	inv := p.Orientation.Conjugate()
	return Pose{Position: inv.Rotate(p.Position).Neg(), Orientation: inv}
}

// TransformPoint maps a point from p's frame into the parent frame.
func (p Pose) TransformPoint(v Vec3) Vec3 {
	return p.Position.Add(p.Orientation.Rotate(v))
}

func (p Pose) ApproxEqual(o Pose, tol float64) bool {
	return p.Position.ApproxEqual(o.Position, tol) && p.Orientation.ApproxEqual(o.Orientation, tol)
}

func isFinite(v Vec3) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
