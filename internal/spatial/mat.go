package spatial

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Mat3 is a row-major 3×3 matrix. mgl64 stores columns, so conversions
// go through mat and fromMat3.
type Mat3 [3][3]float64

func IdentityMat3() Mat3 { return fromMat3(mgl64.Ident3()) }

func (m Mat3) mat() mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3(m[0]),
		mgl64.Vec3(m[1]),
		mgl64.Vec3(m[2]),
	)
}

func fromMat3(m mgl64.Mat3) Mat3 {
	var r Mat3
	for i := range 3 {
		r[i] = m.Row(i)
	}
	return r
}

func (m Mat3) Mul(o Mat3) Mat3    { return fromMat3(m.mat().Mul3(o.mat())) }
func (m Mat3) MulVec(v Vec3) Vec3 { return fromVec(m.mat().Mul3x1(v.vec())) }
func (m Mat3) Transpose() Mat3    { return fromMat3(m.mat().Transpose()) }
func (m Mat3) Det() float64       { return m.mat().Det() }

// IsRotation checks R·Rᵗ = I and det(R) = 1 within tol.
func (m Mat3) IsRotation(tol float64) bool {
	p := m.Mul(m.Transpose())
	id := IdentityMat3()
	for i := range 3 {
		for j := range 3 {
			if mgl64.Abs(p[i][j]-id[i][j]) > tol {
				return false
			}
		}
	}
	return mgl64.Abs(m.Det()-1) <= tol
}

// Mat4 is a homogeneous transform, row-major.
type Mat4 [4][4]float64

func IdentityMat4() Mat4 { return fromMat4(mgl64.Ident4()) }

func (m Mat4) mat() mgl64.Mat4 {
	return mgl64.Mat4FromRows(
		mgl64.Vec4(m[0]),
		mgl64.Vec4(m[1]),
		mgl64.Vec4(m[2]),
		mgl64.Vec4(m[3]),
	)
}

func fromMat4(m mgl64.Mat4) Mat4 {
	var r Mat4
	for i := range 4 {
		r[i] = m.Row(i)
	}
	return r
}

func (m Mat4) Mul(o Mat4) Mat4 { return fromMat4(m.mat().Mul4(o.mat())) }

func (m Mat4) Rotation() Mat3 {
	return Mat3{
		{m[0][0], m[0][1], m[0][2]},
		{m[1][0], m[1][1], m[1][2]},
		{m[2][0], m[2][1], m[2][2]},
	}
}

func (m Mat4) Translation() Vec3 { return Vec3{m[0][3], m[1][3], m[2][3]} }

// ColumnMajor flattens m the way the engine's camera API expects, which is
// also mgl64's storage order.
func (m Mat4) ColumnMajor() []float64 {
	c := m.mat()
	return append([]float64(nil), c[:]...)
}

// Mat4FromColumnMajor is the inverse of ColumnMajor.
func Mat4FromColumnMajor(s []float64) (Mat4, error) {
	if len(s) != 16 {
		return Mat4{}, fmt.Errorf("%w: 4x4 matrix needs 16 values, got %d", ErrDimensionMismatch, len(s))
	}
	var c mgl64.Mat4
	copy(c[:], s)
	return fromMat4(c), nil
}
