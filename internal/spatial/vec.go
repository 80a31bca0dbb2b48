package spatial

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) vec() mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }

func fromVec(v mgl64.Vec3) Vec3 { return Vec3{v[0], v[1], v[2]} }

func (v Vec3) Add(o Vec3) Vec3      { return fromVec(v.vec().Add(o.vec())) }
func (v Vec3) Sub(o Vec3) Vec3      { return fromVec(v.vec().Sub(o.vec())) }
func (v Vec3) Scale(s float64) Vec3 { return fromVec(v.vec().Mul(s)) }
func (v Vec3) Neg() Vec3            { return v.Scale(-1) }
func (v Vec3) Norm() float64        { return v.vec().Len() }
func (v Vec3) Dot(o Vec3) float64   { return v.vec().Dot(o.vec()) }
func (v Vec3) Cross(o Vec3) Vec3    { return fromVec(v.vec().Cross(o.vec())) }

// Normalize returns the unit vector along v, or the zero vector if v is zero.
func (v Vec3) Normalize() Vec3 {
	if v.Norm() == 0 {
		return Vec3{}
	}
	return fromVec(v.vec().Normalize())
}

// Mul multiplies component-wise.
func (v Vec3) Mul(o Vec3) Vec3 { return Vec3{v.X * o.X, v.Y * o.Y, v.Z * o.Z} }

func (v Vec3) Min(o Vec3) Vec3 {
	return Vec3{math.Min(v.X, o.X), math.Min(v.Y, o.Y), math.Min(v.Z, o.Z)}
}

func (v Vec3) Max(o Vec3) Vec3 {
	return Vec3{math.Max(v.X, o.X), math.Max(v.Y, o.Y), math.Max(v.Z, o.Z)}
}

func (v Vec3) Slice() []float64 { return []float64{v.X, v.Y, v.Z} }

// ApproxEqual compares each component against an absolute tolerance.
func (v Vec3) ApproxEqual(o Vec3, tol float64) bool {
	d := v.Sub(o)
	return mgl64.Abs(d.X) <= tol && mgl64.Abs(d.Y) <= tol && mgl64.Abs(d.Z) <= tol
}

func (v Vec3) String() string { return fmt.Sprintf("[%g, %g, %g]", v.X, v.Y, v.Z) }

// Vec3FromSlice builds a vector from exactly three values.
func Vec3FromSlice(s []float64) (Vec3, error) {
	if len(s) != 3 {
		return Vec3{}, fmt.Errorf("%w: vector needs 3 values, got %d", ErrDimensionMismatch, len(s))
	}
	return Vec3{s[0], s[1], s[2]}, nil
}
