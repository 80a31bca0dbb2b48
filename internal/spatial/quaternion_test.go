package spatial

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomUnitQuaternion(r *rand.Rand) Quaternion {
	for {
		q := Quaternion{r.NormFloat64(), r.NormFloat64(), r.NormFloat64(), r.NormFloat64()}
		if n, err := q.Normalize(); err == nil {
			return n
		}
	}
}

func TestEulerRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	checked := 0
	for i := 0; i < 5000; i++ {
		q := randomUnitQuaternion(r)
		e := q.Euler()
		if IsGimbalLocked(e, DefaultGimbalEpsilon) {
			continue
		}
		back := QuaternionFromEuler(e.Roll, e.Pitch, e.Yaw).Euler()
		require.Truef(t, e.ApproxEqual(back, 1e-5), "round trip %v -> %v", e, back)
		checked++
	}
	assert.Greater(t, checked, 4900)
}

func TestEulerQuaternionAgreeOnMatrix(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		e := Euler{
			Roll:  (r.Float64()*2 - 1) * math.Pi,
			Pitch: (r.Float64()*2 - 1) * math.Pi / 2,
			Yaw:   (r.Float64()*2 - 1) * math.Pi,
		}
		a := e.Matrix3()
		b := e.Quaternion().Matrix3()
		for row := 0; row < 3; row++ {
			for col := 0; col < 3; col++ {
				require.InDelta(t, a[row][col], b[row][col], 1e-9)
			}
		}
	}
}

func TestRotationMatrixIsOrthonormal(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 5000; i++ {
		m := randomUnitQuaternion(r).Matrix3()
		require.True(t, m.IsRotation(1e-6))
		assert.InDelta(t, 1.0, m.Det(), 1e-6)
	}
}

func TestMatrixRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		q := randomUnitQuaternion(r)
		back := QuaternionFromMatrix3(q.Matrix3())
		require.Truef(t, q.ApproxEqual(back, 1e-9), "%v != %v", q, back)
	}
}

func TestNewQuaternionRenormalizes(t *testing.T) {
	q, err := NewQuaternion(0, 0, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, IdentityQuaternion(), q)

	_, err = NewQuaternion(0, 0, 0, 0)
	assert.ErrorIs(t, err, ErrDegenerateQuaternion)

	_, err = NewQuaternion(math.NaN(), 0, 0, 1)
	assert.ErrorIs(t, err, ErrDegenerateQuaternion)
}

func TestComponentMutationNeedsRenormalize(t *testing.T) {
	q := IdentityQuaternion()
	q.X = 1
	assert.False(t, q.IsUnit(1e-9))

	n, err := q.Normalize()
	require.NoError(t, err)
	assert.True(t, n.IsUnit(1e-12))
	assert.InDelta(t, math.Sqrt2/2, n.X, 1e-12)
}

func TestQuaternionRotate(t *testing.T) {
	q := QuaternionFromAxisAngle(Vec3{Z: 1}, math.Pi/2)
	v := q.Rotate(Vec3{X: 1})
	assert.True(t, v.ApproxEqual(Vec3{Y: 1}, 1e-12), "got %v", v)

	m := q.Matrix3().MulVec(Vec3{X: 1})
	assert.True(t, m.ApproxEqual(v, 1e-12))
}

func TestQuaternionMulComposes(t *testing.T) {
	a := QuaternionFromAxisAngle(Vec3{Z: 1}, 0.3)
	b := QuaternionFromAxisAngle(Vec3{Z: 1}, 0.4)
	c := a.Mul(b)
	assert.True(t, c.ApproxEqual(QuaternionFromAxisAngle(Vec3{Z: 1}, 0.7), 1e-12))
	assert.True(t, a.Mul(a.Inverse()).ApproxEqual(IdentityQuaternion(), 1e-12))
}

func TestQuaternionFromSliceLength(t *testing.T) {
	_, err := QuaternionFromSlice([]float64{0, 0, 1})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestGimbalLockBand(t *testing.T) {
	assert.True(t, IsGimbalLocked(Euler{Pitch: math.Pi / 2}, DefaultGimbalEpsilon))
	assert.True(t, IsGimbalLocked(Euler{Pitch: -math.Pi/2 + 1e-4}, DefaultGimbalEpsilon))
	assert.False(t, IsGimbalLocked(Euler{Pitch: 1.0}, DefaultGimbalEpsilon))
}

func TestSingleAxisEulerMatchesAxisAngle(t *testing.T) {
	cases := []struct {
		e    Euler
		axis Vec3
		a    float64
	}{
		{Euler{Roll: 0.7}, Vec3{X: 1}, 0.7},
		{Euler{Pitch: -0.4}, Vec3{Y: 1}, -0.4},
		{Euler{Yaw: 2.1}, Vec3{Z: 1}, 2.1},
	}
	for _, c := range cases {
		want := QuaternionFromAxisAngle(c.axis, c.a)
		assert.Truef(t, c.e.Quaternion().ApproxEqual(want, 1e-12), "%v: got %v want %v", c.e, c.e.Quaternion(), want)
	}

	// Yaw is applied last: roll leaves +X alone, then yaw takes it to +Y.
	q := Euler{Roll: math.Pi / 2, Yaw: math.Pi / 2}.Quaternion()
	got := q.Rotate(Vec3{X: 1})
	assert.True(t, got.ApproxEqual(Vec3{Y: 1}, 1e-12), "got %v", got)
}

func TestProjectionMatrixMapsNearAndFar(t *testing.T) {
	p := ProjectionMatrixFOV(math.Pi/2, 1, 0.1, 10)
	clip := func(z float64) float64 {
		v := p.Mul(Mat4{{0}, {0}, {z}, {1}})
		return v[2][0] / v[3][0]
	}
	assert.InDelta(t, -1, clip(-0.1), 1e-9)
	assert.InDelta(t, 1, clip(-10), 1e-9)
}
