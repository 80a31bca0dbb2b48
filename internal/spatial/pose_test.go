package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoseRejectsDegenerate(t *testing.T) {
	_, err := NewPose(Vec3{}, Quaternion{})
	assert.ErrorIs(t, err, ErrDegenerateQuaternion)

	p, err := PoseFromSlices([]float64{0, 0, 0.6}, []float64{0, 0, 0, 3})
	require.NoError(t, err)
	assert.Equal(t, Vec3{Z: 0.6}, p.Position)
	assert.Equal(t, IdentityQuaternion(), p.Orientation)
}

func TestPoseInverse(t *testing.T) {
	p := PoseFromEuler(Vec3{1, 2, 3}, Euler{0.1, -0.4, 1.2})
	id := p.Multiply(p.Inverse())
	assert.True(t, id.ApproxEqual(IdentityPose(), 1e-12), "got %v", id)
}

func TestPoseMatrix4RoundTrip(t *testing.T) {
	p := PoseFromEuler(Vec3{0.3, -1, 2}, Euler{0.5, 0.2, -2.5})
	back := PoseFromMatrix4(p.Matrix4())
	assert.True(t, p.ApproxEqual(back, 1e-9))

	m := p.Matrix4().Mul(p.Inverse().Matrix4())
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, m[i][j], 1e-9)
		}
	}
}

func TestPoseTransformPoint(t *testing.T) {
	p := Pose{Position: Vec3{X: 1}, Orientation: QuaternionFromAxisAngle(Vec3{Z: 1}, math.Pi/2)}
	got := p.TransformPoint(Vec3{X: 1})
	assert.True(t, got.ApproxEqual(Vec3{X: 1, Y: 1}, 1e-12), "got %v", got)
}

func TestMatrixHelpers(t *testing.T) {
	a := Matrix{{1, 2, 3}, {4, 5, 6}}
	b := Matrix{{7, 8, 9}}

	s, err := VStack(a, b)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Rows())
	assert.Equal(t, []float64{7, 8, 9}, s[2])

	_, err = VStack(a, Matrix{{1}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	c, err := a.SelectColumns([]int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, Matrix{{3, 1}, {6, 4}}, c)

	sq := Matrix{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}
	sub, err := sq.Submatrix([]int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, Matrix{{9, 7}, {3, 1}}, sub)
}

func TestMatrixSolve(t *testing.T) {
	m := Matrix{{4, 1}, {2, 3}}
	x, err := m.Solve([]float64{1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.1, x[0], 1e-12)
	assert.InDelta(t, 0.6, x[1], 1e-12)

	_, err = Matrix{{1, 2}, {2, 4}}.Solve([]float64{1, 1})
	assert.ErrorIs(t, err, ErrSingular)

	_, err = m.Solve([]float64{1})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestMatrixSolveSymmetric(t *testing.T) {
	m := Matrix{{4, 2}, {2, 3}}
	x, err := m.SolveSymmetric([]float64{2, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, x[0], 1e-12)
	assert.InDelta(t, 0, x[1], 1e-12)

	_, err = Matrix{{1, 2}, {2, 1}}.SolveSymmetric([]float64{1, 1})
	assert.ErrorIs(t, err, ErrSingular)
}

func TestMatrixProducts(t *testing.T) {
	a := Matrix{{1, 2, 3}, {4, 5, 6}}
	p, err := a.Mul(a.Transpose())
	require.NoError(t, err)
	assert.Equal(t, Matrix{{14, 32}, {32, 77}}, p)

	v, err := a.MulVec([]float64{1, 0, -1})
	require.NoError(t, err)
	assert.Equal(t, []float64{-2, -2}, v)

	_, err = a.Mul(a)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	empty, err := NewMatrix(2, 0).Mul(NewMatrix(0, 3))
	require.NoError(t, err)
	assert.Equal(t, NewMatrix(2, 3), empty)

	assert.Nil(t, NewMatrix(0, 4).Dense())
	assert.Equal(t, a, MatrixFromDense(a.Dense()))
}

func TestViewMatrixLooksDownNegativeZ(t *testing.T) {
	v := ViewMatrix(Vec3{Z: 5}, Vec3{}, Vec3{Y: 1})
	origin := v.Mul(Mat4{{0}, {0}, {0}, {1}})
	assert.InDelta(t, -5, origin[2][0], 1e-12)

	flat := v.ColumnMajor()
	back, err := Mat4FromColumnMajor(flat)
	require.NoError(t, err)
	assert.Equal(t, v, back)
}
