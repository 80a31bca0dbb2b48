package spatial

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular indicates a linear system with no unique solution.
var ErrSingular = errors.New("spatial: singular matrix")

// Matrix is a dense row-major matrix. Arithmetic is delegated to gonum;
// the nested-slice form is what the engine boundary exchanges.
type Matrix [][]float64

// NewMatrix allocates a zeroed rows×cols matrix.
func NewMatrix(rows, cols int) Matrix {
	m := make(Matrix, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

// MatrixFromDense copies a gonum matrix.
func MatrixFromDense(d mat.Matrix) Matrix {
	r, c := d.Dims()
	m := NewMatrix(r, c)
	for i := range m {
		for j := range m[i] {
			m[i][j] = d.At(i, j)
		}
	}
	return m
}

// Dense copies m into a gonum matrix. It returns nil for an empty matrix,
// which gonum cannot represent.
func (m Matrix) Dense() *mat.Dense {
	r, c := m.Rows(), m.Cols()
	if r == 0 || c == 0 {
		return nil
	}
	data := make([]float64, 0, r*c)
	for _, row := range m {
		data = append(data, row...)
	}
	return mat.NewDense(r, c, data)
}

func (m Matrix) Rows() int { return len(m) }

func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

func (m Matrix) empty() bool { return m.Rows() == 0 || m.Cols() == 0 }

func (m Matrix) Clone() Matrix {
	c := make(Matrix, len(m))
	for i, row := range m {
		c[i] = append([]float64(nil), row...)
	}
	return c
}

func (m Matrix) Transpose() Matrix {
	if m.empty() {
		return NewMatrix(m.Cols(), m.Rows())
	}
	return MatrixFromDense(m.Dense().T())
}

func (m Matrix) Mul(o Matrix) (Matrix, error) {
	if m.Cols() != o.Rows() {
		return nil, fmt.Errorf("%w: %dx%d times %dx%d", ErrDimensionMismatch, m.Rows(), m.Cols(), o.Rows(), o.Cols())
	}
	if m.empty() || o.empty() {
		return NewMatrix(m.Rows(), o.Cols()), nil
	}
	var r mat.Dense
	r.Mul(m.Dense(), o.Dense())
	return MatrixFromDense(&r), nil
}

func (m Matrix) MulVec(v []float64) ([]float64, error) {
	if m.Cols() != len(v) {
		return nil, fmt.Errorf("%w: %dx%d times vector of %d", ErrDimensionMismatch, m.Rows(), m.Cols(), len(v))
	}
	if m.empty() {
		return make([]float64, m.Rows()), nil
	}
	var out mat.VecDense
	out.MulVec(m.Dense(), mat.NewVecDense(len(v), append([]float64(nil), v...)))
	return out.RawVector().Data, nil
}

// VStack concatenates matrices vertically. Empty blocks are skipped.
func VStack(blocks ...Matrix) (Matrix, error) {
	var acc *mat.Dense
	for _, b := range blocks {
		if b.empty() {
			continue
		}
		if acc == nil {
			acc = b.Dense()
			continue
		}
		if _, cols := acc.Dims(); b.Cols() != cols {
			return nil, fmt.Errorf("%w: vstack of %d and %d columns", ErrDimensionMismatch, cols, b.Cols())
		}
		var s mat.Dense
		s.Stack(acc, b.Dense())
		acc = &s
	}
	if acc == nil {
		return nil, nil
	}
	return MatrixFromDense(acc), nil
}

// SelectColumns returns the columns at idx, in idx order.
func (m Matrix) SelectColumns(idx []int) (Matrix, error) {
	for _, c := range idx {
		if c < 0 || c >= m.Cols() {
			return nil, fmt.Errorf("%w: column %d of %d", ErrDimensionMismatch, c, m.Cols())
		}
	}
	if m.Rows() == 0 || len(idx) == 0 {
		return NewMatrix(m.Rows(), len(idx)), nil
	}
	src := m.Dense()
	out := mat.NewDense(m.Rows(), len(idx), nil)
	for j, c := range idx {
		out.SetCol(j, mat.Col(nil, c, src))
	}
	return MatrixFromDense(out), nil
}

// Submatrix returns rows and columns at idx, in idx order.
func (m Matrix) Submatrix(idx []int) (Matrix, error) {
	rows := make(Matrix, len(idx))
	for i, r := range idx {
		if r < 0 || r >= m.Rows() {
			return nil, fmt.Errorf("%w: row %d of %d", ErrDimensionMismatch, r, m.Rows())
		}
		rows[i] = m[r]
	}
	return rows.SelectColumns(idx)
}

// ApproxEqual compares shapes exactly and entries within tol, absolute or
// relative.
func (m Matrix) ApproxEqual(o Matrix, tol float64) bool {
	if m.Rows() != o.Rows() || m.Cols() != o.Cols() {
		return false
	}
	if m.empty() {
		return true
	}
	return mat.EqualApprox(m.Dense(), o.Dense(), tol)
}

// Solve returns x with m·x = b by LU decomposition. m must be square;
// singular or ill-conditioned systems yield ErrSingular.
func (m Matrix) Solve(b []float64) ([]float64, error) {
	n := m.Rows()
	if m.Cols() != n || len(b) != n {
		return nil, fmt.Errorf("%w: solve %dx%d with %d", ErrDimensionMismatch, n, m.Cols(), len(b))
	}
	if n == 0 {
		return []float64{}, nil
	}
	var x mat.VecDense
	if err := x.SolveVec(m.Dense(), mat.NewVecDense(n, append([]float64(nil), b...))); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return x.RawVector().Data, nil
}

// SolveSymmetric solves m·x = b for a symmetric positive-definite m by
// Cholesky factorization. Only the upper triangle of m is read.
func (m Matrix) SolveSymmetric(b []float64) ([]float64, error) {
	n := m.Rows()
	if m.Cols() != n || len(b) != n {
		return nil, fmt.Errorf("%w: solve %dx%d with %d", ErrDimensionMismatch, n, m.Cols(), len(b))
	}
	if n == 0 {
		return []float64{}, nil
	}
	sym := mat.NewSymDense(n, nil)
	for i := range n {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, m[i][j])
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, fmt.Errorf("%w: not positive definite", ErrSingular)
	}
	var x mat.VecDense
	if err := chol.SolveVecTo(&x, mat.NewVecDense(n, append([]float64(nil), b...))); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return x.RawVector().Data, nil
}
