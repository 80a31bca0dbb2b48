package spatial

import "errors"

var (
	// ErrDegenerateQuaternion indicates a quaternion whose norm is too close
	// to zero to be renormalized into an orientation.
	ErrDegenerateQuaternion = errors.New("spatial: degenerate quaternion")

	// ErrDimensionMismatch indicates raw data of the wrong length or matrices
	// with incompatible shapes.
	ErrDimensionMismatch = errors.New("spatial: dimension mismatch")
)
