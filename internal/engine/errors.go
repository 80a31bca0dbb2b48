package engine

import "errors"

var (
	ErrUnknownBody       = errors.New("engine: unknown body")
	ErrUnknownLink       = errors.New("engine: unknown link")
	ErrUnknownJoint      = errors.New("engine: unknown joint")
	ErrUnknownConstraint = errors.New("engine: unknown constraint")
	ErrUnknownState      = errors.New("engine: unknown saved state")
	ErrUnknownShape      = errors.New("engine: unknown shape")
	ErrUnsupportedFormat = errors.New("engine: unsupported asset format")
	ErrNotConnected      = errors.New("engine: not connected")
	ErrDimensionMismatch = errors.New("engine: dimension mismatch")
)
