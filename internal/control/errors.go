package control

import "errors"

var (
	ErrUnknownController = errors.New("control: unknown controller")
	ErrUnknownParam      = errors.New("control: unknown parameter")
	ErrDimension         = errors.New("control: dimension mismatch")
	ErrJointIndex        = errors.New("control: joint index out of range")
)
