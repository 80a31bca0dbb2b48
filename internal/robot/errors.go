package robot

import (
	"errors"
	"fmt"
)

var (
	// ErrNameNotFound matches every *NameNotFoundError.
	ErrNameNotFound = errors.New("robot: name not found")

	// ErrNotImplemented marks operations on joints outside the arm, which
	// are not modelled.
	ErrNotImplemented = errors.New("robot: not implemented")

	ErrNotReady = errors.New("robot: arm not resolved")
)

// NameNotFoundError reports a configured joint or link name that the loaded
// body does not have.
type NameNotFoundError struct {
	Kind string
	Name string
}

func (e *NameNotFoundError) Error() string {
	return fmt.Sprintf("robot: %s %q not found", e.Kind, e.Name)
}

func (e *NameNotFoundError) Is(target error) bool { return target == ErrNameNotFound }
