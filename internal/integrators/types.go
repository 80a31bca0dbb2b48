package integrators

import (
	"fmt"
	"math"
)

// State is a flat state vector, positions first then velocities for
// second-order systems.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Control is the input held constant across one step.
type Control []float64

// System is dx/dt = f(x, u, t).
type System interface {
	Derive(x State, u Control, t float64) State
}

type Integrator interface {
	Step(dyn System, x State, u Control, t, dt float64) State
}

// New returns the integrator registered under name.
func New(name string) (Integrator, error) {
	switch name {
	case "rk4", "":
		return NewRK4(), nil
	case "euler":
		return NewEuler(), nil
	case "semi_implicit_euler":
		return NewSemiImplicitEuler(), nil
	}
	return nil, fmt.Errorf("unknown integrator: %s", name)
}
