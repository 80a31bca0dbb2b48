package integrators

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn System, x State, u Control, t, dt float64) State {
	dx := dyn.Derive(x, u, t)
	result := make(State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}

// SemiImplicitEuler updates velocities first and integrates positions with
// the new velocities. The state must be [positions..., velocities...].
type SemiImplicitEuler struct{}

func NewSemiImplicitEuler() *SemiImplicitEuler {
	return &SemiImplicitEuler{}
}

func (e *SemiImplicitEuler) Step(dyn System, x State, u Control, t, dt float64) State {
	n := len(x)
	half := n / 2
	dx := dyn.Derive(x, u, t)
	result := make(State, n)
	for i := 0; i < half; i++ {
		result[half+i] = x[half+i] + dt*dx[half+i]
		result[i] = x[i] + dt*result[half+i]
	}
	return result
}
