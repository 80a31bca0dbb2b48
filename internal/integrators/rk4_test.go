package integrators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type oscillator struct{}

func (oscillator) Derive(x State, u Control, t float64) State {
	return State{x[1], -x[0]}
}

func integrate(integ Integrator, steps int, dt float64) State {
	x := State{1.0, 0.0}
	for i := 0; i < steps; i++ {
		x = integ.Step(oscillator{}, x, nil, float64(i)*dt, dt)
	}
	return x
}

func TestRK4Accuracy(t *testing.T) {
	dt := 0.01
	steps := 100
	x := integrate(NewRK4(), steps, dt)

	assert.InDelta(t, math.Cos(float64(steps)*dt), x[0], 1e-4)
	assert.InDelta(t, -math.Sin(float64(steps)*dt), x[1], 1e-4)
}

func TestSemiImplicitEulerStaysBounded(t *testing.T) {
	x := integrate(NewSemiImplicitEuler(), 10000, 0.01)
	energy := 0.5 * (x[0]*x[0] + x[1]*x[1])
	assert.InDelta(t, 0.5, energy, 0.01)
}

func TestEulerDrifts(t *testing.T) {
	x := integrate(NewEuler(), 1000, 0.01)
	energy := 0.5 * (x[0]*x[0] + x[1]*x[1])
	assert.Greater(t, energy, 0.5)
}

func TestNew(t *testing.T) {
	for _, name := range []string{"rk4", "euler", "semi_implicit_euler"} {
		integ, err := New(name)
		require.NoError(t, err, name)
		assert.NotNil(t, integ)
	}
	_, err := New("leapfrog")
	assert.Error(t, err)
}

func TestStateIsValid(t *testing.T) {
	assert.True(t, State{1, 2}.IsValid())
	assert.False(t, State{1, math.NaN()}.IsValid())
	assert.False(t, State{math.Inf(-1)}.IsValid())
}
