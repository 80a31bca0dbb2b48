package sim

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/robot"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/world"
)

type Option func(*Simulator)

func WithLogger(log *zap.Logger) Option {
	return func(s *Simulator) {
		if log != nil {
			s.log = log
		}
	}
}

// Simulator drives one arm of a world with a controller. The world must be
// in fixed-step mode.
type Simulator struct {
	w          *world.World
	arm        *robot.Arm
	controller Controller
	metrics    []Metric
	observers  []Observer
	log        *zap.Logger

	// next is the index of the next interactive step.
	next int
}

func New(w *world.World, arm *robot.Arm, controller Controller, opts ...Option) *Simulator {
	s := &Simulator{
		w:          w,
		arm:        arm,
		controller: controller,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) steps(duration float64) (int, error) {
	if duration <= 0 {
		return 0, fmt.Errorf("%w: got %f", ErrInvalidDuration, duration)
	}
	p := s.w.Physics()
	if p.IsRealTime() {
		return 0, ErrRealTime
	}
	return int(math.Round(duration / p.TimeStep())), nil
}

func (s *Simulator) sample(step int) (Sample, error) {
	t, err := s.w.Time()
	if err != nil {
		return Sample{}, err
	}
	q, err := s.arm.JointPositions()
	if err != nil {
		return Sample{}, err
	}
	qd, err := s.arm.JointVelocities()
	if err != nil {
		return Sample{}, err
	}
	ee, err := s.arm.EEPose()
	if err != nil {
		return Sample{}, err
	}
	return Sample{Step: step, Time: t, Q: q, Qd: qd, EE: ee}, nil
}

func (s *Simulator) apply(cmd Command) error {
	switch cmd.Mode {
	case engine.ControlPosition:
		return s.arm.SetPositionControlTarget(cmd.Values, true)
	case engine.ControlTorque:
		return s.arm.SetTorqueTargets(cmd.Values)
	}
	return fmt.Errorf("%w: %v", ErrCommandMode, cmd.Mode)
}

// advance computes and applies the command for one step, then steps the
// world. The returned sample carries the command.
func (s *Simulator) advance(step int) (Sample, error) {
	smp, err := s.sample(step)
	if err != nil {
		return Sample{}, err
	}
	cmd, err := s.controller.Compute(s.arm, smp)
	if err != nil {
		return Sample{}, fmt.Errorf("controller at step %d: %w", step, err)
	}
	if err := s.apply(cmd); err != nil {
		return Sample{}, fmt.Errorf("apply at step %d: %w", step, err)
	}
	smp.Command = cmd
	for _, m := range s.metrics {
		m.Observe(smp)
	}
	for _, obs := range s.observers {
		obs.OnStep(smp)
	}
	if err := s.w.StepSimulation(); err != nil {
		return Sample{}, err
	}
	return smp, nil
}

// Run steps the world for duration seconds. Cancellation is checked between
// steps; a cancelled run returns the partial result with ctx.Err().
func (s *Simulator) Run(ctx context.Context, duration float64) (*Result, error) {
	steps, err := s.steps(duration)
	if err != nil {
		return nil, err
	}
	result := &Result{
		Samples: make([]Sample, 0, steps+1),
		Metrics: make(map[string]float64),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}
		smp, err := s.advance(i)
		if err != nil {
			return result, err
		}
		result.Samples = append(result.Samples, smp)
		result.StepsTaken++
	}

	final, err := s.sample(steps)
	if err != nil {
		return result, err
	}
	result.Samples = append(result.Samples, final)
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	if result.Digest, err = s.w.Physics().StateDigest(); err != nil {
		return result, err
	}
	s.log.Debug("run finished", zap.Int("steps", result.StepsTaken), zap.Any("metrics", result.Metrics))
	return result, nil
}

// Step advances one step interactively. Step numbering continues across
// calls and is independent of Run.
func (s *Simulator) Step() (Sample, error) {
	if s.w.Physics().IsRealTime() {
		return Sample{}, ErrRealTime
	}
	smp, err := s.advance(s.next)
	if err != nil {
		return Sample{}, err
	}
	s.next++
	return smp, nil
}

// SetController swaps the controller between steps.
func (s *Simulator) SetController(c Controller) { s.controller = c }

func (s *Simulator) Controller() Controller { return s.controller }

// RunWithCallback steps until duration elapses, ctx is cancelled or
// callback returns false.
func (s *Simulator) RunWithCallback(ctx context.Context, duration float64, callback func(Sample) bool) error {
	steps, err := s.steps(duration)
	if err != nil {
		return err
	}
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		smp, err := s.advance(i)
		if err != nil {
			return err
		}
		if !callback(smp) {
			return nil
		}
	}
	return nil
}
