package physics

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

// Physics owns one engine session.
type Physics struct {
	eng engine.Engine
	log *zap.Logger
	now func() time.Time

	timeStep  *float64
	started   bool
	startTime time.Time
	numSteps  int
	gravity   spatial.Vec3

	disconnected bool
	sensors      map[JointID]bool
	commands     map[JointID]Command
	snapshots    map[StateID]records
}

func New(eng engine.Engine, opts ...Option) *Physics {
	p := &Physics{
		eng:       eng,
		log:       zap.NewNop(),
		now:       time.Now,
		sensors:   make(map[JointID]bool),
		commands:  make(map[JointID]Command),
		snapshots: make(map[StateID]records),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Physics) alive() error {
	if p.disconnected {
		return ErrDisconnected
	}
	return nil
}

// Engine exposes the underlying session for adapters that need raw access.
func (p *Physics) Engine() engine.Engine { return p.eng }

func (p *Physics) Logger() *zap.Logger { return p.log }

// Start begins the session in fixed-step mode when a time step was given,
// otherwise in real-time mode.
func (p *Physics) Start() error {
	if err := p.alive(); err != nil {
		return err
	}
	if p.timeStep == nil {
		if err := p.eng.SetRealTime(true); err != nil {
			return err
		}
	} else {
		if err := p.eng.SetRealTime(false); err != nil {
			return err
		}
		if err := p.eng.SetTimeStep(*p.timeStep); err != nil {
			return err
		}
	}
	p.started = true
	p.startTime = p.now()
	p.numSteps = 0
	p.log.Debug("session started", zap.Bool("real_time", p.IsRealTime()), zap.Float64("time_step", p.TimeStep()))
	return nil
}

func (p *Physics) Step() error {
	if err := p.alive(); err != nil {
		return err
	}
	if !p.started {
		return ErrNotStarted
	}
	if p.IsRealTime() {
		return ErrRealTimeStep
	}
	if err := p.eng.StepSimulation(); err != nil {
		return fmt.Errorf("step %d: %w", p.numSteps, err)
	}
	p.numSteps++
	return nil
}

func (p *Physics) IsRealTime() bool { return p.timeStep == nil }

// TimeStep is the fixed step length, or 0 for a real-time session.
func (p *Physics) TimeStep() float64 {
	if p.timeStep == nil {
		return 0
	}
	return *p.timeStep
}

func (p *Physics) NumSteps() int { return p.numSteps }

// Time is wall-clock time since Start in real-time mode, and
// NumSteps·TimeStep otherwise.
func (p *Physics) Time() (float64, error) {
	if err := p.alive(); err != nil {
		return 0, err
	}
	if !p.started {
		return 0, ErrNotStarted
	}
	if p.IsRealTime() {
		return p.now().Sub(p.startTime).Seconds(), nil
	}
	return float64(p.numSteps) * *p.timeStep, nil
}

// Reset clears the world and returns the session to its unstarted state.
func (p *Physics) Reset() error {
	if err := p.alive(); err != nil {
		return err
	}
	if err := p.eng.ResetSimulation(); err != nil {
		return err
	}
	p.started = false
	p.numSteps = 0
	p.gravity = spatial.Vec3{}
	p.sensors = make(map[JointID]bool)
	p.commands = make(map[JointID]Command)
	p.snapshots = make(map[StateID]records)
	return nil
}

func (p *Physics) SetGravity(g spatial.Vec3) error {
	if err := p.alive(); err != nil {
		return err
	}
	if err := p.eng.SetGravity(g); err != nil {
		return err
	}
	p.gravity = g
	return nil
}

func (p *Physics) Gravity() spatial.Vec3 { return p.gravity }

// Disconnect ends the session. It must be the last call; a second call
// returns ErrDisconnected.
func (p *Physics) Disconnect() error {
	if err := p.alive(); err != nil {
		return err
	}
	p.disconnected = true
	if err := p.eng.Disconnect(); err != nil {
		return err
	}
	p.log.Debug("session disconnected", zap.Int("steps", p.numSteps))
	return nil
}
