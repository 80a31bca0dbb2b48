package world

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/config"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/engine/reference"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/entity"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/interfaces"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/physics"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/robot"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/spatial"
)

var (
	ErrNoInitializer = errors.New("world: exactly one of WithDefaultScene or WithInitializer is required")
	ErrUnknownBody   = errors.New("world: unknown body")
)

type World struct {
	cfg    config.World
	p      *physics.Physics
	ifaces *interfaces.Set
	log    *zap.Logger

	bodies map[physics.BodyID]*entity.Body
	arms   []*robot.Arm
}

// New creates the session, builds the scene and starts the clock. On error
// the session is torn down and no world is returned.
func New(cfg config.World, opts ...Option) (*World, error) {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.defaultScene == (o.init != nil) {
		return nil, ErrNoInitializer
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if o.engine == nil {
		o.engine = reference.New()
	}

	popts := []physics.Option{physics.WithLogger(o.log)}
	if !cfg.RealTime {
		popts = append(popts, physics.WithTimeStep(cfg.TimeStep))
	}
	p := physics.New(o.engine, popts...)
	w := &World{
		cfg:    cfg,
		p:      p,
		ifaces: interfaces.New(p),
		log:    o.log,
		bodies: make(map[physics.BodyID]*entity.Body),
	}

	build := o.init
	if o.defaultScene {
		build = (*World).defaultScene
	}
	if err := w.setup(build); err != nil {
		if dErr := p.Disconnect(); dErr != nil {
			w.log.Warn("disconnect after failed setup", zap.Error(dErr))
		}
		return nil, err
	}
	return w, nil
}

func (w *World) setup(build Initializer) error {
	g := w.cfg.Gravity
	if err := w.p.SetGravity(spatial.Vec3{X: g[0], Y: g[1], Z: g[2]}); err != nil {
		return err
	}
	if err := w.UpdateCamera(w.cfg.Camera); err != nil {
		return err
	}
	if err := build(w); err != nil {
		return fmt.Errorf("build scene: %w", err)
	}
	if err := w.p.Start(); err != nil {
		return err
	}
	w.log.Info("world ready", zap.Int("bodies", len(w.bodies)), zap.Int("arms", len(w.arms)))
	return nil
}

func (w *World) defaultScene() error {
	if w.cfg.Scene.Plane != "" {
		if _, err := w.AddBody(w.cfg.Scene.Plane, WithLoadOptions(physics.WithStatic())); err != nil {
			return err
		}
	}
	if w.cfg.Scene.Table != "" {
		t := w.cfg.Scene.TablePosition
		if _, err := w.AddBody(w.cfg.Scene.Table,
			WithPosition(t[0], t[1], t[2]), WithLoadOptions(physics.WithStatic())); err != nil {
			return err
		}
	}
	for _, cfg := range w.cfg.Arms {
		if _, err := w.AddArm(cfg); err != nil {
			return err
		}
	}
	return nil
}

// AddArm loads and resolves an arm described by cfg.
func (w *World) AddArm(cfg config.Arm) (*robot.Arm, error) {
	arm, err := robot.New(cfg, w, w.ifaces, robot.WithLogger(w.log))
	if err != nil {
		return nil, err
	}
	w.arms = append(w.arms, arm)
	return arm, nil
}

// AddBody loads rel from the world's assets directory, or from the
// directory given with WithAssetsDir.
func (w *World) AddBody(rel string, opts ...BodyOption) (*entity.Body, error) {
	o := bodyOptions{pose: spatial.IdentityPose()}
	for _, opt := range opts {
		opt(&o)
	}
	return w.LoadBody(rel, o.assetsDir, o.pose, o.physics...)
}

// LoadBody implements robot.BodyLoader.
func (w *World) LoadBody(rel, assetsDir string, pose spatial.Pose, opts ...physics.BodyOption) (*entity.Body, error) {
	if assetsDir == "" {
		assetsDir = w.cfg.AssetsDir
	}
	id, err := w.p.AddBody(filepath.Join(assetsDir, rel), pose, opts...)
	if err != nil {
		return nil, err
	}
	return w.track(id), nil
}

func (w *World) track(id physics.BodyID) *entity.Body {
	b := entity.NewBody(w.p, w.ifaces.Joints, id)
	w.bodies[id] = b
	return b
}

func (w *World) AddPrimitiveBody(spec engine.MultiBodySpec) (*entity.Body, error) {
	id, err := w.p.AddPrimitiveBody(spec)
	if err != nil {
		return nil, err
	}
	return w.track(id), nil
}

func (w *World) RemoveBody(id physics.BodyID) error {
	if _, ok := w.bodies[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBody, id)
	}
	if err := w.p.RemoveBody(id); err != nil {
		return err
	}
	delete(w.bodies, id)
	return nil
}

func (w *World) Body(id physics.BodyID) (*entity.Body, bool) {
	b, ok := w.bodies[id]
	return b, ok
}

// Bodies lists the tracked bodies by id.
func (w *World) Bodies() []*entity.Body {
	out := make([]*entity.Body, 0, len(w.bodies))
	for _, b := range w.bodies {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (w *World) Arms() []*robot.Arm { return append([]*robot.Arm(nil), w.arms...) }

func (w *World) StepSimulation() error { return w.p.Step() }

func (w *World) Time() (float64, error) { return w.p.Time() }

// UpdateCamera moves the debug camera. Angles in cam are degrees.
func (w *World) UpdateCamera(cam config.Camera) error {
	return w.p.ResetDebugVisualizer(physics.DebugCameraConfig{
		Distance: cam.Distance,
		Yaw:      cam.Yaw * math.Pi / 180,
		Pitch:    cam.Pitch * math.Pi / 180,
		Target:   spatial.Vec3{X: cam.Target[0], Y: cam.Target[1], Z: cam.Target[2]},
	})
}

func (w *World) Config() config.World        { return w.cfg }
func (w *World) Physics() *physics.Physics   { return w.p }
func (w *World) Interfaces() *interfaces.Set { return w.ifaces }

// Close disconnects the session. It must be the last call on the world.
func (w *World) Close() error { return w.p.Disconnect() }
