package automation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/config"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/control"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/metrics"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/storage"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/world"
)

var (
	ErrNoArm         = errors.New("automation: world has no arm")
	ErrUnknownPreset = errors.New("automation: unknown preset")
)

type Option func(*Runner)

func WithLogger(log *zap.Logger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// WithStore saves runs of scenario steps marked save.
func WithStore(st *storage.Store) Option { return func(r *Runner) { r.store = st } }

// Runner executes whole runs: it builds a fresh world per run, attaches
// the default metrics and closes the world afterwards.
type Runner struct {
	assetsDir string
	log       *zap.Logger
	store     *storage.Store
}

// NewRunner returns a runner that loads assets from assetsDir, or from each
// config's own directory when assetsDir is empty.
func NewRunner(assetsDir string, opts ...Option) *Runner {
	r := &Runner{assetsDir: assetsDir, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Preset returns a copy of a world preset pointed at the runner's assets.
func (r *Runner) Preset(name string) (*config.World, error) {
	cfg := config.GetWorldPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownPreset, name, config.ListWorldPresets())
	}
	if r.assetsDir != "" {
		cfg.AssetsDir = r.assetsDir
	}
	return cfg, nil
}

// RunWorld runs cfg for cfg.Duration with params applied to its controller.
// Safe for concurrent use; every call owns its world.
func (r *Runner) RunWorld(ctx context.Context, cfg config.World, params map[string]float64) (*sim.Result, error) {
	if r.assetsDir != "" {
		cfg.AssetsDir = r.assetsDir
	}
	w, err := world.New(cfg, world.WithDefaultScene(), world.WithLogger(r.log))
	if err != nil {
		return nil, err
	}
	defer w.Close()

	arms := w.Arms()
	if len(arms) == 0 {
		return nil, ErrNoArm
	}
	arm := arms[0]
	ctrl, err := control.New(cfg.Controller, arm, cfg.ControllerParams)
	if err != nil {
		return nil, err
	}
	if err := control.SetParams(ctrl, params); err != nil {
		return nil, err
	}

	s := sim.New(w, arm, ctrl, sim.WithLogger(r.log))
	for _, m := range metrics.Default(arm) {
		s.AddMetric(m)
	}
	return s.Run(ctx, cfg.Duration)
}
