package automation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/config"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/storage"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`

	dir string
}

// Step is one run of a scenario. Config, when set, is a world file relative
// to the scenario file and takes precedence over Preset. Zero fields keep
// the world's values.
type Step struct {
	Name       string             `yaml:"name"`
	Preset     string             `yaml:"preset"`
	Config     string             `yaml:"config"`
	Controller string             `yaml:"controller"`
	Duration   float64            `yaml:"duration"`
	Target     *config.Vec3       `yaml:"target"`
	Params     map[string]float64 `yaml:"params"`
	Save       bool               `yaml:"save"`
}

type StepResult struct {
	Step   string
	RunID  string
	Result *sim.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	sc.dir = filepath.Dir(path)
	return &sc, nil
}

func (r *Runner) stepWorld(sc *Scenario, step Step) (*config.World, string, error) {
	var (
		cfg  *config.World
		name string
		err  error
	)
	switch {
	case step.Config != "":
		path := step.Config
		if !filepath.IsAbs(path) {
			path = filepath.Join(sc.dir, path)
		}
		if cfg, err = config.LoadWorld(path); err != nil {
			return nil, "", err
		}
		name = step.Config
	case step.Preset != "":
		if cfg, err = r.Preset(step.Preset); err != nil {
			return nil, "", err
		}
		name = step.Preset
	default:
		return nil, "", fmt.Errorf("%w: step needs a preset or config", ErrUnknownPreset)
	}

	if step.Controller != "" {
		cfg.Controller = step.Controller
	}
	if step.Duration > 0 {
		cfg.Duration = step.Duration
	}
	if step.Target != nil {
		cfg.ControllerParams.Target = *step.Target
	}
	return cfg, name, nil
}

// RunScenario runs every step in order and stops at the first failure,
// returning the results so far.
func (r *Runner) RunScenario(ctx context.Context, sc *Scenario) ([]StepResult, error) {
	results := make([]StepResult, 0, len(sc.Steps))
	for i, step := range sc.Steps {
		label := step.Name
		if label == "" {
			label = fmt.Sprintf("step %d", i+1)
		}
		cfg, name, err := r.stepWorld(sc, step)
		if err != nil {
			return results, fmt.Errorf("%s: %w", label, err)
		}
		r.log.Info("scenario step",
			zap.String("scenario", sc.Name),
			zap.String("step", label),
			zap.String("world", name),
			zap.String("controller", cfg.Controller))

		res, err := r.RunWorld(ctx, *cfg, step.Params)
		if err != nil {
			return results, fmt.Errorf("%s: %w", label, err)
		}
		out := StepResult{Step: label, Result: res}
		if step.Save {
			if out.RunID, err = r.save(name, cfg, res); err != nil {
				return results, fmt.Errorf("%s: %w", label, err)
			}
		}
		results = append(results, out)
	}
	return results, nil
}

func (r *Runner) save(name string, cfg *config.World, res *sim.Result) (string, error) {
	if r.store == nil {
		return "", fmt.Errorf("automation: no store to save to")
	}
	if err := r.store.Init(); err != nil {
		return "", err
	}
	meta := storage.RunMetadata{
		Preset:     name,
		Dt:         cfg.TimeStep,
		Duration:   cfg.Duration,
		Controller: cfg.Controller,
	}
	if len(cfg.Arms) > 0 {
		meta.Arm = cfg.Arms[0].URDFName
		meta.JointNames = cfg.Arms[0].Arm.JointNames
	}
	return r.store.Save(meta, res)
}
