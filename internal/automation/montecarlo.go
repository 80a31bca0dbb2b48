package automation

import (
	"context"
	"math/rand"
	"time"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/config"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
)

// MonteCarloConfig perturbs the reach target of a world uniformly by up to
// Perturbation metres per axis and checks how often ik_reach gets there.
type MonteCarloConfig struct {
	Trials       int
	Perturbation float64
	// Tolerance is the final end-effector distance that counts as reached.
	Tolerance float64
	// Seed 0 draws a time-based seed.
	Seed     int64
	Parallel int
}

type Trial struct {
	ID         int
	Target     config.Vec3
	FinalError float64
	Reached    bool
	Digest     uint64
}

// Targets draws the perturbed targets for mc around base.
func (mc MonteCarloConfig) Targets(base config.Vec3) []config.Vec3 {
	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	targets := make([]config.Vec3, mc.Trials)
	for i := range targets {
		for k := range base {
			targets[i][k] = base[k] + (rng.Float64()-0.5)*2*mc.Perturbation
		}
	}
	return targets
}

func (r *Runner) RunMonteCarlo(ctx context.Context, base config.World, mc MonteCarloConfig) ([]Trial, error) {
	targets := mc.Targets(base.ControllerParams.Target)
	base.Controller = "ik_reach"

	results, err := sim.Parallel(ctx, len(targets), mc.Parallel, func(ctx context.Context, i int) (*sim.Result, error) {
		cfg := base
		cfg.ControllerParams.Target = targets[i]
		return r.RunWorld(ctx, cfg, nil)
	})
	if err != nil {
		return nil, err
	}

	trials := make([]Trial, len(results))
	for i, res := range results {
		e := res.Metrics["final_tracking_error"]
		trials[i] = Trial{
			ID:         i,
			Target:     targets[i],
			FinalError: e,
			Reached:    e <= mc.Tolerance,
			Digest:     res.Digest,
		}
	}
	return trials, nil
}

func MonteCarloStats(trials []Trial) (reached, missed int) {
	for _, t := range trials {
		if t.Reached {
			reached++
		} else {
			missed++
		}
	}
	return
}
