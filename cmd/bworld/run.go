package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/config"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/control"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/metrics"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/robot"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/storage"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/world"
)

type runFlags struct {
	preset     string
	configFile string
	duration   float64
	controller string
	kp, ki, kd float64
	target     []float64
	save       bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.preset, "preset", "", "world preset (default "+defaultPreset+")")
	cmd.Flags().StringVar(&f.configFile, "config", "", "world config file (yaml)")
	cmd.Flags().Float64Var(&f.duration, "time", 0, "duration in seconds (default from config)")
	cmd.Flags().StringVar(&f.controller, "controller", "", fmt.Sprintf("controller %v", control.Names()))
	cmd.Flags().Float64Var(&f.kp, "kp", config.DefaultKp, "pid/lqr kp")
	cmd.Flags().Float64Var(&f.ki, "ki", config.DefaultKi, "pid ki")
	cmd.Flags().Float64Var(&f.kd, "kd", config.DefaultKd, "pid/lqr kd")
	cmd.Flags().Float64SliceVar(&f.target, "target", nil, "ik target x,y,z")
}

// apply lets explicitly set flags override the config.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.World) error {
	if f.duration > 0 {
		cfg.Duration = f.duration
	}
	if f.controller != "" {
		cfg.Controller = f.controller
	}
	if cmd.Flags().Changed("kp") {
		cfg.ControllerParams.Kp = f.kp
	}
	if cmd.Flags().Changed("ki") {
		cfg.ControllerParams.Ki = f.ki
	}
	if cmd.Flags().Changed("kd") {
		cfg.ControllerParams.Kd = f.kd
	}
	if f.target != nil {
		if len(f.target) != 3 {
			return fmt.Errorf("--target needs 3 values, got %d", len(f.target))
		}
		cfg.ControllerParams.Target = config.Vec3{f.target[0], f.target[1], f.target[2]}
	}
	return nil
}

func newRunCommand(a *app) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run a controller against a world and store the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSimulation(cmd, &f)
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&f.save, "save", true, "store the run")
	return cmd
}

func addMetrics(s *sim.Simulator, arm *robot.Arm) {
	for _, m := range metrics.Default(arm) {
		s.AddMetric(m)
	}
}

// newSimulation opens the world for cfg and wires its first arm to the
// configured controller.
func (a *app) newSimulation(cfg *config.World) (*world.World, *robot.Arm, *sim.Simulator, error) {
	w, err := a.openWorld(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	arm := w.Arms()[0]
	ctrl, err := control.New(cfg.Controller, arm, cfg.ControllerParams)
	if err != nil {
		return nil, nil, nil, err
	}
	return w, arm, sim.New(w, arm, ctrl, sim.WithLogger(a.log)), nil
}

func (a *app) runSimulation(cmd *cobra.Command, f *runFlags) error {
	cfg, name, err := a.worldConfig(f.preset, f.configFile)
	if err != nil {
		return err
	}
	if err := f.apply(cmd, cfg); err != nil {
		return err
	}

	_, arm, s, err := a.newSimulation(cfg)
	if err != nil {
		return err
	}
	addMetrics(s, arm)

	fmt.Fprintf(a.out, "running %s (%s, %.2fs)...\n", name, cfg.Controller, cfg.Duration)
	start := time.Now()
	result, err := s.Run(cmd.Context(), cfg.Duration)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	a.log.Info("run complete", zap.String("world", name), zap.Duration("elapsed", elapsed))

	fmt.Fprintf(a.out, "completed in %v\n", elapsed)
	if f.save {
		st := storage.New(a.dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(storage.RunMetadata{
			Preset:     name,
			Arm:        arm.Config().URDFName,
			JointNames: arm.Config().Arm.JointNames,
			Dt:         cfg.TimeStep,
			Duration:   cfg.Duration,
			Controller: cfg.Controller,
		}, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "run id: %s\n", runID)
	}
	fmt.Fprintf(a.out, "steps: %d\n", result.StepsTaken)
	fmt.Fprintf(a.out, "digest: %x\n", result.Digest)
	fmt.Fprintln(a.out, "\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for n := range result.Metrics {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(a.out, "  %s: %.6f\n", n, result.Metrics[n])
	}
	return nil
}
