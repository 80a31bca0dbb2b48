package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/automation"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/optim"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/storage"
)

func newTuneCommand(a *app) *cobra.Command {
	var (
		f        runFlags
		axes     []string
		metric   string
		parallel int
	)
	cmd := &cobra.Command{
		Use:   "tune [preset]",
		Short: "grid-search controller parameters against a metric",
		Example: "  bworld tune --controller pid --time 3 --metric final_tracking_error \\\n" +
			"    --param Kp=10,20,40 --param Kd=1,2,4",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(axes) == 0 {
				return fmt.Errorf("at least one --param is required")
			}
			names := make([]string, len(axes))
			ranges := make([][]float64, len(axes))
			for i, ax := range axes {
				var err error
				if names[i], ranges[i], err = optim.ParseAxis(ax); err != nil {
					return err
				}
			}

			preset := f.preset
			if len(args) == 1 {
				preset = args[0]
			}
			cfg, name, err := a.worldConfig(preset, f.configFile)
			if err != nil {
				return err
			}
			if err := f.apply(cmd, cfg); err != nil {
				return err
			}

			runner := automation.NewRunner("", automation.WithLogger(a.log))
			g := optim.NewGridSearch(names, ranges)
			fmt.Fprintf(a.out, "tuning %s on %s: %d candidates\n\n", cfg.Controller, name, len(g.Candidates()))
			best, trials, err := g.Search(cmd.Context(), parallel, func(ctx context.Context, p map[string]float64) (*sim.Result, error) {
				return runner.RunWorld(ctx, *cfg, p)
			}, metric)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\n", strings.Join(names, "\t"), strings.ToUpper(metric))
			for _, tr := range trials {
				for _, n := range names {
					fmt.Fprintf(w, "%g\t", tr.Params[n])
				}
				fmt.Fprintf(w, "%.6f\n", tr.Value)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "\nbest: %s = %.6f\n", formatParams(best.Params), best.Value)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringArrayVar(&axes, "param", nil, "parameter axis name=v1,v2,... (repeatable)")
	cmd.Flags().StringVar(&metric, "metric", "final_tracking_error", "metric to minimise")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "max concurrent runs (0 = unlimited)")
	return cmd
}

func formatParams(p map[string]float64) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, p[k])
	}
	return strings.Join(parts, " ")
}

func newScenarioCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scenario [file.yaml]",
		Short: "run a scripted sequence of simulations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}
			dir, err := a.assets()
			if err != nil {
				return err
			}
			runner := automation.NewRunner(dir,
				automation.WithLogger(a.log),
				automation.WithStore(storage.New(a.dataDir)))

			fmt.Fprintf(a.out, "scenario: %s (%d steps)\n", sc.Name, len(sc.Steps))
			results, runErr := runner.RunScenario(cmd.Context(), sc)

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STEP\tSTEPS\tFINAL ERR\tEFFORT\tRUN")
			for _, r := range results {
				fmt.Fprintf(w, "%s\t%d\t%.4f\t%.4f\t%s\n",
					r.Step,
					r.Result.StepsTaken,
					r.Result.Metrics["final_tracking_error"],
					r.Result.Metrics["control_effort"],
					r.RunID,
				)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return runErr
		},
	}
}

func newMonteCarloCommand(a *app) *cobra.Command {
	var (
		f  runFlags
		mc automation.MonteCarloConfig
	)
	cmd := &cobra.Command{
		Use:   "montecarlo [preset]",
		Short: "reach randomly perturbed targets and count successes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			preset := f.preset
			if len(args) == 1 {
				preset = args[0]
			}
			cfg, name, err := a.worldConfig(preset, f.configFile)
			if err != nil {
				return err
			}
			if err := f.apply(cmd, cfg); err != nil {
				return err
			}
			if mc.Trials < 1 {
				return fmt.Errorf("--trials must be positive")
			}

			runner := automation.NewRunner("", automation.WithLogger(a.log))
			fmt.Fprintf(a.out, "monte carlo on %s: %d trials, ±%.3fm around %v\n\n",
				name, mc.Trials, mc.Perturbation, cfg.ControllerParams.Target)
			trials, err := runner.RunMonteCarlo(cmd.Context(), *cfg, mc)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TRIAL\tTARGET\tFINAL ERR\tREACHED")
			for _, tr := range trials {
				fmt.Fprintf(w, "%d\t[%.3f %.3f %.3f]\t%.4f\t%v\n",
					tr.ID, tr.Target[0], tr.Target[1], tr.Target[2], tr.FinalError, tr.Reached)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			reached, missed := automation.MonteCarloStats(trials)
			fmt.Fprintf(a.out, "\nreached: %d  missed: %d\n", reached, missed)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().IntVar(&mc.Trials, "trials", 10, "number of trials")
	cmd.Flags().Float64Var(&mc.Perturbation, "perturb", 0.05, "max target offset per axis (m)")
	cmd.Flags().Float64Var(&mc.Tolerance, "tolerance", 0.02, "final distance counted as reached (m)")
	cmd.Flags().Int64Var(&mc.Seed, "seed", 0, "random seed (0 = time based)")
	cmd.Flags().IntVar(&mc.Parallel, "parallel", 0, "max concurrent runs (0 = unlimited)")
	return cmd
}
