package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/automation"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
)

func newBenchCommand(a *app) *cobra.Command {
	var (
		f        runFlags
		runs     int
		parallel int
	)
	cmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "run independent worlds concurrently and compare their digests",
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
			if runs < 1 {
				return fmt.Errorf("--runs must be positive")
			}

			fmt.Fprintf(a.out, "benchmarking %s: %d runs, %d parallel\n\n", name, runs, parallel)
			runner := automation.NewRunner("", automation.WithLogger(a.log))
			elapsed := make([]time.Duration, runs)
			start := time.Now()
			results, err := sim.Parallel(cmd.Context(), runs, parallel, func(ctx context.Context, i int) (*sim.Result, error) {
				t0 := time.Now()
				res, err := runner.RunWorld(ctx, *cfg, nil)
				elapsed[i] = time.Since(t0)
				return res, err
			})
			if err != nil {
				return err
			}
			total := time.Since(start)

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tSTEPS\tTIME\tSTEPS/SEC\tDIGEST")
			same := true
			for i, res := range results {
				fmt.Fprintf(w, "%d\t%d\t%v\t%.0f\t%016x\n",
					i, res.StepsTaken, elapsed[i], float64(res.StepsTaken)/elapsed[i].Seconds(), res.Digest)
				same = same && res.Digest == results[0].Digest
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "\ntotal: %v\n", total)
			fmt.Fprintf(a.out, "deterministic: %v\n", same)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().IntVar(&runs, "runs", 4, "number of runs")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "max concurrent runs (0 = unlimited)")
	return cmd
}
