package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/analysis"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/export"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/storage"
)

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(a.dataDir).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(a.out, "no runs found")
				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPRESET\tTIME\tDURATION\tDT\tCTRL\tSTEPS")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%d\n",
					run.ID,
					run.Preset,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					run.Duration,
					run.Dt,
					run.Controller,
					run.Steps,
				)
			}
			return w.Flush()
		},
	}
}

func newPlotCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot joint and end-effector traces of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, samples, err := a.loadRun(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "run: %s\n", meta.ID)
			fmt.Fprintf(a.out, "preset: %s\n", meta.Preset)
			fmt.Fprintf(a.out, "samples: %d\n\n", len(samples))

			for i, name := range meta.JointNames {
				plot(a, samples, name+" (rad)", func(s sim.Sample) float64 { return s.Q[i] })
			}
			axes := []string{"x", "y", "z"}
			for i, axis := range axes {
				plot(a, samples, "ee "+axis+" (m)", func(s sim.Sample) float64 { return s.EE.Position.Slice()[i] })
			}
			return nil
		},
	}
}

func plot(a *app, samples []sim.Sample, caption string, value func(sim.Sample) float64) {
	data := make([]float64, len(samples))
	for i, s := range samples {
		data[i] = value(s)
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Fprintln(a.out, graph)
	fmt.Fprintln(a.out)
}

func newExportCSVCommand(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples as csv",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(a.dataDir)
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			samples, err := st.LoadSamples(meta.ID)
			if err != nil {
				return err
			}
			if out == "" {
				return storage.WriteCSV(a.out, len(meta.JointNames), samples)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := storage.WriteCSV(f, len(meta.JointNames), samples); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "exported %d samples to %s\n", len(samples), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newExportJSONCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and samples as json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(a.dataDir)
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			samples, err := st.LoadSamples(meta.ID)
			if err != nil {
				return err
			}
			return storage.ExportJSON(a.out, *meta, samples)
		},
	}
}

func (a *app) loadRun(id string) (*storage.RunMetadata, []sim.Sample, error) {
	st := storage.New(a.dataDir)
	meta, err := st.Load(id)
	if err != nil {
		return nil, nil, err
	}
	samples, err := st.LoadSamples(meta.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(samples) == 0 {
		return nil, nil, fmt.Errorf("no data in run %s", meta.ID)
	}
	return meta, samples, nil
}

func newAnalyzeCommand(a *app) *cobra.Command {
	var (
		joint   int
		maxFreq float64
	)
	cmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis and phase portrait of a joint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, samples, err := a.loadRun(args[0])
			if err != nil {
				return err
			}
			q, err := analysis.Joint(samples, joint)
			if err != nil {
				return err
			}
			ps, err := analysis.PowerSpectrum(q, meta.Dt)
			if err != nil {
				return err
			}
			label := fmt.Sprintf("joint %d", joint)
			if joint < len(meta.JointNames) {
				label = meta.JointNames[joint]
			}

			fmt.Fprintf(a.out, "frequency analysis: %s\n", meta.ID)
			fmt.Fprintf(a.out, "joint: %s\n\n", label)
			band := ps.Band(maxFreq)
			if len(band) > 1 {
				fmt.Fprintln(a.out, asciigraph.Plot(band,
					asciigraph.Height(12),
					asciigraph.Width(80),
					asciigraph.Caption(fmt.Sprintf("power spectrum 0-%.1f Hz (%s)", maxFreq, label)),
				))
				fmt.Fprintln(a.out)
			}
			freq, power := ps.Dominant()
			fmt.Fprintf(a.out, "dominant frequency: %.3f Hz (power %.3f)\n", freq, power)
			if freq > 0 {
				fmt.Fprintf(a.out, "period: %.3f s\n", 1/freq)
			}

			pts, err := analysis.PhasePortrait(samples, joint)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "\nphase portrait (q vs qd):\n%s", analysis.Plot(pts, 60, 15, "").String())
			return nil
		},
	}
	cmd.Flags().IntVar(&joint, "joint", 0, "joint index")
	cmd.Flags().Float64Var(&maxFreq, "max-freq", 5, "highest frequency plotted (Hz)")
	return cmd
}

func newExportSVGCommand(a *app) *cobra.Command {
	var (
		out   string
		kind  string
		joint int
		size  int
	)
	cmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw the end-effector path or a phase portrait as svg",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, samples, err := a.loadRun(args[0])
			if err != nil {
				return err
			}
			var pts []analysis.Point
			switch kind {
			case "ee":
				pts = analysis.EEPath(samples)
			case "phase":
				if pts, err = analysis.PhasePortrait(samples, joint); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown --kind %q (ee, phase)", kind)
			}
			if out == "" {
				return export.PathToSVG(a.out, pts, size, size, "#00ffff")
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := export.PathToSVG(f, pts, size, size, "#00ffff"); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&kind, "kind", "ee", "ee or phase")
	cmd.Flags().IntVar(&joint, "joint", 0, "joint index for --kind phase")
	cmd.Flags().IntVar(&size, "size", 400, "image size in pixels")
	return cmd
}
