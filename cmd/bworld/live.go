package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/export"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/render"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/render/term"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/sim"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/tui"
)

func newLiveCommand(a *app) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "interactive terminal simulator",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetsDir, err := a.assets()
			if err != nil {
				return err
			}
			opts := []tui.Option{tui.WithLogger(a.log)}
			if len(args) == 1 || f.preset != "" || f.configFile != "" {
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
				opts = append(opts, tui.WithWorld(name, cfg))
			}

			m := tui.NewApp(assetsDir, opts...)
			final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
			if fm, ok := final.(tui.Model); ok {
				fm.Close()
			}
			return err
		},
	}
	f.register(cmd)
	return cmd
}

// pacer holds each step back until wall time catches up with simulated
// time.
type pacer struct {
	start time.Time
	sleep func(time.Duration)
}

func (p *pacer) OnStep(s sim.Sample) {
	if p.start.IsZero() {
		p.start = time.Now()
	}
	ahead := time.Duration(s.Time*float64(time.Second)) - time.Since(p.start)
	if ahead > 0 {
		p.sleep(ahead)
	}
}

func newViewCommand(a *app) *cobra.Command {
	var (
		f             runFlags
		fps           int
		width, height int
		fast          bool
		svgOut        string
	)
	cmd := &cobra.Command{
		Use:   "view [preset]",
		Short: "run a simulation and draw it to the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			preset := f.preset
			if len(args) == 1 {
				preset = args[0]
			}
			cfg, _, err := a.worldConfig(preset, f.configFile)
			if err != nil {
				return err
			}
			if err := f.apply(cmd, cfg); err != nil {
				return err
			}
			w, _, s, err := a.newSimulation(cfg)
			if err != nil {
				return err
			}
			info, err := w.Physics().DebugVisualizerInfo()
			if err != nil {
				return err
			}

			scene := term.NewScene()
			adapter := render.NewAdapter(w.Physics(), scene, render.WithLogger(a.log))
			cam := term.NewCamera(info.DebugCameraConfig)
			live := tui.NewLiveRenderer(a.out, adapter, scene, cam, width, height, fps)
			if !fast {
				s.AddObserver(&pacer{sleep: time.Sleep})
			}
			s.AddObserver(live)

			live.Start()
			result, err := s.Run(cmd.Context(), cfg.Duration)
			live.Stop()
			if err != nil {
				return err
			}
			if err := live.Err(); err != nil {
				return fmt.Errorf("render: %w", err)
			}
			fmt.Fprintf(a.out, "%d steps, %d frames, digest %x\n", result.StepsTaken, live.Frames(), result.Digest)
			if svgOut != "" {
				return writeFrameSVG(svgOut, adapter, scene, cam, width, height)
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().IntVar(&fps, "fps", 30, "frames per second")
	cmd.Flags().IntVar(&width, "width", 80, "canvas width in cells")
	cmd.Flags().IntVar(&height, "height", 24, "canvas height in cells")
	cmd.Flags().BoolVar(&fast, "fast", false, "do not pace to wall-clock time")
	cmd.Flags().StringVar(&svgOut, "svg", "", "write the final frame to this svg file")
	return cmd
}

func writeFrameSVG(path string, adapter *render.Adapter, scene *term.Scene, cam *term.Camera, width, height int) error {
	if err := adapter.Sync(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.CanvasToSVG(f, scene.Render(width, height, cam), 4); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
