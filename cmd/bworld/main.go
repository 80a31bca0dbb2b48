package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/assets"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/config"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/world"
)

const defaultPreset = "two_link_reach"

var errNoArm = errors.New("bworld: world has no arm")

// app holds the persistent flags and per-invocation resources.
type app struct {
	dataDir   string
	assetsDir string
	verbose   bool

	out     io.Writer
	log     *zap.Logger
	cleanup []func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	a := &app{log: zap.NewNop()}

	root := &cobra.Command{
		Use:           "bworld",
		Short:         "articulated-world simulation wrapper",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.out = cmd.OutOrStdout()
			return a.setupLogger()
		},
	}
	root.PersistentFlags().StringVar(&a.dataDir, "data", ".bworld", "run storage directory")
	root.PersistentFlags().StringVar(&a.assetsDir, "assets", "", "assets directory (default: bundled assets)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "development logging")

	root.AddCommand(
		newRunCommand(a),
		newIKCommand(a),
		newJacobianCommand(a),
		newListCommand(a),
		newPlotCommand(a),
		newExportCSVCommand(a),
		newExportJSONCommand(a),
		newLiveCommand(a),
		newViewCommand(a),
		newPresetsCommand(a),
		newBenchCommand(a),
		newTuneCommand(a),
		newScenarioCommand(a),
		newMonteCarloCommand(a),
		newAnalyzeCommand(a),
		newExportSVGCommand(a),
	)
	// PersistentPostRun is skipped on error, so release resources here.
	for _, c := range root.Commands() {
		run := c.RunE
		c.RunE = func(cmd *cobra.Command, args []string) error {
			defer a.close()
			return run(cmd, args)
		}
	}
	return root
}

func (a *app) setupLogger() error {
	var (
		log *zap.Logger
		err error
	)
	if a.verbose {
		log, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		log, err = cfg.Build()
	}
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	a.log = log
	a.cleanup = append(a.cleanup, func() { _ = log.Sync() })
	return nil
}

func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}

// assets returns the --assets directory, unpacking the bundled files into
// a temporary directory when none was given.
func (a *app) assets() (string, error) {
	if a.assetsDir != "" {
		return a.assetsDir, nil
	}
	tmp, err := os.MkdirTemp("", "bworld-assets-")
	if err != nil {
		return "", err
	}
	a.cleanup = append(a.cleanup, func() { os.RemoveAll(tmp) })
	if _, err := assets.Extract(tmp); err != nil {
		return "", err
	}
	a.assetsDir = tmp
	return tmp, nil
}

// worldConfig resolves a preset or a config file (the file wins) and
// points it at the assets directory.
func (a *app) worldConfig(preset, file string) (*config.World, string, error) {
	var (
		cfg  *config.World
		name = preset
	)
	if file != "" {
		loaded, err := config.LoadWorld(file)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg, name = loaded, file
	} else {
		if name == "" {
			name = defaultPreset
		}
		cfg = config.GetWorldPreset(name)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListWorldPresets())
		}
	}
	if a.assetsDir != "" || cfg.AssetsDir == "" || !dirExists(cfg.AssetsDir) {
		dir, err := a.assets()
		if err != nil {
			return nil, "", err
		}
		cfg.AssetsDir = dir
	}
	return cfg, name, nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// openWorld builds the default scene for cfg and requires at least one arm.
func (a *app) openWorld(cfg *config.World) (*world.World, error) {
	w, err := world.New(*cfg, world.WithDefaultScene(), world.WithLogger(a.log))
	if err != nil {
		return nil, err
	}
	if len(w.Arms()) == 0 {
		w.Close()
		return nil, errNoArm
	}
	a.cleanup = append(a.cleanup, func() { w.Close() })
	return w, nil
}
