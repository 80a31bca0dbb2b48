package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/config"
	"github.com/zhuyifengzju/bullet-sim-wrapper/internal/control"
)

func newPresetsCommand(a *app) *cobra.Command {
	var dump string
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "list arm and world presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dump != "" {
				cfg := config.GetWorldPreset(dump)
				if cfg == nil {
					return fmt.Errorf("unknown preset: %s", dump)
				}
				enc := yaml.NewEncoder(a.out)
				enc.SetIndent(2)
				if err := enc.Encode(cfg); err != nil {
					return err
				}
				return enc.Close()
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WORLD\tARMS\tCTRL\tDURATION")
			for _, name := range config.ListWorldPresets() {
				cfg := config.GetWorldPreset(name)
				arms := make([]string, len(cfg.Arms))
				for i, arm := range cfg.Arms {
					arms[i] = arm.URDFName
				}
				fmt.Fprintf(w, "%s\t%v\t%s\t%.1fs\n", name, arms, cfg.Controller, cfg.Duration)
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "ARM\tURDF\tEE\tJOINTS")
			for _, name := range config.ListArmPresets() {
				arm, _ := config.GetArmPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", name, arm.URDFName, arm.EEName, len(arm.Arm.JointNames))
			}
			fmt.Fprintln(w)
			fmt.Fprintf(w, "controllers: %v\n", control.Names())
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&dump, "dump", "", "print a world preset as yaml")
	return cmd
}
