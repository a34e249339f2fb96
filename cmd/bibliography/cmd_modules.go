package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bibliography/internal/module"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List host module registrations and their states",
	Args:  cobra.NoArgs,
	RunE:  runModules,
}

func stateStyle(s module.State) string {
	switch s {
	case module.StateActive:
		return successStyle.Render(string(s))
	case module.StateNotActive, module.StateNotInstalled:
		return mutedStyle.Render(string(s))
	case module.StateNeedsUpgrade:
		return warningStyle.Render(string(s))
	default:
		return errorStyle.Render(string(s))
	}
}

func runModules(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	mgr, err := module.LoadManager(ctx, s, cfg.Present())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	regs := mgr.Modules()
	if len(regs) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No modules."))
		return nil
	}
	for _, r := range regs {
		fmt.Fprintf(out, "%-24s %s\n", r.ID(), stateStyle(r.State()))
	}
	return nil
}
