package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bibliography/internal/hooks"
	"bibliography/internal/module"
)

// installCmd runs the post-install steps
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Run post-install: replace the Citation plugin and seed vocabularies",
	Long: `Runs the plugin's post-install hook against the configured database:
  1. Remove the install record of the superseded plugin, if any
  2. Seed FaBiO and any configured vocabulary, once
  3. Record the plugin itself as installed

Running it again is safe.`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	_, err = a.events.Trigger(ctx, hooks.IdentifierModuleManager, hooks.EventModuleInstallPost, a.plugin, nil)
	printMessages(out, a.messenger.Clear())
	if err != nil {
		return fmt.Errorf("post-install failed: %w", err)
	}

	if err := a.store.SaveModule(ctx, module.Entity{
		ID:       cfg.Module.Name,
		IsActive: true,
		Version:  cfg.Module.Version,
	}); err != nil {
		return err
	}

	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ %s %s installed", cfg.Module.Name, cfg.Module.Version)))
	return nil
}
