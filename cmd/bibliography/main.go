package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bibliography/internal/config"
	"bibliography/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	envFiles   []string

	// Loaded in PersistentPreRunE
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "bibliography",
	Short: "Bibliography plugin tools (install, vocabularies, citations, suggestions)",
	Long: `bibliography runs the lifecycle and services of the Bibliography plugin.

It replaces the older Citation plugin on install, seeds the FaBiO vocabulary,
renders citations through an external CSL processor, and suggests books from
OpenLibrary.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnv(envFiles...); err != nil {
			return err
		}
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			loaded.Logging.Level = "debug"
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		if err := logging.Initialize(loaded.Logging.Options()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg = loaded
		logging.BootDebug("Loaded config from %s", configPath)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the plugin name and version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cfg.Module.Name, cfg.Module.Version)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "bibliography.yaml", "Config file (.yaml or .toml)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "Env files loaded before the config")

	serveCmd.Flags().BoolVar(&watchConfig, "watch", false, "Reload the config file when it changes")
	suggestCmd.Flags().StringVarP(&suggestDataType, "datatype", "d", "openlibrary", "Suggester data type")

	vocabCmd.AddCommand(vocabListCmd)
	vocabCmd.AddCommand(vocabShowCmd)
	vocabCmd.AddCommand(vocabLoadCmd)

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(vocabCmd)
	rootCmd.AddCommand(modulesCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
