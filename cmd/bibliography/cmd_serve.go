package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"bibliography/internal/config"
	"bibliography/internal/logging"
	"bibliography/internal/server"
)

var watchConfig bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API (vocabularies, suggestions, citations, forms, metrics)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if watchConfig {
		w, err := config.NewWatcher(configPath, a.reload)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.New(server.Options{
		Store:        a.store,
		Settings:     a.store,
		Citation:     a.view,
		Suggesters:   a.suggesters,
		Events:       a.events,
		SiteDefaults: cfg.Citation.SiteSettings,
		Version:      cfg.Module.Version,
		Caches:       map[string]server.CacheStatser{"openlibrary": a.openLib},
	})
	return srv.Run(ctx, cfg.Server.Addr)
}

// reload applies the parts of a changed config that can change at runtime:
// logging and the style/locale catalog.
func (a *app) reload(c *config.Config) {
	if err := logging.Initialize(c.Logging.Options()); err != nil {
		logging.ConfigWarn("Keeping previous logger: %v", err)
	}
	a.catalog.Reload(c.Citation.StylesDir, c.Citation.LocalesDir)
	logging.Config("Config reloaded")
}
