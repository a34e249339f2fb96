package main

import (
	"context"
	"fmt"

	"bibliography/internal/citation"
	"bibliography/internal/config"
	"bibliography/internal/hooks"
	"bibliography/internal/logging"
	"bibliography/internal/module"
	"bibliography/internal/plugin"
	"bibliography/internal/store"
	"bibliography/internal/suggest"
	"bibliography/internal/suggest/openlibrary"
	"bibliography/internal/vocabulary"
)

// app holds the components built from a loaded config.
type app struct {
	cfg        *config.Config
	store      *store.Store
	messenger  *module.Messenger
	events     *hooks.Events
	plugin     *plugin.Bibliography
	processor  citation.Processor
	view       *citation.Citation
	catalog    *citation.Catalog
	openLib    *openlibrary.Client
	suggesters *suggest.Registry
}

func openStore(c *config.Config) (*store.Store, error) {
	s, err := store.Open(c.Database.Driver, c.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return s, nil
}

// newProcessor returns the configured CSL processor, or nil when none is set.
func newProcessor(c *config.Config) (citation.Processor, error) {
	if c.Citation.ProcessorURL == "" {
		return nil, nil
	}
	p, err := citation.NewHTTPProcessor(c.Citation.ProcessorURL, c.GetProcessorTimeout())
	if err != nil {
		return nil, err
	}
	return p, nil
}

// definitions returns FaBiO followed by the extra configured vocabularies.
func definitions(c *config.Config) ([]*vocabulary.Definition, error) {
	fabio, err := vocabulary.FaBiO()
	if err != nil {
		return nil, err
	}
	defs := []*vocabulary.Definition{fabio}
	for _, path := range c.Install.Vocabularies {
		def, err := vocabulary.LoadDefinitionFile(path)
		if err != nil {
			return nil, fmt.Errorf("vocabulary %s: %w", path, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func newTranslator(c *config.Config) (module.Translator, error) {
	if c.Install.Catalog == "" {
		return module.IdentityTranslator, nil
	}
	return module.LoadCatalogFile(c.Install.Catalog)
}

// newApp opens the store and wires the plugin and its services.
func newApp(ctx context.Context, c *config.Config) (*app, error) {
	s, err := openStore(c)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: c, store: s, messenger: module.NewMessenger(), events: hooks.NewEvents()}
	if err := a.wire(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	c := a.cfg

	mgr, err := module.LoadManager(ctx, a.store, c.Present())
	if err != nil {
		return err
	}
	translator, err := newTranslator(c)
	if err != nil {
		return err
	}
	defs, err := definitions(c)
	if err != nil {
		return err
	}
	reconciler := module.NewReconciler(c.Module.Name, mgr, a.store, a.messenger).
		WithPredecessor(c.Install.Predecessor).
		WithTranslator(translator)
	installer := module.NewInstaller(reconciler, vocabulary.NewSeeder(a.store), defs...)

	a.processor, err = newProcessor(c)
	if err != nil {
		return err
	}
	a.view = citation.NewCitation(a.processor)
	a.catalog = citation.NewCatalog(c.Citation.StylesDir, c.Citation.LocalesDir)
	a.plugin = plugin.New(plugin.Options{
		Installer:     installer,
		Citation:      a.view,
		Catalog:       a.catalog,
		Settings:      a.store,
		SiteDefaults:  c.Citation.SiteSettings,
		BlockDefaults: c.Citation.BlockSettings,
	})
	a.plugin.AttachListeners(a.events)

	a.openLib = openlibrary.New(openlibrary.Options{
		BaseURL:    c.OpenLibrary.BaseURL,
		UserAgent:  c.UserAgent(),
		Timeout:    c.GetOpenLibraryTimeout(),
		CacheSize:  c.OpenLibrary.CacheSize,
		CacheTTL:   c.GetCacheTTL(),
		MaxResults: c.OpenLibrary.MaxResults,
		Processor:  a.processor,
		Citation:   c.Citation.SiteSettings.Options(),
	})
	a.suggesters = suggest.NewRegistry()
	a.suggesters.Register("openlibrary", a.openLib)

	logging.BootDebug("Wired plugin %s %s (store %s via %s)", c.Module.Name, c.Module.Version, a.store.Path(), a.store.Driver())
	return nil
}

func (a *app) Close() error {
	return a.store.Close()
}
