// Package plugin is the bibliography plugin as seen by the host: its
// post-install entry point and the listeners it attaches to host events.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"

	"bibliography/internal/citation"
	"bibliography/internal/hooks"
	"bibliography/internal/logging"
	"bibliography/internal/module"
)

// Event parameters read by the listeners.
const (
	ParamItem      = "item"
	ParamSiteID    = "site_id"
	ParamSiteTitle = "site_title"
	ParamSiteURL   = "site_url"
	ParamBlock     = "block"
)

// ErrUnknownForm is returned by BuildForm for a form the plugin does not extend.
var ErrUnknownForm = errors.New("unknown form")

// Form is the host form a settings listener adds its elements to.
type Form struct {
	Name      string                 `json:"name"`
	Fieldsets []citation.Fieldset    `json:"fieldsets"`
	Filters   []citation.InputFilter `json:"input_filters,omitempty"`
}

// Fieldset returns the fieldset called name.
func (f *Form) Fieldset(name string) (citation.Fieldset, bool) {
	for _, fs := range f.Fieldsets {
		if fs.Name == name {
			return fs, true
		}
	}
	return citation.Fieldset{}, false
}

// Options wires the plugin to its collaborators.
type Options struct {
	Installer *module.Installer
	Citation  *citation.Citation
	Catalog   *citation.Catalog
	Settings  citation.SettingsReader

	SiteDefaults  citation.SiteSettings
	BlockDefaults citation.BlockSettings
}

// Bibliography is the plugin.
type Bibliography struct {
	installer     *module.Installer
	citation      *citation.Citation
	catalog       *citation.Catalog
	settings      citation.SettingsReader
	siteDefaults  citation.SiteSettings
	blockDefaults citation.BlockSettings
}

// New creates the plugin. A nil citation renders plain labels and a nil
// catalog uses the built-in styles and locales.
func New(opts Options) *Bibliography {
	if opts.Citation == nil {
		opts.Citation = citation.NewCitation(nil)
	}
	if opts.Catalog == nil {
		opts.Catalog = citation.NewCatalog("", "")
	}
	return &Bibliography{
		installer:     opts.Installer,
		citation:      opts.Citation,
		catalog:       opts.Catalog,
		settings:      opts.Settings,
		siteDefaults:  opts.SiteDefaults.WithDefaults(),
		blockDefaults: opts.BlockDefaults,
	}
}

// PostInstall runs predecessor reconciliation and vocabulary seeding.
func (b *Bibliography) PostInstall(ctx context.Context) error {
	if b.installer == nil {
		return fmt.Errorf("plugin has no installer")
	}
	return b.installer.OnPostInstall(ctx)
}

// AttachListeners subscribes the plugin to the host events it handles.
func (b *Bibliography) AttachListeners(events *hooks.Events) {
	events.Attach(hooks.IdentifierModuleManager, hooks.EventModuleInstallPost,
		func(ctx context.Context, _ *hooks.Event) error { return b.PostInstall(ctx) })

	events.Attach(hooks.IdentifierItemShow, hooks.EventViewShowAfter, b.handleViewShowAfter)

	for _, id := range []string{hooks.IdentifierSettingForm, hooks.IdentifierSiteSettingsForm, hooks.IdentifierBlockForm} {
		events.Attach(id, hooks.EventFormAddElements, b.handleFormAddElements)
	}
	for _, id := range []string{hooks.IdentifierSettingForm, hooks.IdentifierSiteSettingsForm} {
		events.Attach(id, hooks.EventFormAddFilters, b.handleFormAddInputFilters)
	}
	logging.BootDebug("Bibliography listeners attached")
}

// siteSettings resolves the settings of the event's site, or the main
// settings when there is none.
func (b *Bibliography) siteSettings(ctx context.Context, e *hooks.Event) (citation.SiteSettings, error) {
	if b.settings == nil {
		return b.siteDefaults, nil
	}
	siteID, _ := e.Param(ParamSiteID).(int64)
	return citation.ResolveSiteSettings(ctx, b.settings, siteID, b.siteDefaults)
}

// handleViewShowAfter writes the citation of the shown item to the view.
func (b *Bibliography) handleViewShowAfter(ctx context.Context, e *hooks.Event) error {
	w, ok := e.Target.(io.Writer)
	if !ok {
		return fmt.Errorf("view.show.after target is %T, not a writer", e.Target)
	}
	item, ok := e.Param(ParamItem).(citation.Item)
	if !ok {
		return fmt.Errorf("view.show.after has no item")
	}

	site, err := b.siteSettings(ctx, e)
	if err != nil {
		return err
	}
	title, _ := e.Param(ParamSiteTitle).(string)
	url, _ := e.Param(ParamSiteURL).(string)

	out, err := b.citation.Render(ctx, item, citation.ViewOptions{
		Options:   site.Options(),
		Tag:       citation.DefaultTag,
		SiteTitle: title,
		SiteURL:   url,
	})
	if err != nil {
		return fmt.Errorf("failed to render citation of %s: %w", item.ID, err)
	}
	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("failed to write citation: %w", err)
	}
	return nil
}

func (b *Bibliography) handleFormAddElements(ctx context.Context, e *hooks.Event) error {
	form, ok := e.Target.(*Form)
	if !ok {
		return fmt.Errorf("form.add_elements target is %T, not a form", e.Target)
	}

	site, err := b.siteSettings(ctx, e)
	if err != nil {
		return err
	}
	block := b.blockDefaults
	if v, ok := e.Param(ParamBlock).(citation.BlockSettings); ok {
		block = v
	}

	fs, err := citation.FormFieldset(form.Name, b.catalog, site, block)
	if err != nil {
		return err
	}
	form.Fieldsets = append(form.Fieldsets, fs)
	return nil
}

func (b *Bibliography) handleFormAddInputFilters(_ context.Context, e *hooks.Event) error {
	form, ok := e.Target.(*Form)
	if !ok {
		return fmt.Errorf("form.add_input_filters target is %T, not a form", e.Target)
	}
	filters := citation.SettingsInputFilters()
	form.Filters = append(form.Filters, filters...)
	for i, fs := range form.Fieldsets {
		if fs.Name == citation.FieldsetName {
			form.Fieldsets[i] = citation.ApplyInputFilters(fs, filters)
		}
	}
	return nil
}

var formIdentifiers = map[string]string{
	citation.FormSettings:     hooks.IdentifierSettingForm,
	citation.FormSiteSettings: hooks.IdentifierSiteSettingsForm,
	citation.FormBlock:        hooks.IdentifierBlockForm,
}

// BuildForm assembles a host form the way the admin UI does: it triggers
// the element and input filter events of the form's identifier.
func BuildForm(ctx context.Context, events *hooks.Events, name string, params map[string]any) (*Form, error) {
	id, ok := formIdentifiers[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownForm, name)
	}
	form := &Form{Name: name}
	if _, err := events.Trigger(ctx, id, hooks.EventFormAddElements, form, params); err != nil {
		return nil, err
	}
	if _, err := events.Trigger(ctx, id, hooks.EventFormAddFilters, form, params); err != nil {
		return nil, err
	}
	return form, nil
}
