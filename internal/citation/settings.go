// Package citation holds the citation settings of the bibliography plugin,
// the form descriptors that edit them, and the rendering of items through an
// external CSL processor.
package citation

import (
	"context"
	"errors"
	"fmt"

	"bibliography/internal/store"
)

// DefaultStyle is the CSL style used when nothing else is configured.
const DefaultStyle = "chicago-fullnote-bibliography"

// Setting names shared by the main settings and the site settings.
const (
	SettingStyle  = "bibliography_csl_style"
	SettingLocale = "bibliography_csl_locale"
)

// SiteSettings are the citation defaults of the installation or of one site.
// An empty Locale lets the processor pick the style's default locale.
type SiteSettings struct {
	Style  string `yaml:"bibliography_csl_style" toml:"bibliography_csl_style" json:"bibliography_csl_style"`
	Locale string `yaml:"bibliography_csl_locale" toml:"bibliography_csl_locale" json:"bibliography_csl_locale"`
}

// BlockSettings configure one bibliography page block.
type BlockSettings struct {
	Heading          string `yaml:"heading" toml:"heading" json:"heading"`
	Style            string `yaml:"style" toml:"style" json:"style"`
	Locale           string `yaml:"locale" toml:"locale" json:"locale"`
	Query            string `yaml:"query" toml:"query" json:"query"`
	AppendSite       bool   `yaml:"append_site" toml:"append_site" json:"append_site"`
	AppendAccessDate bool   `yaml:"append_access_date" toml:"append_access_date" json:"append_access_date"`
	Bibliographic    bool   `yaml:"bibliographic" toml:"bibliographic" json:"bibliographic"`
	Template         string `yaml:"template" toml:"template" json:"template"`
}

// DefaultSiteSettings returns the shipped site defaults.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{Style: DefaultStyle}
}

// DefaultBlockSettings returns the shipped block defaults.
func DefaultBlockSettings() BlockSettings {
	return BlockSettings{Style: DefaultStyle}
}

// WithDefaults fills an empty style from DefaultStyle.
func (s SiteSettings) WithDefaults() SiteSettings {
	if s.Style == "" {
		s.Style = DefaultStyle
	}
	return s
}

// Options merges block settings over site settings. Empty block values
// inherit from the site.
func (b BlockSettings) Options(site SiteSettings) Options {
	site = site.WithDefaults()
	opts := Options{
		Style:            b.Style,
		Locale:           b.Locale,
		AppendSite:       b.AppendSite,
		AppendAccessDate: b.AppendAccessDate,
		Bibliographic:    b.Bibliographic,
	}
	if opts.Style == "" {
		opts.Style = site.Style
	}
	if opts.Locale == "" {
		opts.Locale = site.Locale
	}
	return opts
}

// Options returns rendering options for these site settings.
func (s SiteSettings) Options() Options {
	s = s.WithDefaults()
	return Options{Style: s.Style, Locale: s.Locale}
}

// SettingsReader reads JSON settings. *store.Store implements it.
type SettingsReader interface {
	Setting(ctx context.Context, name string, out any) error
	SiteSetting(ctx context.Context, siteID int64, name string, out any) error
}

// SettingsWriter writes JSON settings. *store.Store implements it.
type SettingsWriter interface {
	SetSetting(ctx context.Context, name string, value any) error
	SetSiteSetting(ctx context.Context, siteID int64, name string, value any) error
}

// ResolveSiteSettings reads the settings of a site, falling back per key to
// the main settings and then to defaults. A siteID of 0 reads only the main
// settings.
func ResolveSiteSettings(ctx context.Context, r SettingsReader, siteID int64, defaults SiteSettings) (SiteSettings, error) {
	out := defaults
	for _, key := range []struct {
		name string
		dst  *string
	}{
		{SettingStyle, &out.Style},
		{SettingLocale, &out.Locale},
	} {
		if err := resolveOne(ctx, r, siteID, key.name, key.dst); err != nil {
			return SiteSettings{}, err
		}
	}
	return out.WithDefaults(), nil
}

func resolveOne(ctx context.Context, r SettingsReader, siteID int64, name string, dst *string) error {
	var v string
	if siteID != 0 {
		err := r.SiteSetting(ctx, siteID, name, &v)
		if err == nil && v != "" {
			*dst = v
			return nil
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("failed to read site setting %s: %w", name, err)
		}
	}
	err := r.Setting(ctx, name, &v)
	switch {
	case err == nil:
		if v != "" {
			*dst = v
		}
		return nil
	case errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("failed to read setting %s: %w", name, err)
	}
}

// SaveSiteSettings writes settings to the main settings (siteID 0) or a site.
func SaveSiteSettings(ctx context.Context, w SettingsWriter, siteID int64, s SiteSettings) error {
	values := map[string]string{SettingStyle: s.Style, SettingLocale: s.Locale}
	for _, name := range []string{SettingStyle, SettingLocale} {
		var err error
		if siteID == 0 {
			err = w.SetSetting(ctx, name, values[name])
		} else {
			err = w.SetSiteSetting(ctx, siteID, name, values[name])
		}
		if err != nil {
			return fmt.Errorf("failed to save %s: %w", name, err)
		}
	}
	return nil
}
