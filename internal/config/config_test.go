package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliography/internal/citation"
	"bibliography/internal/module"
)

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"BIBLIOGRAPHY_DB", "BIBLIOGRAPHY_DB_DRIVER", "BIBLIOGRAPHY_ADDR", "OPENLIBRARY_URL", "CITEPROC_URL", "BIBLIOGRAPHY_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

// =============================================================================
// DEFAULTS / LOAD / SAVE
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "Bibliography", cfg.Module.Name)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, module.LegacyModuleName, cfg.Install.Predecessor)
	assert.Equal(t, citation.DefaultStyle, cfg.Citation.SiteSettings.Style)
	assert.Equal(t, "", cfg.Citation.SiteSettings.Locale)
	assert.Equal(t, "https://openlibrary.org", cfg.OpenLibrary.BaseURL)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bibliography.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: sqlite
  path: /var/lib/bibliography.db
host:
  modules:
    - name: Citation
      version: "3.3.0"
citation:
  site_settings:
    bibliography_csl_style: apa
  block_settings:
    append_site: true
openlibrary:
  max_results: 5
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/var/lib/bibliography.db", cfg.Database.Path)
	assert.Equal(t, []module.Present{{Name: "Citation", Version: "3.3.0"}}, cfg.Present())
	assert.Equal(t, "apa", cfg.Citation.SiteSettings.Style)
	assert.True(t, cfg.Citation.BlockSettings.AppendSite)
	assert.Equal(t, citation.DefaultStyle, cfg.Citation.BlockSettings.Style, "unset keys keep defaults")
	assert.Equal(t, 5, cfg.OpenLibrary.MaxResults)
	assert.Equal(t, 512, cfg.OpenLibrary.CacheSize)
}

func TestLoad_TOML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bibliography.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
addr = ":9000"

[citation]
processor_url = "http://citeproc:8085"
processor_timeout = "3s"

[citation.site_settings]
bibliography_csl_locale = "fr-FR"

[[host.modules]]
name = "Mapping"
version = "1.0"
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "fr-FR", cfg.Citation.SiteSettings.Locale)
	assert.Equal(t, citation.DefaultStyle, cfg.Citation.SiteSettings.Style)
	assert.Equal(t, 3*time.Second, cfg.GetProcessorTimeout())
	assert.Equal(t, []module.Present{{Name: "Mapping", Version: "1.0"}}, cfg.Present())
}

func TestLoad_ParseError(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [oops"), 0644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestConfig_SaveLoadRoundTrip(t *testing.T) {
	clearEnv(t)
	for _, name := range []string{"config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := DefaultConfig()
			cfg.Server.Addr = ":7777"
			cfg.Citation.BlockSettings.Heading = "References"
			cfg.Host.Modules = []HostModule{{Name: "Citation", Version: "1"}}

			require.NoError(t, cfg.Save(path))
			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, ":7777", loaded.Server.Addr)
			assert.Equal(t, "References", loaded.Citation.BlockSettings.Heading)
			assert.Equal(t, cfg.Host.Modules, loaded.Host.Modules)
		})
	}
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

func TestConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BIBLIOGRAPHY_DB", "/tmp/override.db")
	t.Setenv("BIBLIOGRAPHY_DB_DRIVER", "sqlite")
	t.Setenv("BIBLIOGRAPHY_ADDR", ":1234")
	t.Setenv("OPENLIBRARY_URL", "http://ol.local")
	t.Setenv("CITEPROC_URL", "http://citeproc.local")
	t.Setenv("BIBLIOGRAPHY_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, ":1234", cfg.Server.Addr)
	assert.Equal(t, "http://ol.local", cfg.OpenLibrary.BaseURL)
	assert.Equal(t, "http://citeproc.local", cfg.Citation.ProcessorURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that is set, even to "".
	require.NoError(t, os.Unsetenv("BIBLIOGRAPHY_ADDR"))

	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("BIBLIOGRAPHY_ADDR=:4321\n"), 0644))

	require.NoError(t, LoadEnv(filepath.Join(dir, "missing.env"), envPath))

	cfg, err := Load(filepath.Join(dir, "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":4321", cfg.Server.Addr)
}

// =============================================================================
// HELPERS / VALIDATION
// =============================================================================

func TestConfig_Durations(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 10*time.Second, cfg.GetProcessorTimeout())
	assert.Equal(t, 15*time.Second, cfg.GetOpenLibraryTimeout())
	assert.Equal(t, time.Hour, cfg.GetCacheTTL())

	cfg.OpenLibrary.Timeout = "garbage"
	cfg.OpenLibrary.CacheTTL = "-5m"
	assert.Equal(t, 15*time.Second, cfg.GetOpenLibraryTimeout())
	assert.Equal(t, time.Hour, cfg.GetCacheTTL())
}

func TestConfig_UserAgent(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t,
		"Omeka-S-module-Bibliography/3.0.0 (https://github.com/Daniel-KM/Omeka-S-module-Bibliography)",
		cfg.UserAgent())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"driver", func(c *Config) { c.Database.Driver = "mysql" }, "invalid database driver"},
		{"path", func(c *Config) { c.Database.Path = "" }, "database path"},
		{"addr", func(c *Config) { c.Server.Addr = "" }, "server addr"},
		{"module", func(c *Config) { c.Module.Name = " " }, "module name"},
		{"openlibrary", func(c *Config) { c.OpenLibrary.BaseURL = "openlibrary.org" }, "base_url"},
		{"processor", func(c *Config) { c.Citation.ProcessorURL = "::" }, "processor_url"},
		{"results", func(c *Config) { c.OpenLibrary.MaxResults = 0 }, "max_results"},
		{"cache", func(c *Config) { c.OpenLibrary.CacheSize = -1 }, "cache_size"},
		{"level", func(c *Config) { c.Logging.Level = "loud" }, "logging"},
		{"predecessor", func(c *Config) { c.Install.Predecessor = "" }, "install predecessor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestLoggingConfig(t *testing.T) {
	lc := LoggingConfig{Level: "debug", Format: "console", Categories: map[string]bool{"store": false}}
	assert.False(t, lc.IsCategoryEnabled("store"))
	assert.True(t, lc.IsCategoryEnabled("install"))

	opts := lc.Options()
	assert.Equal(t, "debug", opts.Level)
	assert.Equal(t, "console", opts.Format)
	assert.Equal(t, lc.Categories, opts.Categories)
}

func TestLoad_EmptyPredecessorRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bibliography.yaml")
	require.NoError(t, os.WriteFile(path, []byte("install:\n  predecessor: \"\"\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Install.Predecessor)
	assert.ErrorContains(t, cfg.Validate(), "install predecessor")
}
