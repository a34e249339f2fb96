// Package config loads the bibliography configuration from YAML or TOML,
// with .env files and environment variables layered on top.
package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"bibliography/internal/citation"
	"bibliography/internal/logging"
	"bibliography/internal/module"
)

// Config holds all bibliography configuration.
type Config struct {
	Module      ModuleConfig      `yaml:"module" toml:"module"`
	Database    DatabaseConfig    `yaml:"database" toml:"database"`
	Install     InstallConfig     `yaml:"install" toml:"install"`
	Host        HostConfig        `yaml:"host" toml:"host"`
	Citation    CitationConfig    `yaml:"citation" toml:"citation"`
	OpenLibrary OpenLibraryConfig `yaml:"openlibrary" toml:"openlibrary"`
	Server      ServerConfig      `yaml:"server" toml:"server"`
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
}

// ModuleConfig identifies the plugin to the host and to remote APIs.
type ModuleConfig struct {
	Name    string `yaml:"name" toml:"name"`
	Version string `yaml:"version" toml:"version"`
	Link    string `yaml:"link" toml:"link"`
}

// DatabaseConfig selects the SQLite driver and file.
type DatabaseConfig struct {
	Driver string `yaml:"driver" toml:"driver"` // sqlite3 (cgo) or sqlite (pure Go)
	Path   string `yaml:"path" toml:"path"`
}

// InstallConfig configures the post-install steps.
type InstallConfig struct {
	Predecessor  string   `yaml:"predecessor" toml:"predecessor"`
	Vocabularies []string `yaml:"vocabularies" toml:"vocabularies"` // extra YAML definitions seeded after FaBiO
	Catalog      string   `yaml:"catalog" toml:"catalog"`           // optional message catalog
}

// HostModule is a module present in the host's modules directory.
type HostModule struct {
	Name    string `yaml:"name" toml:"name"`
	Version string `yaml:"version" toml:"version"`
}

// HostConfig describes the host installation.
type HostConfig struct {
	Modules []HostModule `yaml:"modules" toml:"modules"`
}

// CitationConfig configures citation defaults and the CSL processor.
type CitationConfig struct {
	SiteSettings     citation.SiteSettings  `yaml:"site_settings" toml:"site_settings"`
	BlockSettings    citation.BlockSettings `yaml:"block_settings" toml:"block_settings"`
	StylesDir        string                 `yaml:"styles_dir" toml:"styles_dir"`
	LocalesDir       string                 `yaml:"locales_dir" toml:"locales_dir"`
	ProcessorURL     string                 `yaml:"processor_url" toml:"processor_url"`
	ProcessorTimeout string                 `yaml:"processor_timeout" toml:"processor_timeout"`
}

// OpenLibraryConfig configures the OpenLibrary suggester.
type OpenLibraryConfig struct {
	BaseURL    string `yaml:"base_url" toml:"base_url"`
	Timeout    string `yaml:"timeout" toml:"timeout"`
	CacheSize  int    `yaml:"cache_size" toml:"cache_size"`
	CacheTTL   string `yaml:"cache_ttl" toml:"cache_ttl"`
	MaxResults int    `yaml:"max_results" toml:"max_results"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Module: ModuleConfig{
			Name:    "Bibliography",
			Version: "3.0.0",
			Link:    "https://github.com/Daniel-KM/Omeka-S-module-Bibliography",
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			Path:   "data/bibliography.db",
		},
		Install: InstallConfig{
			Predecessor: module.LegacyModuleName,
		},
		Citation: CitationConfig{
			SiteSettings:     citation.DefaultSiteSettings(),
			BlockSettings:    citation.DefaultBlockSettings(),
			ProcessorTimeout: "10s",
		},
		OpenLibrary: OpenLibraryConfig{
			BaseURL:    "https://openlibrary.org",
			Timeout:    "15s",
			CacheSize:  512,
			CacheTTL:   "1h",
			MaxResults: 10,
		},
		Server: ServerConfig{
			Addr: ":8088",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML or TOML file (chosen by extension).
// A missing file yields the defaults. Environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		logging.ConfigWarn("Config file %s not found, using defaults", path)
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if isTOML(path) {
		_, err := toml.Decode(string(data), cfg)
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Save writes the configuration as YAML or TOML (chosen by extension).
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(c); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// LoadEnv loads .env files into the process environment. Missing files are
// ignored; variables already set are not overwritten.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
		logging.Config("Loaded environment from %s", p)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("BIBLIOGRAPHY_DB"); path != "" {
		c.Database.Path = path
	}
	if driver := os.Getenv("BIBLIOGRAPHY_DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if addr := os.Getenv("BIBLIOGRAPHY_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if u := os.Getenv("OPENLIBRARY_URL"); u != "" {
		c.OpenLibrary.BaseURL = u
	}
	if u := os.Getenv("CITEPROC_URL"); u != "" {
		c.Citation.ProcessorURL = u
	}
	if level := os.Getenv("BIBLIOGRAPHY_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Present returns the configured on-disk modules in the host's terms.
func (c *Config) Present() []module.Present {
	out := make([]module.Present, 0, len(c.Host.Modules))
	for _, m := range c.Host.Modules {
		out = append(out, module.Present{Name: m.Name, Version: m.Version})
	}
	return out
}

// UserAgent is sent with every outbound API request.
func (c *Config) UserAgent() string {
	return fmt.Sprintf("Omeka-S-module-%s/%s (%s)", c.Module.Name, c.Module.Version, c.Module.Link)
}

// GetProcessorTimeout returns the CSL processor timeout as a duration.
func (c *Config) GetProcessorTimeout() time.Duration {
	return parseDuration(c.Citation.ProcessorTimeout, 10*time.Second)
}

// GetOpenLibraryTimeout returns the OpenLibrary request timeout as a duration.
func (c *Config) GetOpenLibraryTimeout() time.Duration {
	return parseDuration(c.OpenLibrary.Timeout, 15*time.Second)
}

// GetCacheTTL returns the suggestion cache TTL as a duration.
func (c *Config) GetCacheTTL() time.Duration {
	return parseDuration(c.OpenLibrary.CacheTTL, time.Hour)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Module.Name) == "" {
		return fmt.Errorf("module name is required")
	}
	if strings.TrimSpace(c.Install.Predecessor) == "" {
		return fmt.Errorf("install predecessor is required (default %q)", module.LegacyModuleName)
	}
	switch c.Database.Driver {
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("invalid database driver: %s (valid: sqlite3, sqlite)", c.Database.Driver)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	if u, err := url.Parse(c.OpenLibrary.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid openlibrary base_url: %q", c.OpenLibrary.BaseURL)
	}
	if c.Citation.ProcessorURL != "" {
		if u, err := url.Parse(c.Citation.ProcessorURL); err != nil || u.Scheme == "" {
			return fmt.Errorf("invalid citation processor_url: %q", c.Citation.ProcessorURL)
		}
	}
	if c.OpenLibrary.MaxResults <= 0 {
		return fmt.Errorf("openlibrary max_results must be positive")
	}
	if c.OpenLibrary.CacheSize <= 0 {
		return fmt.Errorf("openlibrary cache_size must be positive")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}
	return nil
}
