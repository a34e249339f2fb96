package config

import "bibliography/internal/logging"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level" toml:"level"`           // debug, info, warn, error
	Format     string          `yaml:"format" toml:"format"`         // json, console
	File       string          `yaml:"file" toml:"file"`             // optional, in addition to stderr
	Categories map[string]bool `yaml:"categories" toml:"categories"` // per-category toggles
}

// IsCategoryEnabled returns whether logging is enabled for a category.
// Categories not listed are enabled.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	enabled, exists := c.Categories[category]
	return !exists || enabled
}

// Options converts the config to logger options.
func (c *LoggingConfig) Options() logging.Options {
	return logging.Options{
		Level:      c.Level,
		Format:     c.Format,
		File:       c.File,
		Categories: c.Categories,
	}
}
