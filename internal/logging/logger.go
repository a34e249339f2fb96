// Package logging provides config-driven categorized logging for bibliography.
// Every category is a named child of a single zap logger; categories can be
// switched off individually from the logging section of the config file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot       Category = "boot"       // Startup, CLI wiring
	CategoryConfig     Category = "config"     // Config loading and reloads
	CategoryInstall    Category = "install"    // Post-install reconciliation and seeding
	CategoryVocabulary Category = "vocabulary" // Vocabulary definitions and seeding
	CategoryStore      Category = "store"      // SQLite term/module/settings store
	CategorySuggest    Category = "suggest"    // External lookup suggesters
	CategoryCitation   Category = "citation"   // CSL processor calls and rendering
	CategoryServer     Category = "server"     // HTTP API
)

// Options mirrors config.LoggingConfig to avoid circular imports.
type Options struct {
	Level      string          // debug, info, warn, error
	Format     string          // json, console
	File       string          // optional log file, in addition to stderr
	Categories map[string]bool // per-category toggles, missing = enabled
}

// Logger is a printf-style logger bound to one category.
// A Logger with a nil sugar is a no-op.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	base       = zap.NewNop()
	loggers    = make(map[Category]*Logger)
	categories map[string]bool
	mu         sync.RWMutex
)

// Initialize builds the process logger from options.
// Should be called once at startup, before any category logger is used.
func Initialize(opts Options) error {
	var zcfg zap.Config
	if strings.EqualFold(opts.Format, "console") {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stderr"}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		zcfg.OutputPaths = append(zcfg.OutputPaths, opts.File)
	}

	logger, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	mu.Lock()
	categories = opts.Categories
	mu.Unlock()
	SetLogger(logger)
	return nil
}

// ParseLevel maps a config level string to a zap level. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level: %q", s)
	}
}

// SetLogger replaces the process logger. Category loggers are rebuilt lazily.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	defer mu.Unlock()
	base = l
	loggers = make(map[Category]*Logger)
}

// L returns the underlying zap logger for callers that want typed fields.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Sync flushes buffered log entries.
func Sync() {
	_ = L().Sync()
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()

	if categories == nil {
		return true
	}
	enabled, exists := categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return &Logger{category: category}
	}

	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()

	// Double-check after acquiring write lock
	if l, ok := loggers[category]; ok {
		return l
	}

	l := &Logger{
		category: category,
		sugar:    base.Named(string(category)).Sugar(),
	}
	loggers[category] = l
	return l
}

// With returns a child logger carrying key-value context.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	if l.sugar == nil {
		return l
	}
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Errorf(format, args...)
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// These are no-ops if the category is disabled
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

// BootDebug logs debug to the boot category
func BootDebug(format string, args ...interface{}) {
	Get(CategoryBoot).Debug(format, args...)
}

// Config logs to the config category
func Config(format string, args ...interface{}) {
	Get(CategoryConfig).Info(format, args...)
}

// ConfigWarn logs warning to the config category
func ConfigWarn(format string, args ...interface{}) {
	Get(CategoryConfig).Warn(format, args...)
}

// Install logs to the install category
func Install(format string, args ...interface{}) {
	Get(CategoryInstall).Info(format, args...)
}

// InstallDebug logs debug to the install category
func InstallDebug(format string, args ...interface{}) {
	Get(CategoryInstall).Debug(format, args...)
}

// InstallWarn logs warning to the install category
func InstallWarn(format string, args ...interface{}) {
	Get(CategoryInstall).Warn(format, args...)
}

// Vocabulary logs to the vocabulary category
func Vocabulary(format string, args ...interface{}) {
	Get(CategoryVocabulary).Info(format, args...)
}

// VocabularyDebug logs debug to the vocabulary category
func VocabularyDebug(format string, args ...interface{}) {
	Get(CategoryVocabulary).Debug(format, args...)
}

// Store logs to the store category
func Store(format string, args ...interface{}) {
	Get(CategoryStore).Info(format, args...)
}

// StoreDebug logs debug to the store category
func StoreDebug(format string, args ...interface{}) {
	Get(CategoryStore).Debug(format, args...)
}

// StoreWarn logs warning to the store category
func StoreWarn(format string, args ...interface{}) {
	Get(CategoryStore).Warn(format, args...)
}

// Suggest logs to the suggest category
func Suggest(format string, args ...interface{}) {
	Get(CategorySuggest).Info(format, args...)
}

// SuggestDebug logs debug to the suggest category
func SuggestDebug(format string, args ...interface{}) {
	Get(CategorySuggest).Debug(format, args...)
}

// Citation logs to the citation category
func Citation(format string, args ...interface{}) {
	Get(CategoryCitation).Info(format, args...)
}

// CitationDebug logs debug to the citation category
func CitationDebug(format string, args ...interface{}) {
	Get(CategoryCitation).Debug(format, args...)
}

// Server logs to the server category
func Server(format string, args ...interface{}) {
	Get(CategoryServer).Info(format, args...)
}

// ServerDebug logs debug to the server category
func ServerDebug(format string, args ...interface{}) {
	Get(CategoryServer).Debug(format, args...)
}

// =============================================================================
// PERFORMANCE TIMING
// =============================================================================

// Timer logs how long an operation took when stopped.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer starts timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithInfo ends the timer and logs at info level
func (t *Timer) StopWithInfo() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Info("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
