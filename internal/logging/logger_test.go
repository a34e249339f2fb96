package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// observe swaps the process logger for an in-memory observer for one test.
func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	SetLogger(zap.New(core))
	mu.Lock()
	categories = nil
	mu.Unlock()
	t.Cleanup(func() {
		SetLogger(nil)
		mu.Lock()
		categories = nil
		mu.Unlock()
	})
	return logs
}

func TestAllCategoriesLog(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	cats := []Category{
		CategoryBoot,
		CategoryConfig,
		CategoryInstall,
		CategoryVocabulary,
		CategoryStore,
		CategorySuggest,
		CategoryCitation,
		CategoryServer,
	}
	for _, cat := range cats {
		Get(cat).Info("info for %s", cat)
	}

	require.Equal(t, len(cats), logs.Len())
	for i, entry := range logs.All() {
		assert.Equal(t, string(cats[i]), entry.LoggerName)
		assert.Equal(t, "info for "+string(cats[i]), entry.Message)
	}
}

func TestConvenienceFunctions(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	Boot("boot %d", 1)
	Install("install")
	InstallDebug("install debug")
	InstallWarn("install warn")
	Vocabulary("vocab")
	Store("store")
	StoreWarn("store warn")
	Suggest("suggest")
	Citation("citation")
	Server("server")
	ConfigWarn("config warn")

	assert.Equal(t, 11, logs.Len())
	assert.Equal(t, 1, logs.FilterMessage("boot 1").Len())
	assert.Equal(t, zapcore.WarnLevel, logs.FilterMessage("install warn").All()[0].Level)
}

func TestLevelFiltering(t *testing.T) {
	logs := observe(t, zapcore.WarnLevel)

	l := Get(CategoryStore)
	l.Debug("dropped")
	l.Info("dropped")
	l.Warn("kept")
	l.Error("kept too")

	assert.Equal(t, 2, logs.Len())
}

func TestDisabledCategoryIsNoop(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)
	mu.Lock()
	categories = map[string]bool{"suggest": false}
	mu.Unlock()

	assert.False(t, IsCategoryEnabled(CategorySuggest))
	assert.True(t, IsCategoryEnabled(CategoryStore))

	Suggest("should not appear")
	Store("should appear")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "store", logs.All()[0].LoggerName)
}

func TestWithAddsContext(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	Get(CategoryInstall).With("module", "Citation").Info("reconciled")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Citation", logs.All()[0].ContextMap()["module"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
		err  bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"WARN", zapcore.WarnLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestInitializeWritesFile(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	path := filepath.Join(t.TempDir(), "logs", "bibliography.log")
	require.NoError(t, Initialize(Options{Level: "info", Format: "json", File: path}))

	Install("seeded %s", "fabio")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "seeded fabio")
}

func TestTimer(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	timer := StartTimer(CategoryStore, "BulkInsert")
	elapsed := timer.StopWithThreshold(time.Hour)

	assert.GreaterOrEqual(t, elapsed, time.Duration(0))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.DebugLevel, logs.All()[0].Level)
}
