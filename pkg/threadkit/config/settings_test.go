package config_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/threadkit/pkg/threadkit"
	"github.com/randalmurphal/threadkit/pkg/threadkit/config"
	"github.com/randalmurphal/threadkit/pkg/threadkit/funcs"
	"github.com/randalmurphal/threadkit/pkg/threadkit/journal"
)

func TestDefaults(t *testing.T) {
	s := config.Defaults()
	assert.Equal(t, threadkit.DefaultBlockSize, s.BlockSize)
	assert.Equal(t, slog.LevelInfo, s.LogLevel)
	assert.NoError(t, s.Validate())
}

func TestFromYAML(t *testing.T) {
	s, err := config.FromYAML([]byte(`
block_size: 4
max_threads: 32
registry_id: amx-main
metrics: true
tracing: true
destroy_waits: true
log_level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, 4, s.BlockSize)
	assert.Equal(t, 32, s.MaxThreads)
	assert.Equal(t, "amx-main", s.RegistryID)
	assert.True(t, s.Metrics)
	assert.True(t, s.Tracing)
	assert.True(t, s.DestroyWaits)
	assert.Equal(t, slog.LevelDebug, s.LogLevel)
}

func TestFromJSON(t *testing.T) {
	s, err := config.FromJSON([]byte(`{"block_size": 16, "journal": "threads.db", "log_level": "WARN"}`))
	require.NoError(t, err)

	assert.Equal(t, 16, s.BlockSize)
	assert.Equal(t, "threads.db", s.JournalPath)
	assert.Equal(t, slog.LevelWarn, s.LogLevel)
	assert.Zero(t, s.MaxThreads)
}

func TestFromValues_Lenient(t *testing.T) {
	// Wrongly typed values fall back to defaults.
	s, err := config.FromJSON([]byte(`{"block_size": "big", "metrics": "yes", "max_threads": 2.5}`))
	require.NoError(t, err)
	assert.Equal(t, threadkit.DefaultBlockSize, s.BlockSize)
	assert.False(t, s.Metrics)
	assert.Zero(t, s.MaxThreads)
}

func TestFromValues_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"zero block size", `{"block_size": 0}`},
		{"negative max threads", `{"max_threads": -1}`},
		{"bad log level", `{"log_level": "loud"}`},
		{"malformed", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.FromJSON([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "threads.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("block_size: 2\n"), 0o600))
	s, err := config.FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 2, s.BlockSize)

	jsonPath := filepath.Join(dir, "threads.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"block_size": 3}`), 0o600))
	s, err = config.FromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 3, s.BlockSize)

	tomlPath := filepath.Join(dir, "threads.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(""), 0o600))
	_, err = config.FromFile(tomlPath)
	assert.ErrorContains(t, err, "unsupported config file extension")

	_, err = config.FromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestSettings_Logger(t *testing.T) {
	var buf bytes.Buffer
	s := config.Defaults()
	s.LogLevel = slog.LevelWarn
	logger := s.Logger(&buf)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestSettings_Options(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	s := config.Defaults()
	s.BlockSize = 2
	s.MaxThreads = 3
	s.RegistryID = "configured"
	s.JournalPath = path

	opts, closeJournal, err := s.Options(nil)
	require.NoError(t, err)

	engine := funcs.New().MustRegister("Worker", func(context.Context, uint32) (int64, error) { return 1, nil })
	reg, err := threadkit.New(engine, opts...)
	require.NoError(t, err)
	assert.Equal(t, "configured", reg.ID())

	for i := 0; i < 3; i++ {
		_, err := reg.Create(ctx, "Worker")
		require.NoError(t, err)
	}
	_, err = reg.Create(ctx, "Worker")
	assert.ErrorIs(t, err, threadkit.ErrResourceExhausted)
	assert.Equal(t, 2, reg.Stats().Blocks)

	require.NoError(t, reg.Close())
	require.NoError(t, closeJournal())

	store, err := journal.NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	events, err := store.List(ctx, "configured")
	require.NoError(t, err)
	created := 0
	for _, ev := range events {
		if ev.Kind == journal.KindCreated {
			created++
		}
	}
	assert.Equal(t, 3, created)
}

func TestSettings_OptionsWithoutJournal(t *testing.T) {
	opts, closeJournal, err := config.Defaults().Options(slog.Default())
	require.NoError(t, err)
	assert.NotEmpty(t, opts)
	assert.NoError(t, closeJournal())
}
