package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/threadkit/pkg/threadkit"
	"github.com/randalmurphal/threadkit/pkg/threadkit/journal"
)

// Settings configures a threadkit.Registry.
type Settings struct {
	BlockSize    int
	MaxThreads   int
	RegistryID   string
	JournalPath  string
	Metrics      bool
	Tracing      bool
	LogLevel     slog.Level
	DestroyWaits bool
}

// Defaults returns the settings used for missing keys.
func Defaults() Settings {
	return Settings{
		BlockSize: threadkit.DefaultBlockSize,
		LogLevel:  slog.LevelInfo,
	}
}

// FromFile loads settings from a file, auto-detecting format by extension.
// Supported extensions: .yaml, .yml, .json
func FromFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Settings{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML settings.
func FromYAML(data []byte) (Settings, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Settings{}, fmt.Errorf("parse yaml: %w", err)
	}
	return fromValues(m)
}

// FromJSON parses JSON settings.
func FromJSON(data []byte) (Settings, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Settings{}, fmt.Errorf("parse json: %w", err)
	}
	return fromValues(m)
}

func fromValues(m map[string]any) (Settings, error) {
	v := values(m)
	s := Defaults()
	s.BlockSize = v.getInt("block_size", s.BlockSize)
	s.MaxThreads = v.getInt("max_threads", s.MaxThreads)
	s.RegistryID = v.getString("registry_id", s.RegistryID)
	s.JournalPath = v.getString("journal", s.JournalPath)
	s.Metrics = v.getBool("metrics", s.Metrics)
	s.Tracing = v.getBool("tracing", s.Tracing)
	s.DestroyWaits = v.getBool("destroy_waits", s.DestroyWaits)

	if lvl := v.getString("log_level", ""); lvl != "" {
		if err := s.LogLevel.UnmarshalText([]byte(lvl)); err != nil {
			return Settings{}, fmt.Errorf("log_level: %w", err)
		}
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate reports settings the registry would silently ignore.
func (s Settings) Validate() error {
	if s.BlockSize <= 0 {
		return fmt.Errorf("block_size must be positive, got %d", s.BlockSize)
	}
	if s.MaxThreads < 0 {
		return fmt.Errorf("max_threads must not be negative, got %d", s.MaxThreads)
	}
	return nil
}

// Logger returns a JSON logger writing to w at the configured level.
func (s Settings) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: s.LogLevel}))
}

// Options converts the settings to registry options. When a journal path is
// set the journal is opened here; the returned close function releases it
// and must be called after the registry is closed.
func (s Settings) Options(logger *slog.Logger) ([]threadkit.Option, func() error, error) {
	opts := []threadkit.Option{
		threadkit.WithBlockSize(s.BlockSize),
		threadkit.WithMaxThreads(s.MaxThreads),
		threadkit.WithMetrics(s.Metrics),
		threadkit.WithTracing(s.Tracing),
		threadkit.WithDestroyWaits(s.DestroyWaits),
	}
	if logger != nil {
		opts = append(opts, threadkit.WithLogger(logger))
	}
	if s.RegistryID != "" {
		opts = append(opts, threadkit.WithRegistryID(s.RegistryID))
	}

	closeFn := func() error { return nil }
	if s.JournalPath != "" {
		store, err := journal.NewSQLiteStore(s.JournalPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open journal: %w", err)
		}
		opts = append(opts, threadkit.WithJournal(store))
		closeFn = store.Close
	}
	return opts, closeFn, nil
}
