package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jenian/atfcheck/internal/config"
	"github.com/jenian/atfcheck/internal/envfile"
)

// loadConfig reads the config for root, then applies environment overrides from
// the env files in root (or envFiles when given) and the exported environment (exported wins).
// It returns the names of the overrides that were applied.
func loadConfig(root, explicit string, envFiles []string) (*config.Config, []string, error) {
	var (
		cfg *config.Config
		err error
	)
	if explicit == "" {
		cfg, err = config.LoadConfig(root)
	} else {
		cfg, err = config.LoadFile(explicit)
		if err == nil && (cfg.Directories.BasePath == "" || cfg.Directories.BasePath == ".") {
			cfg.Directories.BasePath = root
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	loader := envfile.NewLoader(config.EnvPrefix)
	if len(envFiles) > 0 {
		loader.SetEnvFiles(envFiles)
	}
	env, _, err := loader.LoadWithExportedEnv(root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load env files: %w", err)
	}
	return cfg, cfg.ApplyEnv(env), nil
}

// newLogger builds the slog logger described by cfg, writing to w and, when
// configured, appending to a log file. The returned func closes the file.
func newLogger(cfg config.Logging, w io.Writer) (*slog.Logger, func(), error) {
	var level slog.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	closeFn := func() {}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(w, f)
		closeFn = func() { f.Close() }
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), closeFn, nil
}
