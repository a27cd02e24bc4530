package config

import (
	"context"
	"os"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Watcher reloads the mutable subset of the configuration (currently the log
// level) when the YAML config file changes on disk. Immutable settings such
// as addresses and table names require a restart.
type Watcher struct {
	file    string
	level   zap.AtomicLevel
	logger  *zap.Logger
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher for the given config file. Returns (nil, nil)
// when no config file is in use.
func NewWatcher(cfg *Config, level zap.AtomicLevel, logger *zap.Logger) (*Watcher, error) {
	if cfg.ConfigFile == "" {
		return nil, nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(cfg.ConfigFile); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		file:    cfg.ConfigFile,
		level:   level,
		logger:  logger,
		watcher: fw,
	}, nil
}

// Start blocks processing file events until the context is cancelled.
// Run it in its own goroutine.
func (w *Watcher) Start(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
				w.reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.file)
	if err != nil {
		w.logger.Warn("failed to re-read config file", zap.Error(err))
		return
	}
	var mutable struct {
		LogLevel string `yaml:"log_level"`
	}
	if err := yaml.Unmarshal(data, &mutable); err != nil {
		w.logger.Warn("failed to parse config file", zap.Error(err))
		return
	}
	if mutable.LogLevel == "" {
		return
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(mutable.LogLevel)); err != nil {
		w.logger.Warn("invalid log level in config file",
			zap.String("log_level", mutable.LogLevel))
		return
	}
	if w.level.Level() != lvl {
		w.level.SetLevel(lvl)
		w.logger.Info("log level changed", zap.Stringer("level", lvl))
	}
}
