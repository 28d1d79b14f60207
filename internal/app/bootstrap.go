package app

import (
	"io"

	"go.uber.org/zap"

	"tryon-studio/internal/config"
	"tryon-studio/internal/logging"
)

// Options are the command-line overrides shared by every entry point.
type Options struct {
	ConfigPath string
	LogLevel   string
	Port       int

	// LogOutput receives log lines. nil logs to stderr.
	LogOutput io.Writer
}

// LoadConfig loads the config file and environment, applies opts on top and
// validates the result.
func LoadConfig(opts Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.Port > 0 {
		cfg.Server.Port = opts.Port
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bootstrap loads configuration, builds the logger and wires the components.
func Bootstrap(opts Options) (*Components, error) {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, err
	}

	var logger *zap.Logger
	if opts.LogOutput != nil {
		logger = logging.NewWriter(cfg.Log, opts.LogOutput)
	} else {
		logger = logging.New(cfg.Log)
	}
	return NewComponents(cfg, logger)
}
