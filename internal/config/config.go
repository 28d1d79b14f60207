// Package config loads the try-on service configuration.
//
// Precedence is defaults, then the YAML file (when one exists), then the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort            = 8080
	DefaultModel           = "gemini-2.5-flash-image"
	DefaultBackend         = "gemini"
	DefaultLocation        = "us-central1"
	DefaultMaxUploadBytes  = 10 << 20
	DefaultShutdownTimeout = 10 * time.Second
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Gemini GeminiConfig `yaml:"gemini"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type GeminiConfig struct {
	// Backend is "gemini" (API key) or "vertex" (project + location).
	Backend   string `yaml:"backend"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	ProjectID string `yaml:"project_id"`
	Location  string `yaml:"location"`

	// Temperature and Seed are passed through when set.
	Temperature *float32 `yaml:"temperature"`
	Seed        *int32   `yaml:"seed"`

	// RequestTimeout bounds one backend call. Zero means the transport default.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is json or console.
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			MaxUploadBytes:  DefaultMaxUploadBytes,
			ReadTimeout:     30 * time.Second,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Gemini: GeminiConfig{
			Backend:  DefaultBackend,
			Model:    DefaultModel,
			Location: DefaultLocation,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration. A missing file at path is not an error; an
// empty path skips the file step.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := loadFromEnv(cfg, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

// first returns the first non-empty value among keys.
func (lookup lookupFunc) first(keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

func loadFromEnv(cfg *Config, lookup lookupFunc) error {
	if v, ok := lookup.first("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v, ok := lookup.first("MAX_UPLOAD_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_UPLOAD_BYTES %q: %w", v, err)
		}
		cfg.Server.MaxUploadBytes = n
	}
	if v, ok := lookup.first("GEMINI_REQUEST_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid GEMINI_REQUEST_TIMEOUT %q: %w", v, err)
		}
		cfg.Gemini.RequestTimeout = d
	}

	strs := []struct {
		dst  *string
		keys []string
	}{
		{&cfg.Gemini.APIKey, []string{"GEMINI_API_KEY", "API_KEY"}},
		{&cfg.Gemini.Model, []string{"GEMINI_MODEL"}},
		{&cfg.Gemini.Backend, []string{"GEMINI_BACKEND"}},
		{&cfg.Gemini.ProjectID, []string{"PROJECT_ID", "GOOGLE_CLOUD_PROJECT"}},
		{&cfg.Gemini.Location, []string{"LOCATION", "GOOGLE_CLOUD_LOCATION"}},
		{&cfg.Log.Level, []string{"LOG_LEVEL"}},
		{&cfg.Log.Format, []string{"LOG_FORMAT"}},
	}
	for _, s := range strs {
		if v, ok := lookup.first(s.keys...); ok {
			*s.dst = v
		}
	}
	return nil
}

// Validate checks structural settings. A missing API key is not an error
// here; it is reported per request so the UI can show it.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, "invalid port")
	}
	if c.Server.MaxUploadBytes <= 0 {
		problems = append(problems, "max_upload_bytes must be positive")
	}
	switch c.Gemini.Backend {
	case "gemini", "vertex":
	default:
		problems = append(problems, fmt.Sprintf("unknown backend %q", c.Gemini.Backend))
	}
	if c.Gemini.Model == "" {
		problems = append(problems, "model is required")
	}
	if t := c.Gemini.Temperature; t != nil && (*t < 0 || *t > 2) {
		problems = append(problems, "temperature must be between 0 and 2")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("unknown log format %q", c.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
