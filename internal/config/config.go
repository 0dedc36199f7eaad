package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	flag "github.com/spf13/pflag"
)

var validEnvs = map[string]bool{
	"local": true,
	"alpha": true,
	"beta":  true,
	"prod":  true,
}

var validExporters = map[string]bool{
	"none":   true,
	"stdout": true,
}

type Config struct {
	ServerPort             string        `toml:"server_port"`
	AppEnv                 string        `toml:"app_env"`
	LogLevel               string        `toml:"log_level"`
	LogFormat              string        `toml:"log_format"`
	ShutdownTimeoutSeconds int           `toml:"shutdown_timeout_seconds"`
	Metrics                MetricsConfig `toml:"metrics"`
	Tracing                TracingConfig `toml:"tracing"`
}

type MetricsConfig struct {
	Enabled bool `toml:"enabled"`

	// invalid holds a METRICS_ENABLED value that is not a boolean.
	invalid string
}

type TracingConfig struct {
	Exporter    string `toml:"exporter"`
	ServiceName string `toml:"service_name"`
}

func (c Config) ParseLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("invalid SERVER_PORT %q: %w", c.ServerPort, err)
	}
	if !validEnvs[c.AppEnv] {
		return fmt.Errorf("invalid APP_ENV %q: must be one of local, alpha, beta, prod", c.AppEnv)
	}
	if f := strings.ToLower(c.LogFormat); f != "json" && f != "text" {
		return fmt.Errorf("invalid LOG_FORMAT %q: must be json or text", c.LogFormat)
	}
	if c.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid SHUTDOWN_TIMEOUT_SECONDS %d: must be positive", c.ShutdownTimeoutSeconds)
	}
	if c.Metrics.invalid != "" {
		return fmt.Errorf("invalid METRICS_ENABLED %q: must be a boolean", c.Metrics.invalid)
	}
	if !validExporters[c.Tracing.Exporter] {
		return fmt.Errorf("invalid TRACING_EXPORTER %q: must be none or stdout", c.Tracing.Exporter)
	}
	return nil
}

// Default returns the built-in configuration before any overrides.
func Default() Config {
	return Config{
		ServerPort:             "5000",
		AppEnv:                 "local",
		LogLevel:               "info",
		LogFormat:              "json",
		ShutdownTimeoutSeconds: 10,
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Tracing: TracingConfig{
			Exporter:    "none",
			ServiceName: "todo-api",
		},
	}
}

// Load returns the defaults overridden by environment variables.
func Load() Config {
	cfg := Default()
	applyEnv(&cfg)
	return cfg
}

// LoadFile layers defaults, the TOML file at path, then the environment.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	applyEnv(&cfg)
	return cfg, nil
}

// FromArgs parses command-line flags and builds the final configuration:
// defaults, then the config file (--config or CONFIG_FILE), then the
// environment, then any flags that were set explicitly.
func FromArgs(args []string) (Config, error) {
	fs := flag.NewFlagSet("todo-api", flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("CONFIG_FILE"), "path to a TOML config file")
	port := fs.StringP("port", "p", "", "port to listen on")
	logLevel := fs.String("log-level", "", "log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "log format (json, text)")
	exporter := fs.String("trace-exporter", "", "trace exporter (none, stdout)")
	noMetrics := fs.Bool("no-metrics", false, "disable the /metrics endpoint and request metrics")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return Config{}, err
		}
		return Config{}, fmt.Errorf("invalid arguments: %w", err)
	}

	cfg := Load()
	if *configPath != "" {
		var err error
		if cfg, err = LoadFile(*configPath); err != nil {
			return Config{}, err
		}
	}

	if fs.Changed("port") {
		cfg.ServerPort = *port
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}
	if fs.Changed("log-format") {
		cfg.LogFormat = *logFormat
	}
	if fs.Changed("trace-exporter") {
		cfg.Tracing.Exporter = *exporter
	}
	if *noMetrics {
		cfg.Metrics.Enabled = false
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.ServerPort = envOrDefault("SERVER_PORT", cfg.ServerPort)
	cfg.AppEnv = envOrDefault("APP_ENV", cfg.AppEnv)
	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOrDefault("LOG_FORMAT", cfg.LogFormat)
	if v, err := strconv.Atoi(envOrDefault("SHUTDOWN_TIMEOUT_SECONDS", strconv.Itoa(cfg.ShutdownTimeoutSeconds))); err == nil {
		cfg.ShutdownTimeoutSeconds = v
	} else {
		cfg.ShutdownTimeoutSeconds = 0
	}
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = enabled
		} else {
			cfg.Metrics.invalid = v
		}
	}
	cfg.Tracing.Exporter = envOrDefault("TRACING_EXPORTER", cfg.Tracing.Exporter)
	cfg.Tracing.ServiceName = envOrDefault("TRACING_SERVICE_NAME", cfg.Tracing.ServiceName)
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
