// Package config loads host settings from a YAML file and SCOPEHOST_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/danpasecinic/scopehost"
)

const envPrefix = "SCOPEHOST"

// Config is the configuration of a process running scoped hosts.
//
// Sources, highest precedence first:
//  1. Environment variables (SCOPEHOST_*)
//  2. Configuration file
//  3. Default values
type Config struct {
	Host    HostConfig    `mapstructure:"host" yaml:"host"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Ops     OpsConfig     `mapstructure:"ops" yaml:"ops"`

	// Scopes is the number of scopes the run command starts.
	Scopes int `mapstructure:"scopes" validate:"gte=1,lte=1024" yaml:"scopes"`
}

// HostConfig mirrors scopehost.HostOptions. A negative timeout, or the
// string "infinite" in the file, disables the timeout.
type HostConfig struct {
	StartConcurrently bool          `mapstructure:"start_concurrently" yaml:"start_concurrently"`
	StopConcurrently  bool          `mapstructure:"stop_concurrently" yaml:"stop_concurrently"`
	StartupTimeout    time.Duration `mapstructure:"startup_timeout" yaml:"startup_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format is text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// OpsConfig configures the HTTP endpoint serving metrics and health probes.
type OpsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" validate:"omitempty,hostname_port" yaml:"listen"`
}

func Default() *Config {
	return &Config{
		Host: HostConfig{
			StartupTimeout:  scopehost.InfiniteTimeout,
			ShutdownTimeout: scopehost.DefaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stderr",
		},
		Ops: OpsConfig{
			Enabled: true,
			Listen:  "127.0.0.1:9464",
		},
		Scopes: 1,
	}
}

// HostOptions converts the host section into scopehost.HostOptions.
func (c *Config) HostOptions() scopehost.HostOptions {
	return scopehost.HostOptions{
		StartConcurrently: c.Host.StartConcurrently,
		StopConcurrently:  c.Host.StopConcurrently,
		StartupTimeout:    c.Host.StartupTimeout,
		ShutdownTimeout:   c.Host.ShutdownTimeout,
	}
}

// Load reads the file at path, when it exists, and the environment on top of
// Default. An empty path reads only the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setupViper(v, path)

	if path != "" {
		if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, invalid("failed to read config file", err)
			}
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHooks())); err != nil {
		return nil, invalid("failed to unmarshal config", err)
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Marshal renders cfg as YAML. Durations are written as strings and a
// negative timeout as "infinite", so the output loads back unchanged.
func Marshal(cfg *Config) ([]byte, error) {
	out := struct {
		Host struct {
			StartConcurrently bool   `yaml:"start_concurrently"`
			StopConcurrently  bool   `yaml:"stop_concurrently"`
			StartupTimeout    string `yaml:"startup_timeout"`
			ShutdownTimeout   string `yaml:"shutdown_timeout"`
		} `yaml:"host"`
		Logging LoggingConfig `yaml:"logging"`
		Ops     OpsConfig     `yaml:"ops"`
		Scopes  int           `yaml:"scopes"`
	}{
		Logging: cfg.Logging,
		Ops:     cfg.Ops,
		Scopes:  cfg.Scopes,
	}
	out.Host.StartConcurrently = cfg.Host.StartConcurrently
	out.Host.StopConcurrently = cfg.Host.StopConcurrently
	out.Host.StartupTimeout = formatTimeout(cfg.Host.StartupTimeout)
	out.Host.ShutdownTimeout = formatTimeout(cfg.Host.ShutdownTimeout)

	data, err := yaml.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return invalid("configuration validation failed", err)
	}
	return nil
}

func setupViper(v *viper.Viper, path string) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only applies to keys viper already knows about.
	def := Default()
	v.SetDefault("host.start_concurrently", def.Host.StartConcurrently)
	v.SetDefault("host.stop_concurrently", def.Host.StopConcurrently)
	v.SetDefault("host.startup_timeout", def.Host.StartupTimeout)
	v.SetDefault("host.shutdown_timeout", def.Host.ShutdownTimeout)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.output", def.Logging.Output)
	v.SetDefault("ops.enabled", def.Ops.Enabled)
	v.SetDefault("ops.listen", def.Ops.Listen)
	v.SetDefault("scopes", def.Scopes)

	if path != "" {
		v.SetConfigFile(path)
	}
}

func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		timeoutDecodeHook(),
	)
}

// timeoutDecodeHook converts strings like "30s" or "infinite" and raw
// nanosecond numbers to time.Duration.
func timeoutDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return parseTimeout(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func parseTimeout(s string) (time.Duration, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "infinite", "none", "-1":
		return scopehost.InfiniteTimeout, nil
	}
	return time.ParseDuration(s)
}

func formatTimeout(d time.Duration) string {
	if d < 0 {
		return "infinite"
	}
	return d.String()
}

func invalid(msg string, cause error) error {
	return &scopehost.Error{Code: scopehost.ErrCodeInvalidConfig, Message: msg, Cause: cause}
}
