// Package config loads run settings from defaults and an optional YAML file.
// Files are only ever read.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultInterval is the pause between monitoring cycles.
	DefaultInterval = 2 * time.Second
	// DefaultThreshold is the process CPU percent above which auto-optimize acts.
	DefaultThreshold = 80
	// MaxThreshold bounds Threshold. Process CPU is a percent of one CPU, so
	// multi-threaded processes can exceed 100.
	MaxThreshold = 10000
	// DefaultBaselineSamples is the number of warm-up samples.
	DefaultBaselineSamples = 5
	// DefaultLogLevel and DefaultLogFormat select info-level console output.
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
	// DefaultMaxLogSizeMB and DefaultMaxLogBackups control log file rotation.
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// EnvConfigPath names the environment variable consulted when no path flag is given.
	EnvConfigPath = "SYSMONITOR_CONFIG"
)

// Config holds every setting of a monitoring run.
type Config struct {
	Interval        time.Duration `validate:"gt=0"`
	Optimize        bool
	Threshold       int `validate:"min=1,max=10000"`
	Quiet           bool
	BaselineSamples int `validate:"min=1,max=60"`
	SchedBPF        bool
	HideKernel      bool
	Log             LogConfig
}

// LogConfig controls log output.
type LogConfig struct {
	Level      string `validate:"oneof=debug info warn error"`
	Format     string `validate:"oneof=console json text"`
	File       string
	MaxSizeMB  int `validate:"min=1"`
	MaxBackups int `validate:"min=0"`
}

// fileConfig mirrors Config with optional fields so a file only overrides
// what it names.
type fileConfig struct {
	Interval        *string        `yaml:"interval"`
	Optimize        *bool          `yaml:"optimize"`
	Threshold       *int           `yaml:"threshold"`
	Quiet           *bool          `yaml:"quiet"`
	BaselineSamples *int           `yaml:"baseline_samples"`
	SchedBPF        *bool          `yaml:"sched_bpf"`
	HideKernel      *bool          `yaml:"hide_kernel"`
	Log             *fileLogConfig `yaml:"log"`
}

type fileLogConfig struct {
	Level      *string `yaml:"level"`
	Format     *string `yaml:"format"`
	File       *string `yaml:"file"`
	MaxSizeMB  *int    `yaml:"max_size_mb"`
	MaxBackups *int    `yaml:"max_backups"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Interval:        DefaultInterval,
		Threshold:       DefaultThreshold,
		BaselineSamples: DefaultBaselineSamples,
		HideKernel:      true,
		Log: LogConfig{
			Level:      DefaultLogLevel,
			Format:     DefaultLogFormat,
			MaxSizeMB:  DefaultMaxLogSizeMB,
			MaxBackups: DefaultMaxLogBackups,
		},
	}
}

// Load returns the defaults overlaid with the file at path. An empty path
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	if err := cfg.overlay(data); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) overlay(data []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return err
	}
	if fc.Interval != nil {
		d, err := ParseInterval(*fc.Interval)
		if err != nil {
			return err
		}
		c.Interval = d
	}
	setIf(&c.Optimize, fc.Optimize)
	setIf(&c.Threshold, fc.Threshold)
	setIf(&c.Quiet, fc.Quiet)
	setIf(&c.BaselineSamples, fc.BaselineSamples)
	setIf(&c.SchedBPF, fc.SchedBPF)
	setIf(&c.HideKernel, fc.HideKernel)
	if fc.Log != nil {
		setIf(&c.Log.Level, fc.Log.Level)
		setIf(&c.Log.Format, fc.Log.Format)
		setIf(&c.Log.File, fc.Log.File)
		setIf(&c.Log.MaxSizeMB, fc.Log.MaxSizeMB)
		setIf(&c.Log.MaxBackups, fc.Log.MaxBackups)
	}
	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ParseInterval accepts a Go duration ("1500ms", "3s") or a bare number of seconds.
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", s, err)
	}
	return d, nil
}

// ResolvePath picks the config file to load: the explicit flag value, then
// $SYSMONITOR_CONFIG, then config.yaml under the user config directory if it
// exists. It returns "" when none applies.
func ResolvePath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	candidate := filepath.Join(dir, "sysmonitor", "config.yaml")
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate
	}
	return ""
}
