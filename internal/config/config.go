// Package config loads the application configuration: compiled-in defaults,
// optionally overridden by a TOML file. Secrets (the Gemini API key) stay in
// the environment and never appear in the config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds every tunable of a run. Zero values are replaced by defaults
// in Load, so a partial TOML file only overrides what it names.
type Config struct {
	// Model is the Gemini model used for every generation task.
	Model string `toml:"model"`

	// OutputDir is where plan files are written.
	OutputDir string `toml:"output_dir"`

	// RequestTimeout bounds each individual provider call.
	RequestTimeout Duration `toml:"request_timeout"`

	// RunTimeout is the wall-clock budget for a whole run; when exceeded
	// the workflow degrades to the forced output path.
	RunTimeout Duration `toml:"run_timeout"`

	// Temperatures configures sampling per task kind.
	Temperatures Temperatures `toml:"temperatures"`
}

// Temperatures carries the per-task sampling temperatures. Research runs
// hottest because grounded search benefits from varied queries; validation
// runs coldest because verdicts should be stable.
type Temperatures struct {
	Analysis    float32 `toml:"analysis"`
	Structuring float32 `toml:"structuring"`
	Research    float32 `toml:"research"`
	Replanning  float32 `toml:"replanning"`
	Validation  float32 `toml:"validation"`
}

// duration wraps time.Duration with TOML string decoding ("90s", "2m").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Default returns the compiled-in configuration.
func Default() Config {
	return Config{
		Model:          "gemini-2.0-flash",
		OutputDir:      ".",
		RequestTimeout: Duration{90 * time.Second},
		RunTimeout:     Duration{15 * time.Minute},
		Temperatures: Temperatures{
			Analysis:    0.7,
			Structuring: 0.7,
			Research:    1.0,
			Replanning:  0.6,
			Validation:  0.5,
		},
	}
}

// Load reads the TOML file at path over the defaults. An empty path returns
// the defaults; a missing file at an explicit path is an error, because the
// user asked for it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("config file %s does not exist", path)
		}
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Model == "" {
		return errors.New("model must not be empty")
	}
	if c.RequestTimeout.Duration <= 0 {
		return errors.New("request_timeout must be positive")
	}
	if c.RunTimeout.Duration <= 0 {
		return errors.New("run_timeout must be positive")
	}
	for name, temp := range map[string]float32{
		"analysis":    c.Temperatures.Analysis,
		"structuring": c.Temperatures.Structuring,
		"research":    c.Temperatures.Research,
		"replanning":  c.Temperatures.Replanning,
		"validation":  c.Temperatures.Validation,
	} {
		if temp < 0 || temp > 2 {
			return fmt.Errorf("temperatures.%s must be in [0,2]", name)
		}
	}
	return nil
}

// RequestTimeoutValue returns the per-call timeout as a time.Duration.
func (c Config) RequestTimeoutValue() time.Duration { return c.RequestTimeout.Duration }

// RunTimeoutValue returns the whole-run budget as a time.Duration.
func (c Config) RunTimeoutValue() time.Duration { return c.RunTimeout.Duration }
