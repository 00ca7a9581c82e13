package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// DefaultMaxTargetBytes is the size above which targets are skipped when the
// configuration does not say otherwise.
const DefaultMaxTargetBytes = 1_000_000

// ErrInvalid is wrapped by every configuration validation error.
var ErrInvalid = errors.New("invalid configuration")

// Targets configures target discovery.
type Targets struct {
	Exclude               []string `koanf:"exclude"`
	Include               []string `koanf:"include"`
	MaxTargetBytes        int64    `koanf:"max_target_bytes"`
	RespectGitignore      bool     `koanf:"respect_gitignore"`
	BaselineCommit        string   `koanf:"baseline_commit"`
	ScanUnknownExtensions bool     `koanf:"scan_unknown_extensions"`
	ProjectRoot           string   `koanf:"project_root"`
}

// Config is the semmatch configuration file.
type Config struct {
	Targets    Targets           `koanf:"targets"`
	Validators []ValidatorConfig `koanf:"validators"`
}

var defaults = map[string]any{
	"targets.max_target_bytes":        DefaultMaxTargetBytes,
	"targets.respect_gitignore":       true,
	"targets.scan_unknown_extensions": false,
}

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg, err := Parse(nil)
	if err != nil {
		// defaults are static and always valid
		panic(err)
	}
	return cfg
}

// Load reads and validates the TOML configuration at path.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not read config %s: %w", path, err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse builds a configuration from TOML bytes laid over the defaults.
func Parse(b []byte) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return Config{}, err
	}
	if len(b) > 0 {
		if err := k.Load(rawbytes.Provider(b), toml.Parser()); err != nil {
			return Config{}, fmt.Errorf("%w: %s", ErrInvalid, err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values discovery and validation
// cannot work with.
func (c *Config) Validate() error {
	if c.Targets.MaxTargetBytes < 0 {
		return fmt.Errorf("%w: targets.max_target_bytes must not be negative", ErrInvalid)
	}
	for _, p := range c.Targets.Exclude {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("%w: bad exclude pattern %q", ErrInvalid, p)
		}
	}
	for _, p := range c.Targets.Include {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("%w: bad include pattern %q", ErrInvalid, p)
		}
	}
	for i := range c.Validators {
		if err := c.Validators[i].Check(); err != nil {
			return fmt.Errorf("%w: validators[%d]: %s", ErrInvalid, i, err)
		}
	}
	return nil
}
