// Package config holds the CLI-level configuration of the compiler: the
// target back end, the run command's interpreter step bound, and the
// debug switch. An
// optional YAML file provides per-project defaults which command-line
// flags override.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Targets.
const (
	TargetLLVM      = "llvm"
	TargetBrainfuck = "brainfuck"
	TargetStack     = "stack"
)

// Config is the resolved configuration after layering defaults, the
// optional config file and the flags.
type Config struct {
	// Target selects the back end: llvm (the default), brainfuck, or
	// stack for the resolved stack-IR debug listing.
	Target string `yaml:"target"`

	// TapeSteps bounds the stack-machine interpreter used by the run
	// command; 0 keeps the interpreter's default.
	TapeSteps int `yaml:"tapeSteps"`

	// Debug enables intermediate-form traces on stderr.
	Debug bool `yaml:"debug"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{Target: TargetLLVM}
}

// Load reads the YAML file at path over the defaults. An empty path
// yields the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Target {
	case TargetLLVM, TargetBrainfuck, TargetStack:
		return nil
	default:
		return fmt.Errorf("config: unknown target %q", c.Target)
	}
}

// Validate checks a configuration after flag overrides were applied.
func (c Config) Validate() error { return c.validate() }
