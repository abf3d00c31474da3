package params

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ConfigFile is the name of the engine configuration file.
const ConfigFile = "ember.toml"

// Config is a loaded engine configuration: the active fork plus the gas
// schedule after any [gas] overrides have been applied.
type Config struct {
	Fork Fork
	Gas  *GasParams

	// Path is the file the configuration was read from (empty for defaults).
	Path string
}

// fileConfig mirrors the on-disk layout. The [gas] table is kept as a
// primitive so it can be decoded onto fork-seeded defaults.
type fileConfig struct {
	Fork string         `toml:"fork"`
	Gas  toml.Primitive `toml:"gas"`
}

// DefaultConfig returns the built-in configuration: latest fork, mainnet
// gas schedule.
func DefaultConfig() *Config {
	return &Config{Fork: Osaka, Gas: DefaultGasParams(Osaka)}
}

// LoadConfig parses an ember.toml file. Gas values present under [gas]
// override the fork's defaults; unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var fc fileConfig
	md, err := toml.Decode(string(data), &fc)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	fork := Osaka
	if fc.Fork != "" {
		fork, err = ParseFork(fc.Fork)
		if err != nil {
			return nil, fmt.Errorf("parse error in %s: %w", path, err)
		}
	}

	gas := DefaultGasParams(fork)
	if md.IsDefined("gas") {
		if err := md.PrimitiveDecode(fc.Gas, gas); err != nil {
			return nil, fmt.Errorf("parse error in %s: %w", path, err)
		}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parse error in %s: unknown key %q", path, undecoded[0].String())
	}

	return &Config{Fork: fork, Gas: gas, Path: path}, nil
}

// LoadDir looks for an ember.toml in dir and loads it, falling back to
// DefaultConfig when the file does not exist.
func LoadDir(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFile)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return LoadConfig(path)
}

// Rules returns the rule set for the configured fork.
func (c *Config) Rules() Rules {
	return MakeRules(c.Fork)
}
