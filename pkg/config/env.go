package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override, e.g. LUNARMANSION_ENGINE_MAX_YEAR
const EnvPrefix = "LUNARMANSION"

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; variables already set are not replaced.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("error loading %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment variables onto c. Only variables that are set
// replace a value.
func ApplyEnv(c *ConfigData) error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("error applying environment overrides: %w", err)
	}
	return nil
}

// Load reads configuration from provider, then applies environment overrides,
// defaults and validation in that order
func Load(provider ConfigProvider) (*ConfigData, error) {
	cfg, err := provider.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
