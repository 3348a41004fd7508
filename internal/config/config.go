// Package config loads kpack CLI settings from a YAML file, the environment
// and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"xdao.co/kpack/cidutil"
)

// Config is the root CLI configuration.
type Config struct {
	// Log holds logging configuration
	Log LogConfig `mapstructure:"log"`

	// CAS lists the local stores used by `kpack cas` and record lookups
	CAS CASConfig `mapstructure:"cas"`

	// Output controls how decoded records are printed
	Output OutputConfig `mapstructure:"output"`

	// Hash selects the digest algorithm for ids and store keys
	Hash HashConfig `mapstructure:"hash"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// File, when set, receives log output instead of stderr
	File string `mapstructure:"file"`
	// Rotation applies to File
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig controls log file rotation.
type RotationConfig struct {
	Enable     bool `mapstructure:"enable"`
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// CASConfig lists filesystem stores. The first directory receives writes;
// reads try each in order.
type CASConfig struct {
	Dirs []string `mapstructure:"dirs"`
}

type OutputConfig struct {
	// Format: json, cbor or diag
	Format string `mapstructure:"format"`
}

type HashConfig struct {
	// Code is a multihash algorithm name, e.g. sha2-256
	Code string `mapstructure:"code"`
}

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Rotation: RotationConfig{
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
			},
		},
		CAS:    CASConfig{Dirs: []string{}},
		Output: OutputConfig{Format: "json"},
		Hash:   HashConfig{Code: "sha2-256"},
	}
}

// Load reads configuration from path (if non-empty), otherwise it searches
// common locations. Environment variables use the prefix KPACK and `.`/`-`
// are replaced with `_`. Example: KPACK_LOG_LEVEL=debug
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("KPACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults for viper so env-only configs work
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	v.SetDefault("cas.dirs", cfg.CAS.Dirs)
	v.SetDefault("output.format", cfg.Output.Format)
	v.SetDefault("hash.code", cfg.Hash.Code)

	if path == "" {
		if envPath := os.Getenv("KPACK_CONFIG"); envPath != "" {
			path = envPath
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("kpack")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".kpack"))
		}
	}

	// A missing config file is fine; defaults and env still apply.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}

	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch c.Log.Format {
	case "":
		c.Log.Format = "console"
	case "console", "json":
	default:
		return fmt.Errorf("invalid log.format: %q", c.Log.Format)
	}

	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	switch c.Output.Format {
	case "":
		c.Output.Format = "json"
	case "json", "cbor", "diag":
	default:
		return fmt.Errorf("invalid output.format: %q", c.Output.Format)
	}

	if _, err := cidutil.CodeByName(c.Hash.Code); err != nil {
		return fmt.Errorf("invalid hash.code: %w", err)
	}
	return nil
}

// HashCode returns the multihash code named by Hash.Code.
func (c *Config) HashCode() uint64 {
	code, err := cidutil.CodeByName(c.Hash.Code)
	if err != nil {
		// validate rejects unknown names.
		panic(err)
	}
	return code
}
