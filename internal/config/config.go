// Package config loads mindzap settings from defaults, a YAML file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/conorfennell/mindzap/internal/validate"
)

// EnvPrefix prefixes every environment variable read by Load.
// Nested keys are separated by a double underscore: MINDZAP_DB__DSN.
const EnvPrefix = "MINDZAP_"

// Config is the complete application configuration.
type Config struct {
	Mode   string       `koanf:"mode" validate:"oneof=dev prod"`
	Log    LogConfig    `koanf:"log"`
	Server ServerConfig `koanf:"server"`
	DB     DBConfig     `koanf:"db"`
	Auth   AuthConfig   `koanf:"auth"`
	Review ReviewConfig `koanf:"review"`
	Import ImportConfig `koanf:"import"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=0"`
	// AuthRate limits /login and /register per client, in requests per second.
	AuthRate  float64 `koanf:"auth_rate" validate:"gt=0"`
	AuthBurst int     `koanf:"auth_burst" validate:"min=1"`
}

type DBConfig struct {
	Driver       string `koanf:"driver" validate:"oneof=sqlite postgres"`
	DSN          string `koanf:"dsn" validate:"required"`
	MaxOpenConns int    `koanf:"max_open_conns" validate:"min=0,max=1000"`
}

type AuthConfig struct {
	Secret     string        `koanf:"secret" validate:"omitempty,min=16"`
	TokenTTL   time.Duration `koanf:"token_ttl" validate:"gt=0"`
	BcryptCost int           `koanf:"bcrypt_cost" validate:"min=4,max=31"`
}

type ReviewConfig struct {
	MaxInterval int `koanf:"max_interval" validate:"min=0"`
	QueueLimit  int `koanf:"queue_limit" validate:"min=1"`
	MaxRetries  int `koanf:"max_retries" validate:"min=1"`
}

type ImportConfig struct {
	ReposDir string `koanf:"repos_dir" validate:"required"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Mode: "dev",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			AuthRate:        1,
			AuthBurst:       5,
		},
		DB: DBConfig{
			Driver: "sqlite",
			DSN:    "mindzap.db",
		},
		Auth: AuthConfig{
			TokenTTL:   24 * time.Hour,
			BcryptCost: 10,
		},
		Review: ReviewConfig{
			MaxInterval: 36500,
			QueueLimit:  20,
			MaxRetries:  3,
		},
		Import: ImportConfig{
			ReposDir: "repos",
		},
	}
}

// Load builds the configuration. path may be empty, in which case no file is
// read. Only flags in fs that were set explicitly override other sources; the
// flag "config" is ignored and "-" in flag names stands for nesting, so
// --db-dsn sets db.dsn.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrapf(err, "config file %s", path)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", path)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load environment")
	}

	if fs != nil {
		err := k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "."), posflag.FlagVal(fs, f)
		}), nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load flags")
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &cfg, nil
}

// RequireSecret reports an error unless a token signing secret is configured.
func (c *Config) RequireSecret() error {
	if c.Auth.Secret == "" {
		return errors.Errorf("auth.secret is required (set %sAUTH__SECRET)", EnvPrefix)
	}
	return nil
}
