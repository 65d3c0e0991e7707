// Package config loads server configuration from defaults, an optional YAML
// file and CALORIES_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable, e.g. CALORIES_SERVER_ADDR.
const EnvPrefix = "CALORIES"

// Config is the effective server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Auth     AuthConfig     `mapstructure:"auth" yaml:"auth"`
	Lookup   LookupConfig   `mapstructure:"lookup" yaml:"lookup"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	// Timezone names the IANA zone that bounds calendar days. Empty means local.
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Driver is one of sqlite, pgx, postgres.
	Driver string `mapstructure:"driver" yaml:"driver"`
	// DSN is a file path for sqlite and a connection string otherwise.
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

type AuthConfig struct {
	TokenSecret string `mapstructure:"token_secret" yaml:"token_secret"`
	// TokenTTL of 0 issues tokens that never expire.
	TokenTTL time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
	// BcryptCost of 0 uses the bcrypt default.
	BcryptCost int `mapstructure:"bcrypt_cost" yaml:"bcrypt_cost"`
}

type LookupConfig struct {
	// Providers are tried in order. Known names: usda, openfoodfacts.
	Providers            []string      `mapstructure:"providers" yaml:"providers"`
	Timeout              time.Duration `mapstructure:"timeout" yaml:"timeout"`
	USDAAPIKey           string        `mapstructure:"usda_api_key" yaml:"usda_api_key"`
	USDABaseURL          string        `mapstructure:"usda_base_url" yaml:"usda_base_url"`
	OpenFoodFactsBaseURL string        `mapstructure:"openfoodfacts_base_url" yaml:"openfoodfacts_base_url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

const redacted = "********"

var defaults = map[string]any{
	"server.addr":                   ":8080",
	"server.read_timeout":           "10s",
	"server.write_timeout":          "30s",
	"server.shutdown_timeout":       "15s",
	"database.driver":               "sqlite",
	"database.dsn":                  "./data/calories.db",
	"auth.token_secret":             "",
	"auth.token_ttl":                "0s",
	"auth.bcrypt_cost":              0,
	"lookup.providers":              []string{"usda", "openfoodfacts"},
	"lookup.timeout":                "5s",
	"lookup.usda_api_key":           "",
	"lookup.usda_base_url":          "https://api.nal.usda.gov",
	"lookup.openfoodfacts_base_url": "https://world.openfoodfacts.org",
	"log.level":                     "info",
	"log.format":                    "text",
	"timezone":                      "",
}

// Load reads the configuration. A .env file in the working directory is
// loaded into the environment first when present; path names an optional
// YAML file and may be empty.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have no usable fallback.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "sqlite", "pgx", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported driver %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn: required"))
	}
	if c.Auth.TokenTTL < 0 {
		errs = append(errs, errors.New("auth.token_ttl: must not be negative"))
	}
	if c.Lookup.Timeout <= 0 {
		errs = append(errs, errors.New("lookup.timeout: must be positive"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Location resolves Timezone. An empty name is time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}

// YAML renders the configuration with secrets replaced.
func (c *Config) YAML() ([]byte, error) {
	out := *c
	out.Lookup.Providers = append([]string(nil), c.Lookup.Providers...)
	if out.Auth.TokenSecret != "" {
		out.Auth.TokenSecret = redacted
	}
	if out.Lookup.USDAAPIKey != "" {
		out.Lookup.USDAAPIKey = redacted
	}
	if strings.Contains(out.Database.DSN, "password") || strings.Contains(out.Database.DSN, "@") {
		out.Database.DSN = redacted
	}
	return yaml.Marshal(out)
}
