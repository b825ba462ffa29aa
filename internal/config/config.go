// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package config

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	triageerr "github.com/triage-dev/triage/pkg/errors"
)

// Config is the top-level Triage configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Search    SearchConfig    `mapstructure:"search"`
	Suggest   SuggestConfig   `mapstructure:"suggest"`
}

// ServerConfig controls how the HTTP API listens for connections.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// EmbeddingConfig selects and configures the embedding model.
type EmbeddingConfig struct {
	Provider   string        `mapstructure:"provider"`
	Model      string        `mapstructure:"model"`
	Dimensions int           `mapstructure:"dimensions"`
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// StorageConfig selects the record store backend.
type StorageConfig struct {
	Backend string        `mapstructure:"backend"`
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SearchConfig sets the default similarity threshold and result count.
type SearchConfig struct {
	Threshold float64 `mapstructure:"threshold"`
	K         int     `mapstructure:"k"`
}

// SuggestConfig configures the optional LLM resolution-suggestion provider.
// An empty provider disables the feature.
type SuggestConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix TRIAGE_).
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	SetupEnv(v)

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, triageerr.Errorf(triageerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// SetDefaults registers every default value on v. Exposed so the CLI can
// bind flags onto the same viper instance before unmarshalling.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", "127.0.0.1:8799")
	v.SetDefault("embedding.provider", "openai")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.dimensions", 1536)
	v.SetDefault("embedding.timeout", 30*time.Second)
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.timeout", 10*time.Second)
	v.SetDefault("search.threshold", 0.65)
	v.SetDefault("search.k", 5)

	// Optional keys get empty defaults so environment overrides are seen
	// by Unmarshal even when the key never appears in a config file.
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("storage.path", "")
	v.SetDefault("suggest.provider", "")
	v.SetDefault("suggest.model", "")
	v.SetDefault("suggest.api_key", "")
}

// SetupEnv wires the TRIAGE_ environment prefix onto v. Exposed so the CLI
// can prepare its shared viper instance the same way Load does.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("TRIAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// FromViper unmarshals and validates a fully prepared viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, triageerr.Errorf(triageerr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, triageerr.Errorf(triageerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors.
// It returns a slice of all validation errors found, collecting all issues
// rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateEmbedding()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateSearch()...)
	errs = append(errs, c.validateSuggest()...)

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, triageerr.Errorf(triageerr.CodeConfigValidateInvalidValue, "config: server.listen must not be empty"))
		return errs
	}

	host, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		errs = append(errs, triageerr.Errorf(triageerr.CodeConfigValidateInvalidValue,
			"config: server.listen must be a valid host:port address, got %q: %w",
			c.Server.Listen, err,
		))
		return errs
	}
	_ = host // host can be empty (e.g., ":8799"), which is valid

	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, triageerr.Errorf(triageerr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be a number, got %q",
			portStr,
		))
	} else if port < 1 || port > 65535 {
		errs = append(errs, triageerr.Errorf(triageerr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be between 1 and 65535, got %d",
			port,
		))
	}

	return errs
}

func (c *Config) validateEmbedding() []error {
	var errs []error

	validProviders := map[string]bool{"openai": true, "hash": true}
	if !validProviders[c.Embedding.Provider] {
		errs = append(errs, triageerr.Errorf(triageerr.CodeConfigValidateInvalidValue,
			"config: embedding.provider must be one of [openai, hash], got %q",
			c.Embedding.Provider,
		))
	}

	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, triageerr.Errorf(triageerr.CodeConfigValidateInvalidValue,
			"config: embedding.dimensions must be greater than 0, got %d",
			c.Embedding.Dimensions,
		))
	}

	if c.Embedding.Timeout <= 0 {
		errs = append(errs, triageerr.Errorf(triageerr.CodeConfigValidateInvalidValue,
			"config: embedding.timeout must be greater than 0, got %s",
			c.Embedding.Timeout,
		))
	}

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	validBackends := map[string]bool{"sqlite": true, "memory": true}
	if !validBackends[c.Storage.Backend] {
		errs = append(errs, triageerr.Errorf(triageerr.CodeConfigValidateInvalidValue,
			"config: storage.backend must be one of [sqlite, memory], got %q",
			c.Storage.Backend,
		))
	}

	if c.Storage.Timeout <= 0 {
		errs = append(errs, triageerr.Errorf(triageerr.CodeConfigValidateInvalidValue,
			"config: storage.timeout must be greater than 0, got %s",
			c.Storage.Timeout,
		))
	}

	return errs
}

func (c *Config) validateSearch() []error {
	var errs []error

	if c.Search.Threshold < -1 || c.Search.Threshold > 1 {
		errs = append(errs, triageerr.Errorf(triageerr.CodeConfigValidateInvalidValue,
			"config: search.threshold must be between -1 and 1, got %g",
			c.Search.Threshold,
		))
	}

	if c.Search.K < 0 {
		errs = append(errs, triageerr.Errorf(triageerr.CodeConfigValidateInvalidValue,
			"config: search.k must not be negative, got %d",
			c.Search.K,
		))
	}

	return errs
}

func (c *Config) validateSuggest() []error {
	var errs []error

	validProviders := map[string]bool{"": true, "openai": true, "anthropic": true, "google": true}
	if !validProviders[c.Suggest.Provider] {
		errs = append(errs, triageerr.Errorf(triageerr.CodeConfigValidateInvalidValue,
			"config: suggest.provider must be one of [openai, anthropic, google] or empty, got %q",
			c.Suggest.Provider,
		))
	}

	return errs
}
