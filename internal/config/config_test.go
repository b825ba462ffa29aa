// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/triage-dev/triage/internal/config"
	triageerr "github.com/triage-dev/triage/pkg/errors"
)

// writeConfigFile marshals the given document to YAML in a temp dir and
// returns its path.
func writeConfigFile(t *testing.T, doc map[string]any) string {
	t.Helper()

	data, err := yaml.Marshal(doc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "triage.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8799", cfg.Server.Listen)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, 1536, cfg.Embedding.Dimensions)
	assert.Equal(t, 30*time.Second, cfg.Embedding.Timeout)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, 10*time.Second, cfg.Storage.Timeout)
	assert.InDelta(t, 0.65, cfg.Search.Threshold, 1e-9)
	assert.Equal(t, 5, cfg.Search.K)
	assert.Empty(t, cfg.Suggest.Provider)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfigFile(t, map[string]any{
		"server": map[string]any{"listen": "0.0.0.0:9999"},
		"embedding": map[string]any{
			"provider":   "hash",
			"dimensions": 256,
		},
		"search": map[string]any{"threshold": 0.5, "k": 3},
		"suggest": map[string]any{
			"provider": "anthropic",
			"model":    "claude-haiku-4-5",
		},
	})

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9999", cfg.Server.Listen)
	assert.Equal(t, "hash", cfg.Embedding.Provider)
	assert.Equal(t, 256, cfg.Embedding.Dimensions)
	assert.InDelta(t, 0.5, cfg.Search.Threshold, 1e-9)
	assert.Equal(t, 3, cfg.Search.K)
	assert.Equal(t, "anthropic", cfg.Suggest.Provider)

	// Values absent from the file keep their defaults.
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TRIAGE_SERVER_LISTEN", "10.0.0.1:8080")
	t.Setenv("TRIAGE_EMBEDDING_API_KEY", "env-key")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.1:8080", cfg.Server.Listen)
	assert.Equal(t, "env-key", cfg.Embedding.APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, triageerr.HasCode(err, triageerr.CodeConfigLoadReadFailure))
}

func TestLoad_ValidationCalledAtLoadTime(t *testing.T) {
	path := writeConfigFile(t, map[string]any{
		"embedding": map[string]any{"provider": "word2vec"},
	})

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding.provider")
	assert.True(t, triageerr.HasCode(err, triageerr.CodeConfigValidateInvalidValue))
}

// validConfig returns a minimal config that passes all validation.
func validConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Listen: "127.0.0.1:8799"},
		Embedding: config.EmbeddingConfig{
			Provider:   "openai",
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
			Timeout:    30 * time.Second,
		},
		Storage: config.StorageConfig{
			Backend: "sqlite",
			Timeout: 10 * time.Second,
		},
		Search: config.SearchConfig{Threshold: 0.65, K: 5},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	errs := cfg.Validate()
	assert.Empty(t, errs, "valid config should produce no validation errors")
}

func TestValidate_ServerListen(t *testing.T) {
	tests := []struct {
		name    string
		listen  string
		wantErr bool
	}{
		{"valid host:port", "127.0.0.1:8799", false},
		{"valid bare port", ":8799", false},
		{"empty", "", true},
		{"missing port", "127.0.0.1", true},
		{"non-numeric port", "127.0.0.1:http", true},
		{"port zero", "127.0.0.1:0", true},
		{"port too large", "127.0.0.1:70000", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.Listen = tt.listen
			errs := cfg.Validate()
			if tt.wantErr {
				require.NotEmpty(t, errs)
				assert.Contains(t, errs[0].Error(), "server.listen")
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestValidate_Embedding(t *testing.T) {
	t.Run("unknown provider", func(t *testing.T) {
		cfg := validConfig()
		cfg.Embedding.Provider = "cohere"
		errs := cfg.Validate()
		require.NotEmpty(t, errs)
		assert.Contains(t, errs[0].Error(), "embedding.provider")
	})

	t.Run("zero dimensions", func(t *testing.T) {
		cfg := validConfig()
		cfg.Embedding.Dimensions = 0
		errs := cfg.Validate()
		require.NotEmpty(t, errs)
		assert.Contains(t, errs[0].Error(), "embedding.dimensions")
	})

	t.Run("zero timeout", func(t *testing.T) {
		cfg := validConfig()
		cfg.Embedding.Timeout = 0
		errs := cfg.Validate()
		require.NotEmpty(t, errs)
		assert.Contains(t, errs[0].Error(), "embedding.timeout")
	})
}

func TestValidate_Storage(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = "postgres"
	errs := cfg.Validate()
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "storage.backend")

	cfg = validConfig()
	cfg.Storage.Backend = "memory"
	assert.Empty(t, cfg.Validate())
}

func TestValidate_Search(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		k         int
		wantErr   string
	}{
		{"defaults", 0.65, 5, ""},
		{"threshold low bound", -1, 5, ""},
		{"threshold high bound", 1, 5, ""},
		{"threshold below range", -1.5, 5, "search.threshold"},
		{"threshold above range", 1.5, 5, "search.threshold"},
		{"k zero", 0.65, 0, ""},
		{"k negative", 0.65, -1, "search.k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Search.Threshold = tt.threshold
			cfg.Search.K = tt.k
			errs := cfg.Validate()
			if tt.wantErr == "" {
				assert.Empty(t, errs)
			} else {
				require.NotEmpty(t, errs)
				assert.Contains(t, errs[0].Error(), tt.wantErr)
			}
		})
	}
}

func TestValidate_Suggest(t *testing.T) {
	for _, provider := range []string{"", "openai", "anthropic", "google"} {
		cfg := validConfig()
		cfg.Suggest.Provider = provider
		assert.Empty(t, cfg.Validate(), "provider %q should validate", provider)
	}

	cfg := validConfig()
	cfg.Suggest.Provider = "mistral"
	errs := cfg.Validate()
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "suggest.provider")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Listen = ""
	cfg.Embedding.Provider = "cohere"
	cfg.Storage.Backend = "postgres"

	errs := cfg.Validate()
	assert.Len(t, errs, 3)
}

func TestDefaultConfigYAML_IsValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triage.yaml")
	require.NoError(t, os.WriteFile(path, config.DefaultConfigYAML, 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
}
