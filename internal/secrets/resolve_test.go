// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package secrets_test

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triage-dev/triage/internal/secrets"
	triageerr "github.com/triage-dev/triage/pkg/errors"
)

func TestIsKeyringURI(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"valid URI", "keyring://triage/embedding", true},
		{"valid URI with dashes", "keyring://my-svc/my-key", true},
		{"env var reference", "${OPENAI_API_KEY}", false},
		{"literal value", "sk-abc123", false},
		{"empty string", "", false},
		{"just scheme", "keyring://", true},
		{"other scheme", "vault://secret/key", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := secrets.IsKeyringURI(tt.value)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKeyringURI(t *testing.T) {
	tests := []struct {
		name        string
		uri         string
		wantService string
		wantKey     string
		wantErr     bool
	}{
		{"valid", "keyring://triage/embedding", "triage", "embedding", false},
		{"dashes", "keyring://my-service/my-key-name", "my-service", "my-key-name", false},
		{"slashes in key", "keyring://triage/path/to/key", "triage", "path/to/key", false},
		{"not a keyring URI", "vault://secret/key", "", "", true},
		{"missing key", "keyring://triage/", "", "", true},
		{"missing service", "keyring:///key", "", "", true},
		{"missing both", "keyring://", "", "", true},
		{"no path", "keyring://triage", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, key, err := secrets.ParseKeyringURI(tt.uri)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, triageerr.HasCode(err, triageerr.CodeSecretInvalidInput))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantService, svc)
				assert.Equal(t, tt.wantKey, key)
			}
		})
	}
}

func TestResolveKeyringURI(t *testing.T) {
	ks := secrets.NewKeyringStore()
	require.NoError(t, ks.Store("triage", "test-key", "resolved-secret"))

	t.Run("resolves keyring URI", func(t *testing.T) {
		val, err := secrets.ResolveKeyringURI(ks, "keyring://triage/test-key")
		require.NoError(t, err)
		assert.Equal(t, "resolved-secret", val)
	})

	t.Run("passes through non-keyring values", func(t *testing.T) {
		val, err := secrets.ResolveKeyringURI(ks, "literal-value")
		require.NoError(t, err)
		assert.Equal(t, "literal-value", val)
	})

	t.Run("error on missing secret", func(t *testing.T) {
		_, err := secrets.ResolveKeyringURI(ks, "keyring://triage/nonexistent")
		require.Error(t, err)
		assert.True(t, triageerr.HasCode(err, triageerr.CodeSecretResolveFailure))
	})

	t.Run("error on malformed URI", func(t *testing.T) {
		_, err := secrets.ResolveKeyringURI(ks, "keyring://bad")
		require.Error(t, err)
	})
}

func TestResolveViperSecrets(t *testing.T) {
	ks := secrets.NewKeyringStore()
	require.NoError(t, ks.Store("triage", "embedding-api-key", "sk-oai-secret"))

	v := viper.New()
	v.Set("embedding.api_key", "keyring://triage/embedding-api-key")
	v.Set("suggest.api_key", "keyring://triage/missing-key") // unresolvable, kept as-is
	v.Set("server.listen", "127.0.0.1:8799")

	secrets.ResolveViperSecrets(v, ks)

	assert.Equal(t, "sk-oai-secret", v.GetString("embedding.api_key"))
	assert.Equal(t, "keyring://triage/missing-key", v.GetString("suggest.api_key"))
	assert.Equal(t, "127.0.0.1:8799", v.GetString("server.listen"))
}

func TestLookupAPIKey(t *testing.T) {
	ks := secrets.NewKeyringStore()
	require.NoError(t, ks.Store(secrets.DefaultService, "embedding", "keyring-key"))

	t.Run("config value wins", func(t *testing.T) {
		val, err := secrets.LookupAPIKey(ks, "explicit-key", "embedding")
		require.NoError(t, err)
		assert.Equal(t, "explicit-key", val)
	})

	t.Run("config keyring URI is resolved", func(t *testing.T) {
		val, err := secrets.LookupAPIKey(ks, "keyring://triage/embedding", "embedding")
		require.NoError(t, err)
		assert.Equal(t, "keyring-key", val)
	})

	t.Run("falls back to keyring", func(t *testing.T) {
		val, err := secrets.LookupAPIKey(ks, "", "embedding")
		require.NoError(t, err)
		assert.Equal(t, "keyring-key", val)
	})

	t.Run("missing everywhere returns empty", func(t *testing.T) {
		val, err := secrets.LookupAPIKey(ks, "", "no-such-key")
		require.NoError(t, err)
		assert.Empty(t, val)
	})
}
