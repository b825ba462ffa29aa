// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package secrets

import (
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	triageerr "github.com/triage-dev/triage/pkg/errors"
)

const keyringScheme = "keyring://"

// IsKeyringURI reports whether value uses the keyring:// URI scheme.
func IsKeyringURI(value string) bool {
	return strings.HasPrefix(value, keyringScheme)
}

// ParseKeyringURI extracts service and key from a keyring://service/key URI.
// Returns an error if the URI is malformed.
func ParseKeyringURI(uri string) (service, key string, err error) {
	if !IsKeyringURI(uri) {
		return "", "", triageerr.Errorf(triageerr.CodeSecretInvalidInput, "not a keyring URI: %q", uri)
	}

	path := strings.TrimPrefix(uri, keyringScheme)
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", triageerr.Errorf(triageerr.CodeSecretInvalidInput,
			"invalid keyring URI %q: expected keyring://service/key", uri)
	}

	return parts[0], parts[1], nil
}

// ResolveKeyringURI resolves a single keyring:// URI to its secret value.
// Returns the original value unchanged if it is not a keyring URI.
func ResolveKeyringURI(store Store, value string) (string, error) {
	if !IsKeyringURI(value) {
		return value, nil
	}

	service, key, err := ParseKeyringURI(value)
	if err != nil {
		return "", err
	}

	secret, err := store.Retrieve(service, key)
	if err != nil {
		return "", triageerr.Wrapf(err, triageerr.CodeSecretResolveFailure,
			"resolving keyring URI %q", value)
	}

	return secret, nil
}

// ResolveViperSecrets walks all keys in a Viper instance and resolves any
// string values that use the keyring:// URI scheme. This is a post-load
// resolution step, not a Viper decoder hook.
//
// Resolution failures are logged as warnings and the original URI value is
// kept in place, allowing the application to surface the error later when
// the config value is actually used.
func ResolveViperSecrets(v *viper.Viper, store Store) {
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if !IsKeyringURI(val) {
			continue
		}

		resolved, err := ResolveKeyringURI(store, val)
		if err != nil {
			slog.Warn("failed to resolve keyring URI, keeping original value",
				"config_key", key,
				"error", err,
			)
			continue
		}

		v.Set(key, resolved)
	}
}

// LookupAPIKey implements the api-key resolution order for a provider:
// explicit config value first, then the OS keyring under the default
// service. Environment overrides are handled upstream by viper before the
// config value reaches this function. An empty return means no key is
// configured anywhere.
func LookupAPIKey(store Store, configValue, keyName string) (string, error) {
	if configValue != "" {
		return ResolveKeyringURI(store, configValue)
	}

	val, err := store.Retrieve(DefaultService, keyName)
	if err != nil {
		if triageerr.HasCode(err, triageerr.CodeSecretNotFound) {
			return "", nil
		}
		return "", err
	}
	return val, nil
}
