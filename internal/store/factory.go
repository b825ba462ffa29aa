// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package store

import (
	"sync"

	triageerr "github.com/triage-dev/triage/pkg/errors"
)

// defaultVectorDimensions is the default embedding dimension (matches OpenAI
// text-embedding-3-small).
const defaultVectorDimensions = 1536

// Factory creates a RecordStore for a backend from its configuration.
type Factory func(cfg StorageConfig) (RecordStore, error)

var (
	factories   = map[string]Factory{}
	factoriesMu sync.RWMutex
)

// RegisterBackend registers a factory for a named storage backend. Backend
// packages call this from init(). This function is goroutine-safe.
func RegisterBackend(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// resolveBackend returns the effective backend name, defaulting to "sqlite".
func resolveBackend(cfg StorageConfig) string {
	if cfg.Backend == "" {
		return "sqlite"
	}
	return cfg.Backend
}

// NewRecordStore creates the record store for the configured backend.
func NewRecordStore(cfg StorageConfig) (RecordStore, error) {
	backend := resolveBackend(cfg)

	factoriesMu.RLock()
	factory, ok := factories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, triageerr.Errorf(triageerr.CodeStoreBackendUnsupported,
			"unsupported storage backend: %q", backend)
	}

	if cfg.VectorDimensions <= 0 {
		cfg.VectorDimensions = defaultVectorDimensions
	}

	return factory(cfg)
}
