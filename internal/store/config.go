// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package store

import "time"

// StorageConfig controls which backend the store factory uses.
type StorageConfig struct {
	Backend          string        // "sqlite" (default) or "memory".
	Path             string        // Database file path; ignored by the memory backend.
	VectorDimensions int           // Embedding dimension D; 0 uses the default (1536).
	Timeout          time.Duration // Per-call deadline; 0 uses the 10s default.
}
