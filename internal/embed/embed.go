// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package embed

import "context"

// Embedder turns text into a fixed-dimension vector. Implementations must be
// deterministic for a fixed model version: identical input yields identical
// output within floating-point reproducibility.
//
// Callers reject blank input before invoking Embed; implementations may
// assume non-empty text.
type Embedder interface {
	// Embed returns the embedding vector for text. The returned slice
	// always has length Dimensions().
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the fixed dimensionality of produced vectors.
	Dimensions() int

	// Model returns the model identifier, for logging and the status
	// endpoint.
	Model() string
}
