// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package store

import (
	"context"
	"time"
)

// Record is one persisted (description, embedding, resolution) tuple.
// Records are immutable once created; IDs are store-assigned, unique, and
// monotonically increasing in insertion order.
type Record struct {
	ID             int64
	SourceText     string
	Embedding      []float32
	ResolutionText string
	CreatedAt      time.Time
}

// ScoredRecord pairs a record with its cosine similarity to a query vector.
// Similarity is 1 - cosine_distance, in [-1, 1].
type ScoredRecord struct {
	Record     Record
	Similarity float64
}

// RecordStore persists ticket records and answers nearest-neighbor queries.
// The embedding dimension D is fixed at store creation; every operation
// taking a vector fails with store.record.dimension_mismatch when the
// vector's length differs from D.
type RecordStore interface {
	// Insert persists a new record and returns its assigned ID. A
	// successful insert is visible to subsequent QueryNearest calls.
	Insert(ctx context.Context, sourceText string, embedding []float32, resolutionText string) (int64, error)

	// QueryNearest returns up to k records ordered by descending
	// similarity to the query vector, ties broken by ascending ID.
	// An empty store yields an empty slice, not an error.
	QueryNearest(ctx context.Context, embedding []float32, k int) ([]ScoredRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// Dimensions returns the fixed embedding dimension D.
	Dimensions() int

	// Ping reports whether the backing engine is reachable.
	Ping(ctx context.Context) error

	Close() error
}
