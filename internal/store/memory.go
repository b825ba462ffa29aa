// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package store

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	triageerr "github.com/triage-dev/triage/pkg/errors"
)

func init() {
	RegisterBackend("memory", func(cfg StorageConfig) (RecordStore, error) {
		return NewMemoryStore(cfg.VectorDimensions), nil
	})
}

// Compile-time interface check.
var _ RecordStore = (*MemoryStore)(nil)

// MemoryStore is an in-process RecordStore. It keeps every record in a
// slice and scores queries with cosine similarity computed in Go. Intended
// for tests and zero-setup deployments; inserts and queries are serialized
// by a single mutex, so readers never observe a partially written record.
type MemoryStore struct {
	mu      sync.RWMutex
	dims    int
	nextID  int64
	records []Record
	closed  bool
}

// NewMemoryStore creates a MemoryStore with the given fixed dimension.
func NewMemoryStore(dims int) *MemoryStore {
	if dims <= 0 {
		dims = defaultVectorDimensions
	}
	return &MemoryStore{dims: dims, nextID: 1}
}

func (m *MemoryStore) Dimensions() int { return m.dims }

func (m *MemoryStore) Insert(_ context.Context, sourceText string, embedding []float32, resolutionText string) (int64, error) {
	if sourceText == "" {
		return 0, triageerr.New(triageerr.CodeStoreInvalidInput, "source text must not be empty")
	}
	if len(embedding) != m.dims {
		return 0, triageerr.New(triageerr.CodeStoreDimensionMismatch,
			"embedding has wrong dimension",
			triageerr.FieldBackend("memory"),
			triageerr.Field("want", m.dims),
			triageerr.Field("got", len(embedding)),
		)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, triageerr.New(triageerr.CodeStoreBackendUnavailable, "memory store is closed",
			triageerr.FieldBackend("memory"))
	}

	vec := make([]float32, len(embedding))
	copy(vec, embedding)

	rec := Record{
		ID:             m.nextID,
		SourceText:     sourceText,
		Embedding:      vec,
		ResolutionText: resolutionText,
		CreatedAt:      time.Now().UTC(),
	}
	m.nextID++
	m.records = append(m.records, rec)
	return rec.ID, nil
}

func (m *MemoryStore) QueryNearest(_ context.Context, embedding []float32, k int) ([]ScoredRecord, error) {
	if len(embedding) != m.dims {
		return nil, triageerr.New(triageerr.CodeStoreDimensionMismatch,
			"query vector has wrong dimension",
			triageerr.FieldBackend("memory"),
			triageerr.Field("want", m.dims),
			triageerr.Field("got", len(embedding)),
		)
	}
	if k <= 0 {
		return []ScoredRecord{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, triageerr.New(triageerr.CodeStoreBackendUnavailable, "memory store is closed",
			triageerr.FieldBackend("memory"))
	}

	scored := make([]ScoredRecord, 0, len(m.records))
	for _, rec := range m.records {
		scored = append(scored, ScoredRecord{
			Record:     rec,
			Similarity: cosineSimilarity(embedding, rec.Embedding),
		})
	}

	// Records are appended in ID order, so a stable sort on similarity
	// preserves insertion order between equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func (m *MemoryStore) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, triageerr.New(triageerr.CodeStoreBackendUnavailable, "memory store is closed",
			triageerr.FieldBackend("memory"))
	}
	return int64(len(m.records)), nil
}

func (m *MemoryStore) Ping(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return triageerr.New(triageerr.CodeStoreBackendUnavailable, "memory store is closed",
			triageerr.FieldBackend("memory"))
	}
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.records = nil
	return nil
}

// cosineSimilarity returns dot(a,b) / (|a| * |b|), or 0 when either vector
// has zero magnitude.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
