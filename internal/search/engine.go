// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/triage-dev/triage/internal/embed"
	"github.com/triage-dev/triage/internal/store"
	triageerr "github.com/triage-dev/triage/pkg/errors"
	"github.com/triage-dev/triage/pkg/types"
)

const (
	// DefaultThreshold is the minimum cosine similarity a candidate must
	// reach to count as a match. A tunable default, not a correctness
	// constant.
	DefaultThreshold = 0.65

	// DefaultK is the default result cardinality.
	DefaultK = 5
)

// Options configures a single search.
type Options struct {
	Threshold float64 // minimum similarity, in [-1, 1]
	K         int     // maximum number of matches, >= 0
}

// DefaultOptions returns the engine's configured defaults.
func (e *Engine) DefaultOptions() Options {
	return Options{Threshold: e.threshold, K: e.k}
}

// validate rejects malformed options before any collaborator is called.
func (o Options) validate() error {
	if o.K < 0 {
		return triageerr.Errorf(triageerr.CodeSearchRequestInvalid, "k must be >= 0, got %d", o.K)
	}
	if o.Threshold < -1 || o.Threshold > 1 {
		return triageerr.Errorf(triageerr.CodeSearchRequestInvalid,
			"threshold must be in [-1, 1], got %g", o.Threshold)
	}
	return nil
}

// Engine ranks stored records against a query text by cosine similarity.
// It holds its collaborators explicitly so tests can substitute a fake
// embedder and an in-memory store.
type Engine struct {
	embedder  embed.Embedder
	records   store.RecordStore
	threshold float64
	k         int
	logger    *slog.Logger
}

// Option customizes an Engine at construction time.
type Option func(*Engine)

// WithDefaults overrides the engine's default threshold and k.
func WithDefaults(threshold float64, k int) Option {
	return func(e *Engine) {
		e.threshold = threshold
		e.k = k
	}
}

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates a search engine over the given embedder and record store.
func NewEngine(embedder embed.Embedder, records store.RecordStore, opts ...Option) *Engine {
	e := &Engine{
		embedder:  embedder,
		records:   records,
		threshold: DefaultThreshold,
		k:         DefaultK,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search embeds the query, retrieves the nearest stored records, and keeps
// those at or above the threshold, preserving rank order. A blank query is
// a side-effect-free no-op returning an empty result. Embedder and store
// failures propagate unmodified so callers can tell "search failed" from
// "no matches found".
func (e *Engine) Search(ctx context.Context, query string, opts Options) ([]types.Match, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(query) == "" {
		return []types.Match{}, nil
	}
	if opts.K == 0 {
		return []types.Match{}, nil
	}

	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	candidates, err := e.records.QueryNearest(ctx, vec, opts.K)
	if err != nil {
		return nil, err
	}

	matches := make([]types.Match, 0, len(candidates))
	for _, c := range candidates {
		if c.Similarity < opts.Threshold {
			continue
		}
		matches = append(matches, types.Match{
			MatchedText:    c.Record.SourceText,
			ResolutionText: c.Record.ResolutionText,
			Similarity:     c.Similarity,
		})
	}

	e.logger.DebugContext(ctx, "search complete",
		slog.Int("candidates", len(candidates)),
		slog.Int("matches", len(matches)),
		slog.Float64("threshold", opts.Threshold),
	)

	return matches, nil
}
