// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package ingest

import (
	"context"
	"log/slog"
	"strings"

	"github.com/triage-dev/triage/internal/embed"
	"github.com/triage-dev/triage/internal/search"
	"github.com/triage-dev/triage/internal/store"
	triageerr "github.com/triage-dev/triage/pkg/errors"
	"github.com/triage-dev/triage/pkg/types"
)

// Pipeline ingests (description, resolution) pairs: it searches for matches
// among previously committed records, then unconditionally embeds and
// persists the pair. Collaborators are injected at construction time.
type Pipeline struct {
	embedder embed.Embedder
	records  store.RecordStore
	engine   *search.Engine
	logger   *slog.Logger
}

// Option customizes a Pipeline at construction time.
type Option func(*Pipeline)

// WithLogger sets the pipeline's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// NewPipeline creates an ingestion pipeline over the given collaborators.
// The engine's default threshold and k govern the pre-insertion search.
func NewPipeline(embedder embed.Embedder, records store.RecordStore, engine *search.Engine, opts ...Option) *Pipeline {
	p := &Pipeline{
		embedder: embedder,
		records:  records,
		engine:   engine,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest processes a single pair. The search runs before the insert, so a
// pair never matches itself; the insert happens unconditionally, even when
// the resolution is empty or matches were found. A blank description skips
// the pair entirely: no search, no embed, no insert.
func (p *Pipeline) Ingest(ctx context.Context, pair types.Pair) (types.IngestResult, error) {
	result := types.IngestResult{Pair: pair}

	if strings.TrimSpace(pair.Description) == "" {
		result.Skipped = true
		return result, nil
	}

	matches, err := p.engine.Search(ctx, pair.Description, p.engine.DefaultOptions())
	if err != nil {
		result.Err = err
		return result, err
	}
	result.Matches = matches

	vec, err := p.embedder.Embed(ctx, pair.Description)
	if err != nil {
		result.Err = err
		return result, err
	}

	id, err := p.records.Insert(ctx, pair.Description, vec, pair.Resolution)
	if err != nil {
		result.Err = err
		return result, err
	}
	result.RecordID = id

	p.logger.DebugContext(ctx, "pair ingested",
		slog.Int64("record_id", id),
		slog.Int("matches", len(matches)),
	)

	return result, nil
}

// IngestBatch processes pairs strictly in input order, one at a time. Each
// pair's insert commits before the next pair's search begins, so later
// duplicates in the same batch find earlier ones. Context cancellation is
// checked between pairs: the current pair always completes, then the batch
// stops with the results collected so far.
//
// In fail-fast mode the batch stops at the first failed pair and returns
// its error alongside the per-pair results. In best-effort mode failures
// are recorded per pair and processing continues; the returned error is nil.
func (p *Pipeline) IngestBatch(ctx context.Context, pairs []types.Pair, mode types.IngestMode) ([]types.IngestResult, error) {
	if !mode.Valid() {
		return nil, triageerr.Errorf(triageerr.CodeIngestPairInvalid, "invalid ingest mode: %q", mode)
	}

	results := make([]types.IngestResult, 0, len(pairs))
	for i, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return results, triageerr.Wrapf(err, triageerr.CodeIngestBatchAborted,
				"batch stopped after %d of %d pairs", i, len(pairs))
		}

		result, err := p.Ingest(ctx, pair)
		results = append(results, result)
		if err == nil {
			continue
		}

		if mode == types.IngestModeFailFast {
			return results, triageerr.Wrapf(err, triageerr.CodeIngestBatchAborted,
				"pair %d of %d failed", i+1, len(pairs))
		}

		p.logger.WarnContext(ctx, "pair failed, continuing batch",
			slog.Int("pair", i+1),
			slog.String("error", err.Error()),
		)
	}

	return results, nil
}
