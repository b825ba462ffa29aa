// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package ingest_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/triage-dev/triage/internal/embed"
	"github.com/triage-dev/triage/internal/ingest"
	"github.com/triage-dev/triage/internal/search"
	"github.com/triage-dev/triage/internal/store"
	triageerr "github.com/triage-dev/triage/pkg/errors"
	"github.com/triage-dev/triage/pkg/types"
)

const testDims = 256

// countingEmbedder counts Embed calls and optionally fails after a number
// of successful calls.
type countingEmbedder struct {
	embed.Embedder
	calls     int
	failAfter int // fail once calls exceeds this; 0 disables
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	if c.failAfter > 0 && c.calls > c.failAfter {
		return nil, triageerr.New(triageerr.CodeEmbedModelUnavailable, "model not loaded")
	}
	return c.Embedder.Embed(ctx, text)
}

func newFixture(t *testing.T) (*countingEmbedder, *store.MemoryStore, *ingest.Pipeline) {
	t.Helper()
	emb := &countingEmbedder{Embedder: embed.NewHash(testDims)}
	ms := store.NewMemoryStore(testDims)
	t.Cleanup(func() { _ = ms.Close() })
	eng := search.NewEngine(emb, ms)
	return emb, ms, ingest.NewPipeline(emb, ms, eng)
}

func TestIngest_StoresPairAndReturnsPriorMatches(t *testing.T) {
	ctx := context.Background()
	_, ms, p := newFixture(t)

	result, err := p.Ingest(ctx, types.Pair{Description: "server down", Resolution: "rebooted"})
	require.NoError(t, err)
	assert.Empty(t, result.Matches, "first pair has nothing to match against")
	assert.Positive(t, result.RecordID)
	assert.False(t, result.Skipped)

	n, err := ms.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestIngest_InsertsEvenWhenMatchesFound(t *testing.T) {
	ctx := context.Background()
	_, ms, p := newFixture(t)

	_, err := p.Ingest(ctx, types.Pair{Description: "server down", Resolution: "rebooted"})
	require.NoError(t, err)

	result, err := p.Ingest(ctx, types.Pair{Description: "server down", Resolution: "rebooted again"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Matches, "duplicate should match the earlier record")

	// The insert is unconditional: the corpus still grows.
	n, err := ms.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestIngest_EmptyResolutionStillInserted(t *testing.T) {
	ctx := context.Background()
	_, ms, p := newFixture(t)

	result, err := p.Ingest(ctx, types.Pair{Description: "mystery crash", Resolution: ""})
	require.NoError(t, err)
	assert.Positive(t, result.RecordID)

	n, err := ms.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestIngest_BlankDescriptionSkipsEntirely(t *testing.T) {
	ctx := context.Background()
	emb, ms, p := newFixture(t)

	result, err := p.Ingest(ctx, types.Pair{Description: "   ", Resolution: "some fix"})
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Empty(t, result.Matches)
	assert.Zero(t, result.RecordID)

	assert.Zero(t, emb.calls, "blank description must not reach the embedder")
	n, err := ms.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n, "blank description must not be inserted")
}

func TestIngestBatch_SelfDuplicateFindsEarlierPair(t *testing.T) {
	ctx := context.Background()
	_, _, p := newFixture(t)

	results, err := p.IngestBatch(ctx, []types.Pair{
		{Description: "server down", Resolution: "rebooted"},
		{Description: "server down", Resolution: "rebooted"},
	}, types.IngestModeFailFast)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Empty(t, results[0].Matches, "first pair sees an empty corpus")
	require.NotEmpty(t, results[1].Matches, "second pair must find the first")
	assert.Equal(t, "server down", results[1].Matches[0].MatchedText)
}

func TestIngestBatch_ProcessesInInputOrder(t *testing.T) {
	ctx := context.Background()
	_, _, p := newFixture(t)

	results, err := p.IngestBatch(ctx, []types.Pair{
		{Description: "vpn drops hourly", Resolution: "renewed cert"},
		{Description: "printer jam", Resolution: "cleared tray"},
		{Description: "vpn drops hourly", Resolution: "renewed cert"},
	}, types.IngestModeFailFast)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Less(t, results[0].RecordID, results[1].RecordID)
	assert.Less(t, results[1].RecordID, results[2].RecordID)
	assert.NotEmpty(t, results[2].Matches)
}

func TestIngestBatch_FailFastStopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	emb, ms, _ := newFixture(t)
	eng := search.NewEngine(emb, ms)
	p := ingest.NewPipeline(emb, ms, eng)

	// Each successful pair costs two Embed calls (search + insert); let
	// the second pair's search fail.
	emb.failAfter = 2

	results, err := p.IngestBatch(ctx, []types.Pair{
		{Description: "first", Resolution: "a"},
		{Description: "second", Resolution: "b"},
		{Description: "third", Resolution: "c"},
	}, types.IngestModeFailFast)

	require.Error(t, err)
	assert.True(t, triageerr.HasCode(err, triageerr.CodeIngestBatchAborted))
	require.Len(t, results, 2, "fail-fast returns the attempted pairs only")
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)

	n, cerr := ms.Count(ctx)
	require.NoError(t, cerr)
	assert.EqualValues(t, 1, n, "only the first pair was committed")
}

func TestIngestBatch_BestEffortContinuesPastFailure(t *testing.T) {
	ctx := context.Background()
	emb, ms, _ := newFixture(t)
	eng := search.NewEngine(emb, ms)
	p := ingest.NewPipeline(emb, ms, eng)

	emb.failAfter = 2 // second pair's search fails

	results, err := p.IngestBatch(ctx, []types.Pair{
		{Description: "first", Resolution: "a"},
		{Description: "second", Resolution: "b"},
	}, types.IngestModeBestEffort)

	require.NoError(t, err, "best-effort surfaces failures per pair, not as a batch error")
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)
	assert.True(t, triageerr.HasCode(results[1].Err, triageerr.CodeEmbedModelUnavailable))

	n, cerr := ms.Count(ctx)
	require.NoError(t, cerr)
	assert.EqualValues(t, 1, n)
}

func TestIngestBatch_SkippedPairsDoNotAbort(t *testing.T) {
	ctx := context.Background()
	_, ms, p := newFixture(t)

	results, err := p.IngestBatch(ctx, []types.Pair{
		{Description: "", Resolution: "orphaned fix"},
		{Description: "real ticket", Resolution: "real fix"},
	}, types.IngestModeFailFast)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Skipped)
	assert.Positive(t, results[1].RecordID)

	n, cerr := ms.Count(ctx)
	require.NoError(t, cerr)
	assert.EqualValues(t, 1, n)
}

func TestIngestBatch_CancellationStopsBetweenPairs(t *testing.T) {
	_, ms, p := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancelled before the batch starts

	results, err := p.IngestBatch(ctx, []types.Pair{
		{Description: "never processed", Resolution: ""},
	}, types.IngestModeFailFast)

	require.Error(t, err)
	assert.True(t, triageerr.HasCode(err, triageerr.CodeIngestBatchAborted))
	assert.Empty(t, results)

	n, cerr := ms.Count(context.Background())
	require.NoError(t, cerr)
	assert.EqualValues(t, 0, n, "no partial state after cancellation")
}

func TestIngestBatch_InvalidMode(t *testing.T) {
	ctx := context.Background()
	_, _, p := newFixture(t)

	_, err := p.IngestBatch(ctx, []types.Pair{{Description: "x"}}, types.IngestMode("maybe"))
	require.Error(t, err)
	assert.True(t, triageerr.IsInvalidInput(err))
}
