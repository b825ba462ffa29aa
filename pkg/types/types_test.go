// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBest(t *testing.T) {
	assert.Nil(t, Best(nil))
	assert.Nil(t, Best([]Match{}))

	matches := []Match{
		{MatchedText: "disk full on server A", Similarity: 0.91},
		{MatchedText: "disk almost full", Similarity: 0.72},
	}
	best := Best(matches)
	require.NotNil(t, best)
	assert.Equal(t, "disk full on server A", best.MatchedText)
}

func TestIngestModeValid(t *testing.T) {
	assert.True(t, IngestModeFailFast.Valid())
	assert.True(t, IngestModeBestEffort.Valid())
	assert.False(t, IngestMode("yolo").Valid())
}

func TestParseIngestMode(t *testing.T) {
	m, err := ParseIngestMode("")
	require.NoError(t, err)
	assert.Equal(t, IngestModeFailFast, m)

	m, err = ParseIngestMode("Best-Effort")
	require.NoError(t, err)
	assert.Equal(t, IngestModeBestEffort, m)

	_, err = ParseIngestMode("sometimes")
	assert.Error(t, err)
}
