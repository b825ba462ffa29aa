// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package types

// Pair is one incoming (description, resolution) ticket pair.
// Resolution may be empty; a pair with a blank description is skipped
// by the ingestion pipeline.
type Pair struct {
	Description string `json:"description"`
	Resolution  string `json:"resolution"`
}

// Match is one similarity-search hit. Similarity is cosine similarity in
// [-1, 1]; 1 means identical direction.
type Match struct {
	MatchedText    string  `json:"matched_text"`
	ResolutionText string  `json:"resolution_text"`
	Similarity     float64 `json:"similarity_score"`
}

// IngestResult is the per-pair outcome of a batch ingest. Matches are the
// hits found before the pair itself was inserted. RecordID is 0 when the
// pair was skipped or its insert failed.
type IngestResult struct {
	Pair     Pair
	Matches  []Match
	RecordID int64
	Skipped  bool
	Err      error
}

// Best returns the highest-ranked match, or nil when there are none.
// The input must already be ordered by descending similarity.
func Best(matches []Match) *Match {
	if len(matches) == 0 {
		return nil
	}
	return &matches[0]
}
