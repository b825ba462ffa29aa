// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/triage-dev/triage/internal/search"
	"github.com/triage-dev/triage/internal/suggest"
	triageerr "github.com/triage-dev/triage/pkg/errors"
	"github.com/triage-dev/triage/pkg/types"
)

// SearchService runs similarity searches for the API.
type SearchService interface {
	Search(ctx context.Context, query string, opts search.Options) ([]types.Match, error)
	DefaultOptions() search.Options
}

// IngestService stores ticket batches for the API.
type IngestService interface {
	IngestBatch(ctx context.Context, pairs []types.Pair, mode types.IngestMode) ([]types.IngestResult, error)
}

// StatusService exposes store health for the status endpoint.
type StatusService interface {
	Count(ctx context.Context) (int64, error)
	Dimensions() int
	Ping(ctx context.Context) error
}

// Services bundles the dependencies the REST routes call into.
// Suggest may be nil, which disables the suggestion endpoint.
type Services struct {
	Search         SearchService
	Ingest         IngestService
	Suggest        suggest.Provider
	Status         StatusService
	EmbeddingModel string
	Version        string
}

// RegisterServices sets the service dependencies and registers REST routes.
func (s *Server) RegisterServices(svc *Services) {
	s.services = svc
	s.registerRoutes()
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search-tickets",
		Method:      http.MethodPost,
		Path:        "/api/v1/search",
		Summary:     "Find similar resolved tickets",
		Tags:        []string{"search"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "suggest-resolution",
		Method:      http.MethodPost,
		Path:        "/api/v1/suggest",
		Summary:     "Draft a resolution suggestion from similar tickets",
		Tags:        []string{"search"},
	}, s.handleSuggest)

	huma.Register(s.api, huma.Operation{
		OperationID: "ingest-tickets",
		Method:      http.MethodPost,
		Path:        "/api/v1/ingest",
		Summary:     "Ingest a batch of resolved tickets",
		Tags:        []string{"ingest"},
	}, s.handleIngest)

	huma.Register(s.api, huma.Operation{
		OperationID: "service-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/status",
		Summary:     "Service status",
		Tags:        []string{"system"},
	}, s.handleStatus)
}

// --- Request/Response types for huma ---

type searchInput struct {
	Body struct {
		Query     string   `json:"query" minLength:"1" doc:"Incident description to search for"`
		K         *int     `json:"k,omitempty" doc:"Maximum number of matches, defaults to the configured value"`
		Threshold *float64 `json:"threshold,omitempty" doc:"Minimum cosine similarity, defaults to the configured value"`
	}
}
type searchOutput struct {
	Body struct {
		Matches []types.Match `json:"matches"`
		Best    *types.Match  `json:"best" doc:"First match, null when nothing cleared the threshold"`
	}
}

type suggestOutput struct {
	Body struct {
		Suggestion string        `json:"suggestion" doc:"Drafted resolution, empty when no tickets matched"`
		Matches    []types.Match `json:"matches"`
	}
}

type ingestInput struct {
	Body struct {
		Pairs []ingestPair `json:"pairs" minItems:"1" doc:"Resolved tickets to store"`
		Mode  string       `json:"mode,omitempty" enum:"fail-fast,best-effort" doc:"Batch error handling, defaults to fail-fast"`
	}
}
type ingestPair struct {
	Description string `json:"description" doc:"Incident description"`
	Resolution  string `json:"resolution,omitempty" doc:"How the incident was resolved"`
}
type ingestOutput struct {
	Body struct {
		BatchID string             `json:"batch_id" doc:"Correlation ID for this batch"`
		Results []ingestPairResult `json:"results"`
	}
}
type ingestPairResult struct {
	RecordID int64         `json:"record_id,omitempty" doc:"Assigned record ID, zero when skipped or failed"`
	Skipped  bool          `json:"skipped,omitempty" doc:"True when the description was blank"`
	Error    string        `json:"error,omitempty" doc:"Per-ticket failure, best-effort mode only"`
	Matches  []types.Match `json:"matches,omitempty" doc:"Similar tickets found before this one was stored"`
	Best     *types.Match  `json:"best" doc:"First match, null when nothing cleared the threshold"`
}

// ingestAbortError is the fail-fast abort response. Earlier pairs in the
// batch are already committed, so the per-pair results must survive the
// error path or the caller cannot tell which tickets were stored.
// Implements huma.StatusError so huma serializes it as the error body.
type ingestAbortError struct {
	Title   string             `json:"title,omitempty"`
	Status  int                `json:"status,omitempty"`
	Detail  string             `json:"detail,omitempty"`
	BatchID string             `json:"batch_id"`
	Results []ingestPairResult `json:"results"`
}

func (e *ingestAbortError) Error() string { return e.Detail }

func (e *ingestAbortError) GetStatus() int { return e.Status }

type statusOutput struct {
	Body struct {
		Status         string `json:"status" example:"ok" doc:"Service status"`
		Records        int64  `json:"records" doc:"Number of stored tickets"`
		Dimensions     int    `json:"dimensions" doc:"Embedding vector dimension"`
		EmbeddingModel string `json:"embedding_model" doc:"Embedding model in use"`
		Version        string `json:"version,omitempty"`
	}
}

// --- Handlers ---

func (s *Server) searchOptions(k *int, threshold *float64) search.Options {
	opts := s.services.Search.DefaultOptions()
	if k != nil {
		opts.K = *k
	}
	if threshold != nil {
		opts.Threshold = *threshold
	}
	return opts
}

func (s *Server) handleSearch(ctx context.Context, input *searchInput) (*searchOutput, error) {
	matches, err := s.services.Search.Search(ctx, input.Body.Query, s.searchOptions(input.Body.K, input.Body.Threshold))
	if err != nil {
		return nil, apiError(err, "search failed")
	}

	out := &searchOutput{}
	out.Body.Matches = matches
	out.Body.Best = types.Best(matches)
	if out.Body.Matches == nil {
		out.Body.Matches = []types.Match{}
	}
	return out, nil
}

func (s *Server) handleSuggest(ctx context.Context, input *searchInput) (*suggestOutput, error) {
	if s.services.Suggest == nil {
		return nil, huma.Error503ServiceUnavailable("no suggestion provider configured")
	}

	matches, err := s.services.Search.Search(ctx, input.Body.Query, s.searchOptions(input.Body.K, input.Body.Threshold))
	if err != nil {
		return nil, apiError(err, "search failed")
	}

	out := &suggestOutput{}
	out.Body.Matches = matches
	if out.Body.Matches == nil {
		out.Body.Matches = []types.Match{}
	}

	if len(matches) == 0 {
		// Nothing to draft from. The empty suggestion tells the caller
		// no similar ticket cleared the threshold.
		return out, nil
	}

	suggestion, err := s.services.Suggest.Suggest(ctx, input.Body.Query, matches)
	if err != nil {
		return nil, apiError(err, "suggestion failed")
	}
	out.Body.Suggestion = suggestion
	return out, nil
}

func (s *Server) handleIngest(ctx context.Context, input *ingestInput) (*ingestOutput, error) {
	mode, err := types.ParseIngestMode(input.Body.Mode)
	if err != nil {
		return nil, apiError(err, "invalid ingest mode")
	}

	pairs := make([]types.Pair, len(input.Body.Pairs))
	for i, p := range input.Body.Pairs {
		pairs[i] = types.Pair{Description: p.Description, Resolution: p.Resolution}
	}

	batchID := uuid.NewString()
	results, err := s.services.Ingest.IngestBatch(ctx, pairs, mode)

	out := &ingestOutput{}
	out.Body.BatchID = batchID
	out.Body.Results = make([]ingestPairResult, len(results))
	for i, res := range results {
		out.Body.Results[i] = ingestPairResult{
			RecordID: res.RecordID,
			Skipped:  res.Skipped,
			Matches:  res.Matches,
			Best:     types.Best(res.Matches),
		}
		if res.Err != nil {
			out.Body.Results[i].Error = res.Err.Error()
		}
	}

	if err != nil {
		// Fail-fast abort. Partial results describe what was stored before
		// the failure; the batch ID still correlates them.
		slog.WarnContext(ctx, "ingest batch aborted", "batch_id", batchID, "error", err)
		status := triageerr.HTTPStatus(err)
		return nil, &ingestAbortError{
			Title:   http.StatusText(status),
			Status:  status,
			Detail:  "ingest aborted: " + err.Error(),
			BatchID: batchID,
			Results: out.Body.Results,
		}
	}

	return out, nil
}

func (s *Server) handleStatus(ctx context.Context, _ *struct{}) (*statusOutput, error) {
	out := &statusOutput{}
	out.Body.Status = "ok"
	out.Body.Dimensions = s.services.Status.Dimensions()
	out.Body.EmbeddingModel = s.services.EmbeddingModel
	out.Body.Version = s.services.Version

	if err := s.services.Status.Ping(ctx); err != nil {
		out.Body.Status = "degraded"
		return out, nil
	}

	count, err := s.services.Status.Count(ctx)
	if err != nil {
		return nil, apiError(err, "counting records")
	}
	out.Body.Records = count

	return out, nil
}

// apiError maps a typed error onto the matching huma status error.
func apiError(err error, msg string) error {
	return huma.NewError(triageerr.HTTPStatus(err), msg, err)
}
