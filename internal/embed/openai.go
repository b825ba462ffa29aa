// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package embed

import (
	"context"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	triageerr "github.com/triage-dev/triage/pkg/errors"
)

// DefaultModel is the embedding model used when the config names none.
const DefaultModel = "text-embedding-3-small"

// DefaultDimensions matches text-embedding-3-small's native output size.
const DefaultDimensions = 1536

// OpenAIConfig holds OpenAI embedder configuration.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	Dimensions int
	BaseURL    string        // optional, useful for testing against a mock server
	Timeout    time.Duration // per-call deadline; 0 uses the 30s default
}

// Compile-time interface check.
var _ Embedder = (*OpenAIEmbedder)(nil)

// OpenAIEmbedder implements Embedder using the OpenAI Embeddings API.
type OpenAIEmbedder struct {
	client  openaisdk.Client
	model   string
	dims    int
	timeout time.Duration
}

// NewOpenAI creates an OpenAI-backed embedder. Returns an error if the API
// key is missing.
func NewOpenAI(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, triageerr.New(triageerr.CodeEmbedRequestInvalid,
			"openai embedder: missing api_key in config")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// Retry policy belongs to callers; the SDK default of two
		// retries would hide transient failures from them.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = DefaultDimensions
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIEmbedder{
		client:  openaisdk.NewClient(opts...),
		model:   model,
		dims:    dims,
		timeout: timeout,
	}, nil
}

func (e *OpenAIEmbedder) Model() string { return e.model }

func (e *OpenAIEmbedder) Dimensions() int { return e.dims }

// Embed requests a single embedding. The call is bounded by the configured
// timeout so a stalled upstream fails instead of hanging the pipeline.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input:      openaisdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{text}},
		Model:      openaisdk.EmbeddingModel(e.model),
		Dimensions: openaisdk.Int(int64(e.dims)),
	})
	if err != nil {
		return nil, triageerr.Wrapf(err, triageerr.CodeEmbedModelUnavailable,
			"embedding with %s", e.model)
	}

	if len(resp.Data) != 1 {
		return nil, triageerr.Errorf(triageerr.CodeEmbedResponseInvalid,
			"embedding response has %d entries, want 1", len(resp.Data))
	}

	raw := resp.Data[0].Embedding
	if len(raw) != e.dims {
		return nil, triageerr.New(triageerr.CodeEmbedResponseInvalid,
			"embedding dimension mismatch",
			triageerr.FieldModel(e.model),
			triageerr.Field("want", e.dims),
			triageerr.Field("got", len(raw)),
		)
	}

	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}
