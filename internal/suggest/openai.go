// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package suggest

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	triageerr "github.com/triage-dev/triage/pkg/errors"
	"github.com/triage-dev/triage/pkg/types"
)

const defaultOpenAIModel = "gpt-4.1-mini"

// Compile-time interface check.
var _ Provider = (*openAIProvider)(nil)

// openAIProvider implements Provider using the OpenAI Chat Completions API.
type openAIProvider struct {
	client openaisdk.Client
	model  string
}

func newOpenAI(cfg Config) (*openAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, triageerr.New(triageerr.CodeSuggestRequestInvalid,
			"openai: missing api_key in config", triageerr.FieldProvider("openai"))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &openAIProvider{client: openaisdk.NewClient(opts...), model: model}, nil
}

func (p *openAIProvider) Name() string { return "openai" }

func (p *openAIProvider) Suggest(ctx context.Context, query string, matches []types.Match) (string, error) {
	if err := validateRequest(query, matches); err != nil {
		return "", err
	}

	resp, err := p.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(p.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(systemPrompt),
			openaisdk.UserMessage(buildPrompt(query, matches)),
		},
	})
	if err != nil {
		return "", triageerr.Wrapf(err, triageerr.CodeSuggestUpstreamFailure,
			"openai suggestion with %s", p.model)
	}

	if len(resp.Choices) == 0 {
		return "", triageerr.New(triageerr.CodeSuggestResponseInvalid,
			"openai returned no choices", triageerr.FieldProvider("openai"))
	}

	return resp.Choices[0].Message.Content, nil
}

func (p *openAIProvider) Close() error { return nil }
