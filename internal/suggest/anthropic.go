// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package suggest

import (
	"context"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	triageerr "github.com/triage-dev/triage/pkg/errors"
	"github.com/triage-dev/triage/pkg/types"
)

const (
	defaultAnthropicModel     = "claude-haiku-4-5"
	defaultAnthropicMaxTokens = 1024
)

// Compile-time interface check.
var _ Provider = (*anthropicProvider)(nil)

// anthropicProvider implements Provider using the Anthropic Messages API.
type anthropicProvider struct {
	client anthropicsdk.Client
	model  string
}

func newAnthropic(cfg Config) (*anthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, triageerr.New(triageerr.CodeSuggestRequestInvalid,
			"anthropic: missing api_key in config", triageerr.FieldProvider("anthropic"))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	return &anthropicProvider{client: anthropicsdk.NewClient(opts...), model: model}, nil
}

func (p *anthropicProvider) Name() string { return "anthropic" }

func (p *anthropicProvider) Suggest(ctx context.Context, query string, matches []types.Match) (string, error) {
	if err := validateRequest(query, matches); err != nil {
		return "", err
	}

	msg, err := p.client.Messages.New(ctx, anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(p.model),
		MaxTokens: defaultAnthropicMaxTokens,
		System: []anthropicsdk.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(
				anthropicsdk.NewTextBlock(buildPrompt(query, matches)),
			),
		},
	})
	if err != nil {
		return "", triageerr.Wrapf(err, triageerr.CodeSuggestUpstreamFailure,
			"anthropic suggestion with %s", p.model)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", triageerr.New(triageerr.CodeSuggestResponseInvalid,
			"anthropic returned no text content", triageerr.FieldProvider("anthropic"))
	}

	return sb.String(), nil
}

func (p *anthropicProvider) Close() error { return nil }
