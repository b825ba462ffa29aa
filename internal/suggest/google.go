// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package suggest

import (
	"context"

	"google.golang.org/genai"

	triageerr "github.com/triage-dev/triage/pkg/errors"
	"github.com/triage-dev/triage/pkg/types"
)

const defaultGoogleModel = "gemini-2.5-flash"

// Compile-time interface check.
var _ Provider = (*googleProvider)(nil)

// googleProvider implements Provider using the Google Gemini API.
type googleProvider struct {
	client *genai.Client
	model  string
}

func newGoogle(cfg Config) (*googleProvider, error) {
	if cfg.APIKey == "" {
		return nil, triageerr.New(triageerr.CodeSuggestRequestInvalid,
			"google: missing api_key in config", triageerr.FieldProvider("google"))
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, triageerr.Wrapf(err, triageerr.CodeSuggestUpstreamFailure, "google: creating client")
	}

	model := cfg.Model
	if model == "" {
		model = defaultGoogleModel
	}

	return &googleProvider{client: client, model: model}, nil
}

func (p *googleProvider) Name() string { return "google" }

func (p *googleProvider) Suggest(ctx context.Context, query string, matches []types.Match) (string, error) {
	if err := validateRequest(query, matches); err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model,
		genai.Text(buildPrompt(query, matches)), config)
	if err != nil {
		return "", triageerr.Wrapf(err, triageerr.CodeSuggestUpstreamFailure,
			"google suggestion with %s", p.model)
	}

	text := result.Text()
	if text == "" {
		return "", triageerr.New(triageerr.CodeSuggestResponseInvalid,
			"google returned no text content", triageerr.FieldProvider("google"))
	}

	return text, nil
}

func (p *googleProvider) Close() error { return nil }
