// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package suggest

import (
	"context"
	"fmt"
	"strings"

	triageerr "github.com/triage-dev/triage/pkg/errors"
	"github.com/triage-dev/triage/pkg/types"
)

// systemPrompt frames the LLM as a support engineer drafting a resolution
// from previously resolved tickets.
const systemPrompt = `You are an experienced IT support engineer. Given a new
incident description and resolutions of the most similar past incidents,
draft a short, actionable resolution suggestion. If the past resolutions do
not apply, say so instead of inventing steps.`

// Provider drafts a resolution suggestion for a query from its most similar
// resolved tickets. Suggestion is advisory: callers still return the match
// list when the provider fails.
type Provider interface {
	Name() string
	Suggest(ctx context.Context, query string, matches []types.Match) (string, error)
	Close() error
}

// Config holds provider-independent suggestion configuration.
type Config struct {
	Provider string // "openai", "anthropic", or "google"; empty disables
	Model    string // provider-specific model ID, empty uses the provider default
	APIKey   string
	BaseURL  string // optional override, for mock-server tests
}

// New creates the configured suggestion provider, or nil when the feature
// is disabled (no provider configured).
func New(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "openai":
		return newOpenAI(cfg)
	case "anthropic":
		return newAnthropic(cfg)
	case "google":
		return newGoogle(cfg)
	default:
		return nil, triageerr.Errorf(triageerr.CodeSuggestRequestInvalid,
			"unknown suggestion provider: %q", cfg.Provider)
	}
}

// buildPrompt renders the query and its matches into the user message sent
// to the LLM.
func buildPrompt(query string, matches []types.Match) string {
	var sb strings.Builder
	sb.WriteString("New incident:\n")
	sb.WriteString(query)
	sb.WriteString("\n\nMost similar resolved incidents:\n")

	for i, m := range matches {
		fmt.Fprintf(&sb, "%d. (similarity %.2f) %s\n", i+1, m.Similarity, m.MatchedText)
		if m.ResolutionText != "" {
			fmt.Fprintf(&sb, "   Resolution: %s\n", m.ResolutionText)
		} else {
			sb.WriteString("   Resolution: (none recorded)\n")
		}
	}

	sb.WriteString("\nSuggested resolution:")
	return sb.String()
}

// validateRequest rejects inputs no provider can act on.
func validateRequest(query string, matches []types.Match) error {
	if strings.TrimSpace(query) == "" {
		return triageerr.New(triageerr.CodeSuggestRequestInvalid, "query must not be blank")
	}
	if len(matches) == 0 {
		return triageerr.New(triageerr.CodeSuggestRequestInvalid, "no matches to suggest from")
	}
	return nil
}
