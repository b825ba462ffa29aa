// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/triage-dev/triage/pkg/types"
)

// --- lipgloss styles ---

var (
	scoreStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	ticketStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	resolutionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	suggestionStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <description>",
		Short: "Find resolved tickets similar to a description",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearch,
	}

	cmd.Flags().Int("k", 0, "maximum number of matches (default from config)")
	cmd.Flags().Float64("threshold", 0, "minimum cosine similarity (default from config)")
	cmd.Flags().Bool("suggest", false, "draft a resolution suggestion from the matches")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	wantSuggest, _ := cmd.Flags().GetBool("suggest")

	app, err := WireApp(cfg, wantSuggest)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	opts := app.Engine.DefaultOptions()
	if k, _ := cmd.Flags().GetInt("k"); cmd.Flags().Changed("k") {
		opts.K = k
	}
	if threshold, _ := cmd.Flags().GetFloat64("threshold"); cmd.Flags().Changed("threshold") {
		opts.Threshold = threshold
	}

	query := strings.Join(args, " ")
	matches, err := app.Engine.Search(cmd.Context(), query, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	renderMatches(out, matches)

	if wantSuggest && app.Suggest != nil && len(matches) > 0 {
		suggestion, err := app.Suggest.Suggest(cmd.Context(), query, matches)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, suggestionStyle.Render(suggestion))
	}

	return nil
}

func renderMatches(out io.Writer, matches []types.Match) {
	if len(matches) == 0 {
		_, _ = fmt.Fprintln(out, dimStyle.Render("No similar tickets found."))
		return
	}

	for i, m := range matches {
		_, _ = fmt.Fprintf(out, "%d. %s %s\n", i+1,
			scoreStyle.Render(fmt.Sprintf("%.0f%%", m.Similarity*100)),
			ticketStyle.Render(m.MatchedText),
		)
		if m.ResolutionText != "" {
			_, _ = fmt.Fprintf(out, "   %s\n", resolutionStyle.Render(m.ResolutionText))
		} else {
			_, _ = fmt.Fprintf(out, "   %s\n", dimStyle.Render("(no resolution recorded)"))
		}
	}
}
