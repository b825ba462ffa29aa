// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	triageerr "github.com/triage-dev/triage/pkg/errors"
	"github.com/triage-dev/triage/pkg/types"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file.csv>",
		Short: "Ingest resolved tickets from a CSV file",
		Long: `Read a CSV file of resolved tickets and store them one at a time.

The file needs a header row with "description" and "resolution" columns
(extra columns are ignored). Each ticket is searched against the already
stored ones before insertion, so duplicates within the file surface as
matches in the output.`,
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().Bool("best-effort", false, "continue past failing rows instead of stopping at the first error")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return triageerr.Errorf(triageerr.CodeCLIInputInvalid, "opening %s: %w", args[0], err)
	}
	defer func() { _ = f.Close() }()

	pairs, err := readPairsCSV(f)
	if err != nil {
		return err
	}

	app, err := WireApp(cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	mode := types.IngestModeFailFast
	if bestEffort, _ := cmd.Flags().GetBool("best-effort"); bestEffort {
		mode = types.IngestModeBestEffort
	}

	results, batchErr := app.Pipeline.IngestBatch(cmd.Context(), pairs, mode)
	writeBatchReport(cmd.OutOrStdout(), results, len(pairs))
	return batchErr
}

// writeBatchReport summarizes a batch and lists failed tickets. Tickets are
// numbered by position in the file, not by CSV line: quoted fields can span
// lines, so line numbers would drift.
func writeBatchReport(out io.Writer, results []types.IngestResult, total int) {
	var stored, skipped, failed int
	for _, res := range results {
		switch {
		case res.Err != nil:
			failed++
		case res.Skipped:
			skipped++
		default:
			stored++
		}
	}

	_, _ = fmt.Fprintf(out, "Stored %d ticket(s), skipped %d, failed %d (of %d)\n",
		stored, skipped, failed, total)

	for i, res := range results {
		if res.Err != nil {
			_, _ = fmt.Fprintf(out, "  ticket %d: %s\n", i+1, res.Err)
		}
	}
}

// readPairsCSV parses ticket pairs from CSV data. The header row must name
// a description column; a resolution column is optional.
func readPairsCSV(r io.Reader) ([]types.Pair, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged rows are handled per-record

	header, err := cr.Read()
	if err != nil {
		return nil, triageerr.Errorf(triageerr.CodeCLIInputInvalid, "reading CSV header: %w", err)
	}

	descIdx, resIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "description":
			descIdx = i
		case "resolution":
			resIdx = i
		}
	}
	if descIdx == -1 {
		return nil, triageerr.New(triageerr.CodeCLIInputInvalid,
			`CSV header must contain a "description" column`)
	}

	var pairs []types.Pair
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, triageerr.Errorf(triageerr.CodeCLIInputInvalid, "reading CSV row: %w", err)
		}

		var pair types.Pair
		if descIdx < len(row) {
			pair.Description = row[descIdx]
		}
		if resIdx >= 0 && resIdx < len(row) {
			pair.Resolution = row[resIdx]
		}
		pairs = append(pairs, pair)
	}

	if len(pairs) == 0 {
		return nil, triageerr.New(triageerr.CodeCLIInputInvalid, "CSV contains no ticket rows")
	}

	return pairs, nil
}
