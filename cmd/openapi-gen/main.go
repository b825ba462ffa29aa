// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/triage-dev/triage/internal/search"
	"github.com/triage-dev/triage/internal/server"
	triageerr "github.com/triage-dev/triage/pkg/errors"
	"github.com/triage-dev/triage/pkg/types"
)

func main() {
	spec, err := generateSpec()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	outPath := "api/openapi/spec.json"
	if len(os.Args) > 1 {
		outPath = os.Args[1]
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating output dir: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outPath, spec, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing spec: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("OpenAPI spec written to %s\n", outPath)
}

// generateSpec creates a server with all routes registered and extracts the
// OpenAPI spec that huma generates from the Go type annotations.
func generateSpec() ([]byte, error) {
	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"})
	if err != nil {
		return nil, triageerr.Wrap(err, triageerr.CodeCLISetupFailure, "creating server")
	}

	// No-op service stubs so all routes are registered for schema
	// discovery. Handlers are never invoked during spec generation.
	srv.RegisterServices(&server.Services{
		Search: &stubSearch{},
		Ingest: &stubIngest{},
		Status: &stubStatus{},
	})

	return json.MarshalIndent(srv.API().OpenAPI(), "", "  ")
}

type stubSearch struct{}

func (s *stubSearch) Search(context.Context, string, search.Options) ([]types.Match, error) {
	return nil, nil
}
func (s *stubSearch) DefaultOptions() search.Options { return search.Options{} }

type stubIngest struct{}

func (s *stubIngest) IngestBatch(context.Context, []types.Pair, types.IngestMode) ([]types.IngestResult, error) {
	return nil, nil
}

type stubStatus struct{}

func (s *stubStatus) Count(context.Context) (int64, error) { return 0, nil }
func (s *stubStatus) Dimensions() int                      { return 0 }
func (s *stubStatus) Ping(context.Context) error           { return nil }
