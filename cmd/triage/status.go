// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status of a running triage server",
		RunE:  runStatus,
	}

	cmd.Flags().String("address", "127.0.0.1:8799", "server address to check")

	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("address")
	out := cmd.OutOrStdout()

	client := newAPIClient(addr)
	var body struct {
		Status         string `json:"status"`
		Records        int64  `json:"records"`
		Dimensions     int    `json:"dimensions"`
		EmbeddingModel string `json:"embedding_model"`
	}
	if err := client.getJSON("/api/v1/status", &body); err != nil {
		_, _ = fmt.Fprintf(out, "Server at %s: %s\n", addr, err)
		return nil
	}

	_, _ = fmt.Fprintf(out, "Server at %s: %s\n", addr, body.Status)
	_, _ = fmt.Fprintf(out, "  records:    %d\n", body.Records)
	_, _ = fmt.Fprintf(out, "  dimensions: %d\n", body.Dimensions)
	_, _ = fmt.Fprintf(out, "  model:      %s\n", body.EmbeddingModel)
	return nil
}
