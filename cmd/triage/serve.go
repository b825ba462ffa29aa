// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/triage-dev/triage/internal/server"
	triageerr "github.com/triage-dev/triage/pkg/errors"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the triage HTTP API",
		Long:  "Load configuration, open the ticket store, and serve the search, ingest, and suggestion endpoints until interrupted.",
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	_ = viper.BindPFlag("server.listen", cmd.Flags().Lookup("listen"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	app, err := WireApp(cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	srv, err := server.New(server.Config{ListenAddr: cfg.Server.Listen})
	if err != nil {
		return triageerr.Wrap(err, triageerr.CodeCLISetupFailure, "creating server")
	}

	srv.RegisterServices(&server.Services{
		Search:         app.Engine,
		Ingest:         app.Pipeline,
		Suggest:        app.Suggest,
		Status:         app.Records,
		EmbeddingModel: app.Embedder.Model(),
		Version:        version,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting triage",
		"listen", cfg.Server.Listen,
		"backend", cfg.Storage.Backend,
		"embedding_model", app.Embedder.Model(),
		"dimensions", app.Embedder.Dimensions(),
	)

	return srv.Start(ctx)
}
