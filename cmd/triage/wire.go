// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/triage-dev/triage/internal/config"
	"github.com/triage-dev/triage/internal/embed"
	"github.com/triage-dev/triage/internal/ingest"
	"github.com/triage-dev/triage/internal/search"
	"github.com/triage-dev/triage/internal/secrets"
	"github.com/triage-dev/triage/internal/store"
	_ "github.com/triage-dev/triage/internal/store/sqlite" // register sqlite backend
	"github.com/triage-dev/triage/internal/suggest"
	triageerr "github.com/triage-dev/triage/pkg/errors"
)

// secretStoreFactory creates a secrets.Store. It is a package-level variable
// so tests can substitute a mock implementation.
var secretStoreFactory = func() secrets.Store {
	return secrets.NewKeyringStore()
}

// App holds all wired subsystems and manages their lifecycle.
type App struct {
	Config   *config.Config
	Embedder embed.Embedder
	Records  store.RecordStore
	Engine   *search.Engine
	Pipeline *ingest.Pipeline
	Suggest  suggest.Provider
}

// WireApp creates the embedder, record store, search engine, and ingestion
// pipeline from config. withSuggest additionally wires the LLM suggestion
// provider; commands that never suggest skip it so no suggest API key is
// required.
func WireApp(cfg *config.Config, withSuggest bool) (*App, error) {
	ks := secretStoreFactory()

	embedder, err := newEmbedder(cfg, ks)
	if err != nil {
		return nil, err
	}

	records, err := newRecordStore(cfg, embedder.Dimensions())
	if err != nil {
		return nil, err
	}

	engine := search.NewEngine(embedder, records,
		search.WithDefaults(cfg.Search.Threshold, cfg.Search.K))
	pipeline := ingest.NewPipeline(embedder, records, engine)

	app := &App{
		Config:   cfg,
		Embedder: embedder,
		Records:  records,
		Engine:   engine,
		Pipeline: pipeline,
	}

	if withSuggest && cfg.Suggest.Provider != "" {
		apiKey, err := secrets.LookupAPIKey(ks, cfg.Suggest.APIKey, "suggest")
		if err != nil {
			_ = records.Close()
			return nil, triageerr.Wrap(err, triageerr.CodeCLISetupFailure, "resolving suggest API key")
		}
		provider, err := suggest.New(suggest.Config{
			Provider: cfg.Suggest.Provider,
			Model:    cfg.Suggest.Model,
			APIKey:   apiKey,
		})
		if err != nil {
			_ = records.Close()
			return nil, triageerr.Wrap(err, triageerr.CodeCLISetupFailure, "creating suggestion provider")
		}
		app.Suggest = provider
		slog.Info("suggestion provider enabled", "provider", provider.Name())
	}

	return app, nil
}

// Close releases the app's resources.
func (a *App) Close() error {
	var errs []error
	if a.Suggest != nil {
		if err := a.Suggest.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Records != nil {
		if err := a.Records.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return triageerr.Join(errs...)
	}
	return nil
}

func newEmbedder(cfg *config.Config, ks secrets.Store) (embed.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "hash":
		return embed.NewHash(cfg.Embedding.Dimensions), nil
	case "openai":
		apiKey, err := secrets.LookupAPIKey(ks, cfg.Embedding.APIKey, "embedding")
		if err != nil {
			return nil, triageerr.Wrap(err, triageerr.CodeCLISetupFailure, "resolving embedding API key")
		}
		if apiKey == "" {
			return nil, triageerr.New(triageerr.CodeCLISetupFailure,
				"no embedding API key configured: set embedding.api_key, TRIAGE_EMBEDDING_API_KEY, or run 'triage secret set embedding'")
		}
		return embed.NewOpenAI(embed.OpenAIConfig{
			APIKey:     apiKey,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			BaseURL:    cfg.Embedding.BaseURL,
			Timeout:    cfg.Embedding.Timeout,
		})
	default:
		return nil, triageerr.Errorf(triageerr.CodeCLISetupFailure,
			"unknown embedding provider: %q", cfg.Embedding.Provider)
	}
}

func newRecordStore(cfg *config.Config, dims int) (store.RecordStore, error) {
	path := cfg.Storage.Path
	if cfg.Storage.Backend == "sqlite" && path == "" {
		dataDir := resolveDataDir()
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, triageerr.Errorf(triageerr.CodeCLISetupFailure, "creating data directory: %w", err)
		}
		path = filepath.Join(dataDir, "triage.db")
	}

	records, err := store.NewRecordStore(store.StorageConfig{
		Backend:          cfg.Storage.Backend,
		Path:             path,
		VectorDimensions: dims,
		Timeout:          cfg.Storage.Timeout,
	})
	if err != nil {
		return nil, triageerr.Wrap(err, triageerr.CodeCLISetupFailure, "opening record store")
	}
	return records, nil
}

// resolveDataDir returns the data directory from viper or the default.
func resolveDataDir() string {
	if dataDir := viper.GetString("data_dir"); dataDir != "" {
		return dataDir
	}
	dir, err := config.DefaultDataDir()
	if err != nil {
		return "."
	}
	return dir
}
