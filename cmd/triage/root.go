// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/triage-dev/triage/internal/config"
	triageerr "github.com/triage-dev/triage/pkg/errors"
)

// NewRootCmd creates the root triage command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "triage",
		Short:         "Triage - incident ticket similarity search",
		Long:          "Triage stores resolved incident tickets and finds the most similar past incidents for new ones, with optional LLM resolution suggestions.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initViper(cmd)
		},
	}

	// Global flags - these map to viper keys via initViper.
	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("data-dir", "", "path to data directory")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newServeCmd(),
		newSearchCmd(),
		newIngestCmd(),
		newStatusCmd(),
		newSecretCmd(),
		newVersionCmd(),
	)

	return root
}

// initViper sets up the global Viper with defaults, env bindings, flag
// bindings, and optional config file so the standard precedence
// (flag > env > file > defaults) is handled uniformly.
func initViper(cmd *cobra.Command) error {
	v := viper.GetViper()

	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return triageerr.Errorf(triageerr.CodeConfigLoadReadFailure, "reading config file: %w", err)
		}
	} else {
		// Auto-discover triage.yaml from standard locations.
		// Note: SetConfigType is intentionally omitted. When set, Viper
		// falls back to trying the bare config name without extension,
		// which collides with the ./triage binary in the project root.
		v.SetConfigName("triage")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/triage")
		v.AddConfigPath("/etc/triage")
		// No config file is fine - defaults and env vars still apply.
		// Parse or permission errors must surface.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return triageerr.Errorf(triageerr.CodeConfigLoadReadFailure, "reading config: %w", err)
			}
			// No config found anywhere - bootstrap a default to ~/.config/triage/.
			if path := config.BootstrapConfig(); path != "" {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return triageerr.Errorf(triageerr.CodeConfigLoadReadFailure, "reading bootstrapped config: %w", err)
				}
			}
		}
	}

	config.WarnInsecurePermissions(v.ConfigFileUsed())

	// Bind persistent flags to viper keys.
	if err := v.BindPFlag("data_dir", cmd.Root().PersistentFlags().Lookup("data-dir")); err != nil {
		return triageerr.Errorf(triageerr.CodeCLISetupFailure, "binding data-dir flag: %w", err)
	}
	if err := v.BindPFlag("verbose", cmd.Root().PersistentFlags().Lookup("verbose")); err != nil {
		return triageerr.Errorf(triageerr.CodeCLISetupFailure, "binding verbose flag: %w", err)
	}

	setupLogging(v.GetBool("verbose"))

	return nil
}

// setupLogging configures the default slog logger. Verbose mode enables
// debug-level output.
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadConfig builds the validated config from the already-initialized
// global viper instance.
func loadConfig() (*config.Config, error) {
	return config.FromViper(viper.GetViper())
}
