// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/triage-dev/triage/internal/secrets"
	triageerr "github.com/triage-dev/triage/pkg/errors"
)

func newSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage API keys stored in the OS keyring",
		Long:  "Store, list, and delete API keys kept under the triage service in the operating system keyring.",
	}

	cmd.AddCommand(
		newSecretSetCmd(),
		newSecretListCmd(),
		newSecretDeleteCmd(),
	)

	return cmd
}

func newSecretSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <name>",
		Short: "Store a secret, reading its value from stdin",
		Long:  "Store a secret under the given name, e.g. 'embedding' or 'suggest'. The value is read from standard input so it never appears in shell history.",
		Args:  cobra.ExactArgs(1),
		RunE:  runSecretSet,
	}
}

func newSecretListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all stored secret names",
		RunE:  runSecretList,
	}
}

func newSecretDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a secret by name",
		Args:  cobra.ExactArgs(1),
		RunE:  runSecretDelete,
	}
}

func runSecretSet(cmd *cobra.Command, args []string) error {
	name := args[0]

	reader := bufio.NewReader(cmd.InOrStdin())
	value, err := reader.ReadString('\n')
	if err != nil && value == "" {
		return triageerr.Errorf(triageerr.CodeCLIInputInvalid, "reading secret value: %w", err)
	}
	value = strings.TrimRight(value, "\r\n")
	if value == "" {
		return triageerr.New(triageerr.CodeCLIInputInvalid, "secret value must not be empty")
	}

	store := secretStoreFactory()
	if err := store.Store(secrets.DefaultService, name, value); err != nil {
		return triageerr.Wrapf(err, triageerr.CodeSecretStoreFailure, "storing secret %q", name)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stored secret: %s\n", name)
	return nil
}

func runSecretList(cmd *cobra.Command, _ []string) error {
	store := secretStoreFactory()
	keys, err := store.List(secrets.DefaultService)
	if err != nil {
		return triageerr.Errorf(triageerr.CodeSecretListFailure, "listing secrets: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(keys) == 0 {
		_, _ = fmt.Fprintln(out, "No secrets stored.")
		return nil
	}

	for _, k := range keys {
		_, _ = fmt.Fprintln(out, k)
	}
	return nil
}

func runSecretDelete(cmd *cobra.Command, args []string) error {
	name := args[0]
	store := secretStoreFactory()

	if err := store.Delete(secrets.DefaultService, name); err != nil {
		if triageerr.HasCode(err, triageerr.CodeSecretNotFound) {
			return triageerr.Errorf(triageerr.CodeSecretNotFound, "secret %q not found", name)
		}
		return triageerr.Errorf(triageerr.CodeSecretDeleteFailure, "deleting secret %q: %w", name, err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted secret: %s\n", name)
	return nil
}
