// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root clint command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "clint",
		Short:         "Clint, a retrieval-augmented clinical assistant gateway",
		Long:          "Clint serves retrieval-augmented chat over a clinical documentation corpus.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})))
			}
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newInitCmd(),
		newStartCmd(),
		newConfigCmd(),
		newSecretCmd(),
		newVersionCmd(),
	)

	return root
}

// configPath resolves the config file to load: the --config flag when set,
// otherwise the default location if a file exists there.
func configPath(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path
	}
	path, err := defaultConfigIfPresent()
	if err != nil {
		slog.Debug("skipping default config discovery", "error", err)
		return ""
	}
	return path
}
