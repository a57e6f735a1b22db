// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clint-dev/clint/internal/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long:  "Create a commented default configuration at ~/.config/clint/clint.yaml if none exists.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path := config.BootstrapConfig(); path != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				fmt.Fprintln(cmd.OutOrStdout(), "next: set corpus.dir and openai.api_key (clint secret set openai-api-key)")
				return nil
			}

			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config already present at %s\n", path)
			return nil
		},
	}
}
