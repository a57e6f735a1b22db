// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/clint-dev/clint/internal/config"
	"github.com/clint-dev/clint/internal/secrets"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(newConfigShowCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath(cmd))
			if err != nil {
				return err
			}

			// Never print a literal credential. Keyring URIs are references,
			// those stay visible.
			if cfg.OpenAI.APIKey != "" && !secrets.IsKeyringURI(cfg.OpenAI.APIKey) {
				cfg.OpenAI.APIKey = "<redacted>"
			}

			out, err := yaml.Marshal(renderConfig(cfg))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

// renderConfig maps the config onto yaml-tagged types; the config structs
// themselves carry only mapstructure tags.
func renderConfig(cfg *config.Config) map[string]any {
	return map[string]any{
		"server": map[string]any{
			"listen":          cfg.Server.Listen,
			"allowed_origins": cfg.Server.AllowedOrigins,
		},
		"corpus": map[string]any{
			"dir": cfg.Corpus.Dir,
		},
		"openai": map[string]any{
			"api_key":          cfg.OpenAI.APIKey,
			"base_url":         cfg.OpenAI.BaseURL,
			"model":            cfg.OpenAI.Model,
			"embedding_model":  cfg.OpenAI.EmbeddingModel,
			"max_retries":      cfg.OpenAI.MaxRetries,
			"retry_base_delay": cfg.OpenAI.RetryBaseDelay.String(),
		},
		"docs": map[string]any{
			"origin":   cfg.Docs.Origin,
			"excerpts": cfg.Docs.Excerpts,
		},
	}
}
