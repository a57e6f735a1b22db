// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/clint-dev/clint/internal/assistant"
	"github.com/clint-dev/clint/internal/config"
	"github.com/clint-dev/clint/internal/corpus"
	"github.com/clint-dev/clint/internal/docs"
	"github.com/clint-dev/clint/internal/openai"
	"github.com/clint-dev/clint/internal/secrets"
	"github.com/clint-dev/clint/internal/server"
	clinterr "github.com/clint-dev/clint/pkg/errors"
)

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the clint gateway",
		Long:  "Load configuration, load the corpus, and start the HTTP server.",
		RunE:  runStart,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	cmd.Flags().String("corpus-dir", "", "override corpus directory")

	return cmd
}

func runStart(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath(cmd))
	if err != nil {
		return err
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.Listen = listen
	}
	if dir, _ := cmd.Flags().GetString("corpus-dir"); dir != "" {
		cfg.Corpus.Dir = dir
	}

	if cfg.Corpus.Dir == "" {
		return clinterr.New(clinterr.CodeConfigValidateInvalidValue,
			"corpus.dir is required: point it at the corpus bundle directory")
	}

	apiKey, err := secrets.Resolve(secrets.NewKeyringStore(), cfg.OpenAI.APIKey)
	if err != nil {
		return err
	}

	slog.Info("loading corpus", "dir", cfg.Corpus.Dir)
	store, err := corpus.LoadDir(cfg.Corpus.Dir)
	if err != nil {
		return err
	}
	slog.Info("corpus loaded", "documents", store.Len(), "dimensions", store.Dim())

	client, err := openai.New(openai.Config{
		APIKey:         apiKey,
		BaseURL:        cfg.OpenAI.BaseURL,
		Model:          cfg.OpenAI.Model,
		EmbeddingModel: cfg.OpenAI.EmbeddingModel,
		MaxRetries:     cfg.OpenAI.MaxRetries,
		RetryBaseDelay: cfg.OpenAI.RetryBaseDelay,
	})
	if err != nil {
		return err
	}

	var fetcher assistant.ExcerptFetcher
	excerpts := 0
	if cfg.Docs.Origin != "" {
		fetcher = docs.NewFetcher(cfg.Docs.Origin, nil)
		excerpts = cfg.Docs.Excerpts
	} else {
		slog.Warn("docs.origin not configured, chat runs without excerpt context")
	}

	asst := assistant.New(store, client, fetcher)

	srv, err := server.New(server.Config{
		ListenAddr:  cfg.Server.Listen,
		CORSOrigins: cfg.Server.AllowedOrigins,
	}, client)
	if err != nil {
		return err
	}
	srv.RegisterRoutes(asst, server.NewDiagnoseService(client, store))
	srv.RegisterStreamHandler(server.NewChatService(asst, client, excerpts))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "clint gateway listening on %s\n", cfg.Server.Listen)
	return srv.Start(ctx)
}

// defaultConfigIfPresent returns the default config path when a file exists
// there, empty otherwise.
func defaultConfigIfPresent() (string, error) {
	path, err := config.DefaultConfigPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", nil
	}
	return path, nil
}
