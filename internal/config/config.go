// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

package config

import (
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	clinterr "github.com/clint-dev/clint/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the top-level Clint configuration.
type Config struct {
	Server Server `mapstructure:"server"`
	Corpus Corpus `mapstructure:"corpus"`
	OpenAI OpenAI `mapstructure:"openai"`
	Docs   Docs   `mapstructure:"docs"`
}

// Server controls how the gateway listens for connections.
type Server struct {
	Listen         string   `mapstructure:"listen"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Corpus points at the on-disk corpus bundle.
type Corpus struct {
	Dir string `mapstructure:"dir"`
}

// OpenAI holds credentials and tuning for the completion upstream.
type OpenAI struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Model          string        `mapstructure:"model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
}

// Docs configures the document content origin.
type Docs struct {
	Origin   string `mapstructure:"origin"`
	Excerpts int    `mapstructure:"excerpts"`
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix CLINT_).
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.listen", "127.0.0.1:8787")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4")
	v.SetDefault("openai.embedding_model", "text-embedding-ada-002")
	v.SetDefault("openai.max_retries", 2)
	v.SetDefault("openai.retry_base_delay", "1s")
	v.SetDefault("docs.excerpts", 4)

	// Environment
	v.SetEnvPrefix("CLINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, clinterr.Errorf(clinterr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, clinterr.Errorf(clinterr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, clinterr.Errorf(clinterr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors. It returns every
// validation error found rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateOpenAI()...)
	errs = append(errs, c.validateDocs()...)

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	host, port, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		errs = append(errs, clinterr.Errorf(clinterr.CodeConfigValidateInvalidValue,
			"config: server.listen must be host:port, got %q", c.Server.Listen))
		return errs
	}
	if host == "" {
		errs = append(errs, clinterr.Errorf(clinterr.CodeConfigValidateInvalidValue,
			"config: server.listen must include a host, got %q", c.Server.Listen))
	}
	if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
		errs = append(errs, clinterr.Errorf(clinterr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be 1-65535, got %q", port))
	}

	return errs
}

func (c *Config) validateOpenAI() []error {
	var errs []error

	if u, err := url.Parse(c.OpenAI.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, clinterr.Errorf(clinterr.CodeConfigValidateInvalidValue,
			"config: openai.base_url must be an absolute URL, got %q", c.OpenAI.BaseURL))
	}
	if c.OpenAI.MaxRetries < 0 {
		errs = append(errs, clinterr.Errorf(clinterr.CodeConfigValidateInvalidValue,
			"config: openai.max_retries must not be negative, got %d", c.OpenAI.MaxRetries))
	}
	if c.OpenAI.RetryBaseDelay <= 0 {
		errs = append(errs, clinterr.Errorf(clinterr.CodeConfigValidateInvalidValue,
			"config: openai.retry_base_delay must be positive, got %s", c.OpenAI.RetryBaseDelay))
	}

	return errs
}

func (c *Config) validateDocs() []error {
	var errs []error

	if c.Docs.Excerpts < 1 {
		errs = append(errs, clinterr.Errorf(clinterr.CodeConfigValidateInvalidValue,
			"config: docs.excerpts must be at least 1, got %d", c.Docs.Excerpts))
	}
	if c.Docs.Origin != "" {
		if u, err := url.Parse(c.Docs.Origin); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, clinterr.Errorf(clinterr.CodeConfigValidateInvalidValue,
				"config: docs.origin must be an absolute URL, got %q", c.Docs.Origin))
		}
	}

	return errs
}
