// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

// Package openai is the wire client for an OpenAI-compatible completion
// service: chat completions (plain, schema-constrained, and streaming) and
// embeddings. Transient upstream failures are retried with exponential
// backoff; the backoff sleep is injectable so tests run without wall-clock
// delay.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	clinterr "github.com/clint-dev/clint/pkg/errors"
	"github.com/clint-dev/clint/pkg/health"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
	RoleFunction  Role = "function"
)

// FinishReason marks why the model stopped generating a choice.
type FinishReason string

const (
	FinishReasonStop         FinishReason = "stop"
	FinishReasonLength       FinishReason = "length"
	FinishReasonFunctionCall FinishReason = "function_call"
)

// FunctionCall is a structured-output invocation emitted by the model.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatMessage is one message of a conversation. Content, Name and
// FunctionCall are optional; nil means the field was never set, which the
// streaming merge distinguishes from an empty accumulating string.
type ChatMessage struct {
	Role         Role          `json:"role"`
	Content      *string       `json:"content,omitempty"`
	Name         *string       `json:"name,omitempty"`
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleSystem, Content: &content}
}

// UserMessage builds a user-role message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: &content}
}

// AssistantMessage builds an assistant-role message.
func AssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: &content}
}

// ChatChoice is one candidate response slot. This service only ever
// populates the first.
type ChatChoice struct {
	Message      ChatMessage   `json:"message"`
	FinishReason *FinishReason `json:"finish_reason"`
}

// ChatCompletion is a complete (or accumulating, when streamed) response.
type ChatCompletion struct {
	Choices []ChatChoice `json:"choices"`
}

// FunctionDef declares a callable function schema the model may be forced
// through for structured output.
type FunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ChatCompletionArgs are the caller-tunable parts of a completion request.
type ChatCompletionArgs struct {
	Model        string // empty = client default
	Messages     []ChatMessage
	MaxTokens    int      // 0 = omit
	Temperature  *float32 // nil = omit
	Functions    []FunctionDef
	FunctionCall string // forced function name, "" = omit
}

type functionCallRef struct {
	Name string `json:"name"`
}

type chatCompletionRequest struct {
	Model        string           `json:"model"`
	Messages     []ChatMessage    `json:"messages"`
	MaxTokens    int              `json:"max_tokens,omitempty"`
	Temperature  *float32         `json:"temperature,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
	Functions    []FunctionDef    `json:"functions,omitempty"`
	FunctionCall *functionCallRef `json:"function_call,omitempty"`
}

// SleepFunc waits for d or until ctx is done. Tests inject one to observe
// backoff without real delay.
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Config holds client configuration.
type Config struct {
	APIKey         string
	BaseURL        string // optional, useful for testing against a mock server
	Model          string // default chat model
	EmbeddingModel string
	MaxRetries     int           // transient-failure retries per request
	RetryBaseDelay time.Duration // backoff is RetryBaseDelay << attempt
	HTTPClient     *http.Client
	Sleep          SleepFunc
}

// Client talks to one OpenAI-compatible endpoint. Safe for concurrent use.
type Client struct {
	cfg    Config
	http   *http.Client
	sleep  SleepFunc
	health *health.Recorder
}

// New creates a Client. Returns an error if the API key is missing.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, clinterr.New(clinterr.CodeCompletionRequestInvalid,
			"openai: missing api_key in config")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "text-embedding-ada-002"
	}
	if cfg.RetryBaseDelay == 0 {
		cfg.RetryBaseDelay = time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = defaultSleep
	}

	return &Client{cfg: cfg, http: httpClient, sleep: sleep, health: &health.Recorder{}}, nil
}

// Health returns a snapshot of the upstream's observed health.
func (c *Client) Health() health.Metrics {
	return c.health.Snapshot()
}

// post sends body as JSON and returns the response once the upstream serves
// a non-5xx status. Each 5xx is retried up to MaxRetries with exponential
// backoff; retries are sequential within the call and touch no shared state,
// so concurrent calls are unaffected. Any non-2xx terminal status and any
// connection-level failure is a terminal transport error.
//
// The caller owns resp.Body on success.
func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, clinterr.Wrapf(err, clinterr.CodeCompletionRequestInvalid,
			"openai: encoding request")
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.cfg.BaseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, clinterr.Wrapf(err, clinterr.CodeCompletionRequestInvalid,
				"openai: building request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

		resp, err := c.http.Do(req)
		if err != nil {
			c.health.RecordFailure()
			return nil, clinterr.Wrapf(err, clinterr.CodeCompletionTransportFailure,
				"openai: %s request failed", path)
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			drainAndClose(resp.Body)
			c.health.RecordFailure()
			if attempt < c.cfg.MaxRetries {
				delay := c.cfg.RetryBaseDelay << attempt
				slog.Debug("retrying upstream request",
					"path", path, "status", resp.StatusCode, "attempt", attempt, "delay", delay)
				if err := c.sleep(ctx, delay); err != nil {
					return nil, clinterr.Wrapf(err, clinterr.CodeCompletionTransportFailure,
						"openai: cancelled while backing off")
				}
				continue
			}
			return nil, clinterr.New(clinterr.CodeCompletionTransportExhausted,
				"openai: upstream kept failing",
				clinterr.Field("status", resp.StatusCode),
				clinterr.Field("attempts", attempt+1))
		}

		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			drainAndClose(resp.Body)
			c.health.RecordFailure()
			return nil, clinterr.New(clinterr.CodeCompletionTransportFailure,
				"openai: upstream rejected request",
				clinterr.Field("status", resp.StatusCode),
				clinterr.Field("body", string(msg)))
		}

		c.health.RecordSuccess()
		return resp, nil
	}
}

// CreateChatCompletion requests one complete chat completion.
func (c *Client) CreateChatCompletion(ctx context.Context, args ChatCompletionArgs) (*ChatCompletion, error) {
	resp, err := c.post(ctx, "/chat/completions", c.buildRequest(args, false))
	if err != nil {
		return nil, err
	}
	defer drainAndClose(resp.Body)

	var completion ChatCompletion
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, clinterr.Wrapf(err, clinterr.CodeCompletionTransportFailure,
			"openai: decoding completion response")
	}
	return &completion, nil
}

func (c *Client) buildRequest(args ChatCompletionArgs, stream bool) chatCompletionRequest {
	model := args.Model
	if model == "" {
		model = c.cfg.Model
	}
	req := chatCompletionRequest{
		Model:       model,
		Messages:    args.Messages,
		MaxTokens:   args.MaxTokens,
		Temperature: args.Temperature,
		Stream:      stream,
		Functions:   args.Functions,
	}
	if args.FunctionCall != "" {
		req.FunctionCall = &functionCallRef{Name: args.FunctionCall}
	}
	return req
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
