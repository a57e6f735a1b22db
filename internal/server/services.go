// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/clint-dev/clint/internal/assistant"
	"github.com/clint-dev/clint/internal/corpus"
	"github.com/clint-dev/clint/internal/diagnose"
	"github.com/clint-dev/clint/internal/openai"
)

const systemPromptHeader = `You are Clint, a careful clinical documentation assistant.
Answer using only the reference excerpts below and cite the documents you
quote with their <id:...> markers. If the excerpts do not cover the
question, say so instead of guessing.`

// ChatService bridges the gateway chat route onto the streaming completion
// client: retrieve excerpt context for the message, stream the completion,
// and emit one uuid-tagged snapshot event per merged delta.
type ChatService struct {
	assistant *assistant.Assistant
	client    *openai.Client
	excerpts  int
}

// NewChatService creates a ChatService quoting up to excerpts documents per
// turn. Zero disables excerpt context.
func NewChatService(a *assistant.Assistant, client *openai.Client, excerpts int) *ChatService {
	return &ChatService{assistant: a, client: client, excerpts: excerpts}
}

// chatSnapshot is the data payload of one stream event: the full content
// accumulated so far, not just the newest fragment.
type chatSnapshot struct {
	ID           string `json:"id"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
}

type chatFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// HandleStream implements StreamHandler.
func (s *ChatService) HandleStream(ctx context.Context, req ChatStreamRequest, events chan<- SSEEvent) {
	defer close(events)
	streamID := uuid.NewString()

	prompt := systemPromptHeader
	if s.excerpts > 0 {
		excerpts, err := s.assistant.Excerpts(ctx, req.Content, s.excerpts)
		if err != nil {
			slog.Warn("continuing without excerpt context", "stream_id", streamID, "error", err)
		} else if len(excerpts) > 0 {
			prompt += "\n\n" + strings.Join(excerpts, "\n\n---\n\n")
		}
	}

	stream, err := s.client.NewChatStream(ctx, openai.ChatCompletionArgs{
		Messages: []openai.ChatMessage{
			openai.SystemMessage(prompt),
			openai.UserMessage(req.Content),
		},
	})
	if err != nil {
		slog.Error("opening chat stream failed", "stream_id", streamID, "error", err)
		emit(events, "error", chatFailure{ID: streamID, Error: "completion upstream unavailable"})
		return
	}
	defer stream.Close()

	for stream.Next() {
		events <- SSEEvent{Event: "message", Data: snapshotJSON(streamID, stream.Current())}
	}
	if err := stream.Err(); err != nil {
		slog.Error("chat stream failed", "stream_id", streamID, "error", err)
		emit(events, "error", chatFailure{ID: streamID, Error: "stream failed"})
		return
	}

	events <- SSEEvent{Event: "done", Data: snapshotJSON(streamID, stream.Current())}
}

func snapshotJSON(streamID string, completion *openai.ChatCompletion) string {
	snapshot := chatSnapshot{ID: streamID}
	if len(completion.Choices) > 0 {
		choice := completion.Choices[0]
		if choice.Message.Content != nil {
			snapshot.Content = *choice.Message.Content
		}
		if choice.FinishReason != nil {
			snapshot.FinishReason = string(*choice.FinishReason)
		}
	}
	data, _ := json.Marshal(snapshot)
	return string(data)
}

func emit(events chan<- SSEEvent, kind string, payload any) {
	data, _ := json.Marshal(payload)
	events <- SSEEvent{Event: kind, Data: string(data)}
}

// DiagnoseService adapts the diagnose package to the Diagnoser interface.
type DiagnoseService struct {
	embedder diagnose.Embedder
	store    *corpus.Store
}

func NewDiagnoseService(embedder diagnose.Embedder, store *corpus.Store) *DiagnoseService {
	return &DiagnoseService{embedder: embedder, store: store}
}

// Resolve implements Diagnoser.
func (s *DiagnoseService) Resolve(ctx context.Context, candidate string) (*diagnose.Resolved, error) {
	return diagnose.Resolve(ctx, s.embedder, s.store, candidate)
}
