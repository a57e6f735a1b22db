// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

package server

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clint-dev/clint/internal/assistant"
	"github.com/clint-dev/clint/internal/corpus"
	"github.com/clint-dev/clint/internal/docs"
	"github.com/clint-dev/clint/internal/openai"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionUpstream(t *testing.T, capture *[]byte, events ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				t.Errorf("reading upstream request: %v", err)
			}
			*capture = body
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, event := range events {
			_, _ = w.Write([]byte("data: " + event + "\n\n"))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newOpenAIClient(t *testing.T, baseURL string) *openai.Client {
	t.Helper()
	client, err := openai.New(openai.Config{APIKey: "test-key", BaseURL: baseURL})
	require.NoError(t, err)
	return client
}

func collectEvents(t *testing.T, svc *ChatService, content string) []SSEEvent {
	t.Helper()
	events := make(chan SSEEvent, 32)
	go svc.HandleStream(context.Background(), ChatStreamRequest{Content: content}, events)

	var got []SSEEvent
	for event := range events {
		got = append(got, event)
	}
	return got
}

func TestChatService_SnapshotsAndDone(t *testing.T) {
	upstream := completionUpstream(t, nil,
		`{"choices":[{"delta":{"role":"assistant","content":"Hel"}}]}`,
		`{"choices":[{"delta":{"content":"lo"}}]}`,
		`{"choices":[{"delta":{},"finish_reason":"stop"}]}`,
		`[DONE]`,
	)
	svc := NewChatService(nil, newOpenAIClient(t, upstream.URL), 0)

	got := collectEvents(t, svc, "hi")
	require.Len(t, got, 4)

	var first, last chatSnapshot
	require.NoError(t, json.Unmarshal([]byte(got[0].Data), &first))
	require.NoError(t, json.Unmarshal([]byte(got[3].Data), &last))

	assert.Equal(t, "message", got[0].Event)
	assert.Equal(t, "Hel", first.Content)
	assert.Empty(t, first.FinishReason)

	assert.Equal(t, "done", got[3].Event)
	assert.Equal(t, "Hello", last.Content)
	assert.Equal(t, "stop", last.FinishReason)

	// Every event carries the same stream id, and it is a real UUID.
	_, err := uuid.Parse(first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, last.ID)
}

func TestChatService_UpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(upstream.Close)
	svc := NewChatService(nil, newOpenAIClient(t, upstream.URL), 0)

	got := collectEvents(t, svc, "hi")
	require.Len(t, got, 1)
	assert.Equal(t, "error", got[0].Event)

	var failure chatFailure
	require.NoError(t, json.Unmarshal([]byte(got[0].Data), &failure))
	assert.NotEmpty(t, failure.Error)
}

func TestChatService_ExcerptContext(t *testing.T) {
	var captured []byte
	upstream := completionUpstream(t, &captured,
		`{"choices":[{"delta":{"content":"Per the corpus..."}}]}`,
		`[DONE]`,
	)

	svc := NewChatService(excerptAssistant(t), newOpenAIClient(t, upstream.URL), 2)
	got := collectEvents(t, svc, "what causes chest pain?")
	require.NotEmpty(t, got)
	assert.Equal(t, "done", got[len(got)-1].Event)

	var req struct {
		Messages []struct {
			Role    string  `json:"role"`
			Content *string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(captured, &req))
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	require.NotNil(t, req.Messages[0].Content)
	assert.Contains(t, *req.Messages[0].Content, "excerpt for")
	assert.Equal(t, "user", req.Messages[1].Role)
}

// excerptAssistant wires a two-document corpus to a canned fetcher.
func excerptAssistant(t *testing.T) *assistant.Assistant {
	t.Helper()
	hexID := func(b byte) string {
		return strings.Repeat(string("0123456789abcdef"[b&0xf]), 32)
	}
	header := "{'descr': '<f4', 'fortran_order': False, 'shape': (2, 2), }\n"
	embeddings := []byte("\x93NUMPY\x01\x00")
	embeddings = binary.LittleEndian.AppendUint16(embeddings, uint16(len(header)))
	embeddings = append(embeddings, header...)
	for _, v := range []float32{1, 0, 0, 1} {
		embeddings = binary.LittleEndian.AppendUint32(embeddings, math.Float32bits(v))
	}

	store, err := corpus.New(corpus.Resources{
		Embeddings:   embeddings,
		IDs:          []byte(hexID(1) + "\n" + hexID(2) + "\n"),
		Titles:       []byte(hexID(1) + "\tChest pain\n"),
		Introduction: []byte(hexID(1) + "\n"),
		Symptoms:     []byte(hexID(2) + "\n"),
	})
	require.NoError(t, err)

	return assistant.New(store, embedderFunc(func(context.Context, string) ([]float32, error) {
		return []float32{1, 0}, nil
	}), fetcherFunc(func(_ context.Context, _ docs.Meta, ids []corpus.DocID) []string {
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = fmt.Sprintf("excerpt for %s", id.String()[:4])
		}
		return out
	}))
}

type embedderFunc func(context.Context, string) ([]float32, error)

func (f embedderFunc) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

type fetcherFunc func(context.Context, docs.Meta, []corpus.DocID) []string

func (f fetcherFunc) Excerpts(ctx context.Context, meta docs.Meta, ids []corpus.DocID) []string {
	return f(ctx, meta, ids)
}
