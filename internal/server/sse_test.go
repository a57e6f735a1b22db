// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedHandler struct {
	events []SSEEvent
	got    ChatStreamRequest
}

func (h *scriptedHandler) HandleStream(_ context.Context, req ChatStreamRequest, events chan<- SSEEvent) {
	h.got = req
	for _, event := range h.events {
		events <- event
	}
	close(events)
}

func streamRequest(t *testing.T, handler http.Handler, body, accept string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/stream", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestChatStreamRoute_SSE(t *testing.T) {
	handler := &scriptedHandler{events: []SSEEvent{
		{Event: "message", Data: `{"id":"s1","content":"Hel"}`},
		{Event: "message", Data: `{"id":"s1","content":"Hello"}`},
		{Event: "done", Data: `{"id":"s1","content":"Hello","finish_reason":"stop"}`},
	}}
	srv := newTestServer(t, nil)
	srv.RegisterStreamHandler(handler)

	rec := streamRequest(t, srv.Handler(), `{"content":"hi"}`, "text/event-stream")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "hi", handler.got.Content)

	body := rec.Body.String()
	assert.Contains(t, body, "event: message\ndata: {\"id\":\"s1\",\"content\":\"Hel\"}\n\n")
	assert.Contains(t, body, "event: done\n")
}

func TestChatStreamRoute_JSONFallback(t *testing.T) {
	handler := &scriptedHandler{events: []SSEEvent{
		{Event: "message", Data: `{"id":"s1","content":"Hello"}`},
		{Event: "done", Data: `{"id":"s1","content":"Hello","finish_reason":"stop"}`},
	}}
	srv := newTestServer(t, nil)
	srv.RegisterStreamHandler(handler)

	rec := streamRequest(t, srv.Handler(), `{"content":"hi"}`, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Events []json.RawMessage `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 2)
	assert.JSONEq(t, `{"id":"s1","content":"Hello"}`, string(resp.Events[0]))
}

func TestChatStreamRoute_Rejects(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.RegisterStreamHandler(&scriptedHandler{})

	t.Run("missing content", func(t *testing.T) {
		rec := streamRequest(t, srv.Handler(), `{}`, "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := streamRequest(t, srv.Handler(), `{`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestChatStreamRoute_NoHandler(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := streamRequest(t, srv.Handler(), `{"content":"hi"}`, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
