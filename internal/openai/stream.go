// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

package openai

import (
	"context"
	"io"

	clinterr "github.com/clint-dev/clint/pkg/errors"
)

// ChatStream is a pull-based view over a streamed chat completion. Each
// successful Next folds at least one delta into the accumulated completion,
// which Current exposes; callers see every intermediate state of the
// response as it grows.
//
// Not safe for concurrent use.
type ChatStream struct {
	body   io.ReadCloser
	events *sseReader
	resp   ChatCompletion
	err    error
	done   bool
}

// NewChatStream opens a streaming chat completion. The initial request is
// subject to the same 5xx retry policy as CreateChatCompletion; once the
// stream is open, failures surface through Err and are not retried.
//
// The caller must Close the stream.
func (c *Client) NewChatStream(ctx context.Context, args ChatCompletionArgs) (*ChatStream, error) {
	resp, err := c.post(ctx, "/chat/completions", c.buildRequest(args, true))
	if err != nil {
		return nil, err
	}
	return &ChatStream{body: resp.Body, events: newSSEReader(resp.Body)}, nil
}

// Next advances to the next state of the completion. It returns false when
// the stream has ended or failed; check Err afterwards.
func (s *ChatStream) Next() bool {
	if s.done {
		return false
	}
	for {
		payload, ok, err := s.events.Next()
		if err != nil {
			s.fail(clinterr.Wrapf(err, clinterr.CodeCompletionTransportFailure,
				"openai: reading stream"))
			return false
		}
		if !ok {
			s.finish()
			return false
		}
		if payload == streamEndMarker {
			s.finish()
			return false
		}

		changed, err := applyDelta(&s.resp, payload)
		if err != nil {
			s.fail(err)
			return false
		}
		if changed {
			return true
		}
	}
}

// Current returns the completion accumulated so far. The returned pointer
// stays valid across Next calls and always reflects the latest state.
func (s *ChatStream) Current() *ChatCompletion {
	return &s.resp
}

// Err reports the failure that ended the stream, if any.
func (s *ChatStream) Err() error {
	return s.err
}

// Close releases the underlying connection. Safe to call more than once.
func (s *ChatStream) Close() error {
	if s.body == nil {
		return nil
	}
	err := s.body.Close()
	s.body = nil
	return err
}

func (s *ChatStream) finish() {
	s.done = true
	_ = s.Close()
}

func (s *ChatStream) fail(err error) {
	s.err = err
	s.finish()
}
