// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

package openai

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	clinterr "github.com/clint-dev/clint/pkg/errors"
)

// streamEndMarker is the sentinel payload the upstream sends after the last
// delta.
const streamEndMarker = "[DONE]"

type functionCallDelta struct {
	Name      *string `json:"name"`
	Arguments *string `json:"arguments"`
}

type chatDelta struct {
	Role         *Role              `json:"role"`
	Content      *string            `json:"content"`
	Name         *string            `json:"name"`
	FunctionCall *functionCallDelta `json:"function_call"`
}

type choiceDelta struct {
	Delta        chatDelta     `json:"delta"`
	FinishReason *FinishReason `json:"finish_reason"`
}

type completionDelta struct {
	Choices []choiceDelta `json:"choices"`
}

// applyDelta folds one stream event payload into resp. It returns whether
// the accumulated completion changed: blank payloads, the end marker,
// events carrying no choice, and deltas with no fields to apply are no-ops.
//
// The first delta materializes the choice: role defaults to assistant,
// content to the empty string, and the finish reason stays unset regardless
// of what the delta carries. Subsequent deltas append content, message name,
// and function-call name/argument fragments, and overwrite role and finish
// reason when present.
func applyDelta(resp *ChatCompletion, payload string) (bool, error) {
	if !utf8.ValidString(payload) {
		return false, clinterr.New(clinterr.CodeCompletionStreamProtocol,
			"openai: stream event is not valid utf-8")
	}
	if strings.TrimSpace(payload) == "" || payload == streamEndMarker {
		return false, nil
	}

	var update completionDelta
	if err := json.Unmarshal([]byte(payload), &update); err != nil {
		return false, clinterr.Wrapf(err, clinterr.CodeCompletionStreamProtocol,
			"openai: decoding stream event")
	}
	if len(update.Choices) == 0 {
		return false, nil
	}
	delta := update.Choices[0]

	if len(resp.Choices) == 0 {
		role := RoleAssistant
		if delta.Delta.Role != nil {
			role = *delta.Delta.Role
		}
		content := ""
		if delta.Delta.Content != nil {
			content = *delta.Delta.Content
		}
		choice := ChatChoice{
			Message: ChatMessage{Role: role, Content: &content, Name: delta.Delta.Name},
		}
		if fc := delta.Delta.FunctionCall; fc != nil {
			choice.Message.FunctionCall = &FunctionCall{
				Name:      strDefault(fc.Name),
				Arguments: strDefault(fc.Arguments),
			}
		}
		resp.Choices = append(resp.Choices, choice)
		return true, nil
	}

	choice := &resp.Choices[0]
	changed := false
	if delta.Delta.Role != nil {
		choice.Message.Role = *delta.Delta.Role
		changed = true
	}
	if delta.Delta.Content != nil {
		appendString(&choice.Message.Content, *delta.Delta.Content)
		changed = true
	}
	if delta.Delta.Name != nil {
		appendString(&choice.Message.Name, *delta.Delta.Name)
		changed = true
	}
	if fc := delta.Delta.FunctionCall; fc != nil && (fc.Name != nil || fc.Arguments != nil) {
		if choice.Message.FunctionCall == nil {
			choice.Message.FunctionCall = &FunctionCall{}
		}
		if fc.Name != nil {
			choice.Message.FunctionCall.Name += *fc.Name
			changed = true
		}
		if fc.Arguments != nil {
			choice.Message.FunctionCall.Arguments += *fc.Arguments
			changed = true
		}
	}
	if delta.FinishReason != nil {
		choice.FinishReason = delta.FinishReason
		changed = true
	}
	return changed, nil
}

func appendString(dst **string, fragment string) {
	if *dst == nil {
		s := fragment
		*dst = &s
		return
	}
	s := **dst + fragment
	*dst = &s
}

func strDefault(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
