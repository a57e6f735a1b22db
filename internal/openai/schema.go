// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

package openai

import (
	"context"
	"encoding/json"

	clinterr "github.com/clint-dev/clint/pkg/errors"
	"github.com/google/jsonschema-go/jsonschema"
)

// schemaRetryTemperature replaces the caller's sampling temperature from the
// second attempt on, nudging the model off a malformed output it would
// otherwise reproduce.
const schemaRetryTemperature float32 = 0.5

// CallFunction forces the model through a function whose parameter schema is
// derived from T and decodes the arguments it produces into a T. The schema
// is built once per call. When the model's output does not decode into T,
// the whole completion is retried up to the client's MaxRetries, with the
// temperature raised to 0.5 from the second attempt on. A response with no
// function call at all is terminal, not retried.
func CallFunction[T any](ctx context.Context, c *Client, args ChatCompletionArgs, name, description string) (T, error) {
	var zero T

	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return zero, clinterr.Wrapf(err, clinterr.CodeCompletionRequestInvalid,
			"openai: deriving schema for function %q", name)
	}
	params, err := json.Marshal(schema)
	if err != nil {
		return zero, clinterr.Wrapf(err, clinterr.CodeCompletionRequestInvalid,
			"openai: encoding schema for function %q", name)
	}

	for attempt := 0; ; attempt++ {
		callArgs := args
		callArgs.Functions = []FunctionDef{{Name: name, Description: description, Parameters: params}}
		callArgs.FunctionCall = name
		if attempt > 0 {
			temp := schemaRetryTemperature
			callArgs.Temperature = &temp
		}

		resp, err := c.CreateChatCompletion(ctx, callArgs)
		if err != nil {
			return zero, err
		}
		if len(resp.Choices) == 0 {
			return zero, clinterr.New(clinterr.CodeCompletionResponseEmpty,
				"openai: completion carried no choices",
				clinterr.Field("function", name))
		}
		call := resp.Choices[0].Message.FunctionCall
		if call == nil {
			return zero, clinterr.New(clinterr.CodeCompletionResponseEmpty,
				"openai: completion carried no function call",
				clinterr.Field("function", name))
		}

		var out T
		if err := json.Unmarshal([]byte(call.Arguments), &out); err != nil {
			if attempt < c.cfg.MaxRetries {
				continue
			}
			return zero, clinterr.Wrapf(err, clinterr.CodeCompletionSchemaExhausted,
				"openai: function %q output never matched its schema", name)
		}
		return out, nil
	}
}
