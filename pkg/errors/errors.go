// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clint Contributors

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeCorpusConstructInvalidArray  Code = "corpus.construct.invalid_array"
	CodeCorpusConstructNaN           Code = "corpus.construct.nan_value"
	CodeCorpusConstructInvalidID     Code = "corpus.construct.invalid_id"
	CodeCorpusConstructInvalidRecord Code = "corpus.construct.invalid_record"
	CodeCorpusConstructShapeMismatch Code = "corpus.construct.shape_mismatch"
	CodeCorpusLoadReadFailure        Code = "corpus.load.read.failure"
	CodeCorpusQueryInvalidInput      Code = "corpus.query.invalid_input"

	CodeCompletionTransportFailure   Code = "completion.transport.failure"
	CodeCompletionTransportExhausted Code = "completion.transport.retries_exhausted"
	CodeCompletionStreamProtocol     Code = "completion.stream.protocol"
	CodeCompletionResponseEmpty      Code = "completion.response.empty"
	CodeCompletionSchemaInvalid      Code = "completion.schema.invalid"
	CodeCompletionSchemaExhausted    Code = "completion.schema.retries_exhausted"
	CodeCompletionRequestInvalid     Code = "completion.request.invalid"

	CodeEmbeddingFailure Code = "embedding.request.failure"

	CodeDocsFetchFailure Code = "docs.fetch.failure"

	CodeDiagnoseUnresolved Code = "diagnose.resolve.not_found"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeSecretInvalidInput   Code = "secret.invalid_input"
	CodeSecretNotFound       Code = "secret.not_found"
	CodeSecretResolveFailure Code = "secret.resolve.failure"

	CodeServerRequestInvalid  Code = "server.request.invalid"
	CodeServerInternalFailure Code = "server.internal.failure"
	CodeServerStartFailure    Code = "server.start.failure"

	CodeCLISetupFailure Code = "cli.setup.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldDocID(value string) Attr {
	return Field("doc_id", value)
}

func FieldAttempt(value int) Attr {
	return Field("attempt", value)
}

func FieldModel(value string) Attr {
	return Field("model", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// CodeOf extracts the Code from an error chain, or "" if none is present.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// IsConstruction reports whether err is a fatal corpus construction error.
func IsConstruction(err error) bool {
	return strings.HasPrefix(string(CodeOf(err)), "corpus.construct.")
}

// IsTransport reports whether err is a terminal transport error, including
// retry exhaustion.
func IsTransport(err error) bool {
	return strings.HasPrefix(string(CodeOf(err)), "completion.transport.")
}

// IsProtocol reports whether err is a malformed-stream-event error.
func IsProtocol(err error) bool {
	return HasCode(err, CodeCompletionStreamProtocol)
}

// IsEmptyResponse reports whether err is a missing-choice/missing-field
// completion error. These are terminal and never retried.
func IsEmptyResponse(err error) bool {
	return HasCode(err, CodeCompletionResponseEmpty)
}

// IsSchema reports whether err is a structured-output parse error.
func IsSchema(err error) bool {
	return strings.HasPrefix(string(CodeOf(err)), "completion.schema.")
}

// IsFetch reports whether err is a per-document fetch failure.
func IsFetch(err error) bool {
	return HasCode(err, CodeDocsFetchFailure)
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" ||
		r == "invalid_array" || r == "invalid_id" || r == "invalid_record"
}

// HTTPStatus maps an error to the status code the gateway should serve.
func HTTPStatus(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsInvalidInput(err) || HasCode(err, CodeCorpusQueryInvalidInput):
		return http.StatusBadRequest
	case IsTransport(err) || IsProtocol(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func Join(errs ...error) error {
	return oops.Code(CodeServerInternalFailure).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
