// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

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
	CodeEmbedModelUnavailable Code = "embed.model.unavailable"
	CodeEmbedRequestInvalid   Code = "embed.request.invalid"
	CodeEmbedResponseInvalid  Code = "embed.response.invalid"

	CodeStoreBackendUnavailable Code = "store.backend.unavailable"
	CodeStoreBackendUnsupported Code = "store.backend.unsupported"
	CodeStoreDimensionMismatch  Code = "store.record.dimension_mismatch"
	CodeStoreInvalidInput       Code = "store.record.invalid_input"
	CodeStoreRecordNotFound     Code = "store.record.not_found"

	CodeSearchRequestInvalid Code = "search.request.invalid"

	CodeIngestPairInvalid  Code = "ingest.pair.invalid_input"
	CodeIngestBatchAborted Code = "ingest.batch.aborted"

	CodeSuggestProviderMissing Code = "suggest.provider.not_found"
	CodeSuggestRequestInvalid  Code = "suggest.request.invalid"
	CodeSuggestUpstreamFailure Code = "suggest.upstream.failure"
	CodeSuggestResponseInvalid Code = "suggest.response.invalid"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeServerRequestInvalid  Code = "server.request.invalid"
	CodeServerInternalFailure Code = "server.internal.failure"
	CodeServerStartFailure    Code = "server.start.failure"

	CodeCLIInputInvalid   Code = "cli.input.invalid"
	CodeCLISetupFailure   Code = "cli.setup.failure"
	CodeCLIRequestFailure Code = "cli.request.failure"

	CodeSecretNotFound       Code = "secret.not_found"
	CodeSecretInvalidInput   Code = "secret.invalid_input"
	CodeSecretStoreFailure   Code = "secret.store.failure"
	CodeSecretDeleteFailure  Code = "secret.delete.failure"
	CodeSecretListFailure    Code = "secret.list.failure"
	CodeSecretResolveFailure Code = "secret.resolve.failure"
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

func FieldBackend(value string) Attr {
	return Field("backend", value)
}

func FieldModel(value string) Attr {
	return Field("model", value)
}

func FieldProvider(value string) Attr {
	return Field("provider", value)
}

func FieldRecordID(value int64) Attr {
	return Field("record_id", value)
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

// With adds structured fields to an existing error chain.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	code := CodeOf(err)
	if code == "" {
		code = CodeServerInternalFailure
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

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

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

// IsUnavailable reports whether the error comes from an unreachable
// collaborator (embedding model or persistence backend). Callers use this
// to distinguish "search failed" from "no matches found".
func IsUnavailable(err error) bool {
	return reason(CodeOf(err)) == "unavailable"
}

// IsDimensionMismatch reports whether a vector violated the store's
// fixed-dimension invariant.
func IsDimensionMismatch(err error) bool {
	return reason(CodeOf(err)) == "dimension_mismatch"
}

func IsUpstreamFailure(err error) bool {
	code := CodeOf(err)
	return strings.Contains(string(code), "upstream") && reason(code) == "failure"
}

// HTTPStatus maps an error chain onto an HTTP status code. Wrapper codes
// without a classified reason (batch aborts and the like) are transparent:
// the walk continues inward until a classified code is found.
func HTTPStatus(err error) int {
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		switch {
		case IsNotFound(e):
			return http.StatusNotFound
		case IsInvalidInput(e), IsDimensionMismatch(e):
			return http.StatusBadRequest
		case IsUnavailable(e):
			return http.StatusServiceUnavailable
		case IsUpstreamFailure(e):
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
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
