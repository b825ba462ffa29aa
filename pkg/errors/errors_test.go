// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package errors_test

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	triageerr "github.com/triage-dev/triage/pkg/errors"
)

func TestNewIncludesCodeAndFields(t *testing.T) {
	err := triageerr.New(
		triageerr.CodeStoreDimensionMismatch,
		"embedding has wrong dimension",
		triageerr.FieldBackend("sqlite"),
		triageerr.Field("want", 384),
	)

	require.Error(t, err)
	assert.Equal(t, triageerr.CodeStoreDimensionMismatch, triageerr.CodeOf(err))
	assert.True(t, triageerr.HasCode(err, triageerr.CodeStoreDimensionMismatch))

	fields := triageerr.FieldsOf(err)
	assert.Equal(t, "sqlite", fields["backend"])
	assert.Equal(t, 384, fields["want"])
}

func TestErrorfFormatsMessage(t *testing.T) {
	err := triageerr.Errorf(triageerr.CodeEmbedModelUnavailable, "embedding %q: connection refused", "disk full")
	require.Error(t, err)
	assert.Equal(t, triageerr.CodeEmbedModelUnavailable, triageerr.CodeOf(err))
	assert.Contains(t, err.Error(), `embedding "disk full": connection refused`)
}

func TestErrorfWrapsInnerError(t *testing.T) {
	inner := stderrors.New("connection reset")
	err := triageerr.Errorf(triageerr.CodeStoreBackendUnavailable, "inserting record: %w", inner)
	require.Error(t, err)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, triageerr.CodeStoreBackendUnavailable, triageerr.CodeOf(err))
}

func TestWrapPreservesWrappedErrorAndCode(t *testing.T) {
	root := stderrors.New("no such table")
	err := triageerr.Wrap(
		root,
		triageerr.CodeStoreBackendUnavailable,
		"querying nearest records",
		triageerr.FieldBackend("sqlite"),
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, root)
	assert.Equal(t, triageerr.CodeStoreBackendUnavailable, triageerr.CodeOf(err))
	assert.True(t, triageerr.IsUnavailable(err))
	assert.Equal(t, "sqlite", triageerr.FieldsOf(err)["backend"])
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, triageerr.Wrap(nil, triageerr.CodeStoreBackendUnavailable, "ignored"))
	assert.NoError(t, triageerr.Wrapf(nil, triageerr.CodeStoreBackendUnavailable, "ignored"))
	assert.NoError(t, triageerr.With(nil, triageerr.Field("k", "v")))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, triageerr.Code(""), triageerr.CodeOf(stderrors.New("plain")))
	assert.Equal(t, triageerr.Code(""), triageerr.CodeOf(nil))
}

func TestClassifiers(t *testing.T) {
	assert.True(t, triageerr.IsUnavailable(triageerr.New(triageerr.CodeEmbedModelUnavailable, "down")))
	assert.True(t, triageerr.IsDimensionMismatch(triageerr.New(triageerr.CodeStoreDimensionMismatch, "len")))
	assert.True(t, triageerr.IsInvalidInput(triageerr.New(triageerr.CodeSearchRequestInvalid, "negative k")))
	assert.True(t, triageerr.IsNotFound(triageerr.New(triageerr.CodeSuggestProviderMissing, "no provider")))
	assert.True(t, triageerr.IsUpstreamFailure(triageerr.New(triageerr.CodeSuggestUpstreamFailure, "llm failed")))

	assert.False(t, triageerr.IsUnavailable(triageerr.New(triageerr.CodeSearchRequestInvalid, "nope")))
	assert.False(t, triageerr.IsDimensionMismatch(nil))
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", triageerr.New(triageerr.CodeSearchRequestInvalid, "bad k"), http.StatusBadRequest},
		{"dimension mismatch", triageerr.New(triageerr.CodeStoreDimensionMismatch, "len"), http.StatusBadRequest},
		{"store unavailable", triageerr.New(triageerr.CodeStoreBackendUnavailable, "down"), http.StatusServiceUnavailable},
		{"embedder unavailable", triageerr.New(triageerr.CodeEmbedModelUnavailable, "down"), http.StatusServiceUnavailable},
		{"suggest upstream", triageerr.New(triageerr.CodeSuggestUpstreamFailure, "llm"), http.StatusBadGateway},
		{"not found", triageerr.New(triageerr.CodeSuggestProviderMissing, "none"), http.StatusNotFound},
		{
			"batch abort over unavailable embedder",
			triageerr.Wrap(
				triageerr.New(triageerr.CodeEmbedModelUnavailable, "down"),
				triageerr.CodeIngestBatchAborted, "pair 2 of 5 failed",
			),
			http.StatusServiceUnavailable,
		},
		{"plain", stderrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, triageerr.HTTPStatus(tc.err))
		})
	}
}

func TestJoinCombinesErrors(t *testing.T) {
	e1 := stderrors.New("first")
	e2 := stderrors.New("second")
	joined := triageerr.Join(e1, e2)

	require.Error(t, joined)
	assert.ErrorIs(t, joined, e1)
	assert.ErrorIs(t, joined, e2)
}
