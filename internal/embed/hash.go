// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Compile-time interface check.
var _ Embedder = (*HashEmbedder)(nil)

// HashEmbedder is a local, dependency-free embedder using bag-of-words
// feature hashing: each token is hashed into one of D buckets and the
// resulting count vector is L2-normalized. It is fully deterministic and
// needs no API key, which makes it the offline backend and the test
// vehicle for similarity properties. Texts sharing tokens score high;
// unrelated texts score near zero.
type HashEmbedder struct {
	dims int
}

// NewHash creates a HashEmbedder with the given dimension.
func NewHash(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = 256
	}
	return &HashEmbedder{dims: dims}
}

func (e *HashEmbedder) Model() string { return "feature-hash" }

func (e *HashEmbedder) Dimensions() int { return e.dims }

func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dims)

	for _, tok := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%uint32(e.dims)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}

// tokenize lowercases and splits on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
