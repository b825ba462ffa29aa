// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package types

import (
	"strings"

	triageerr "github.com/triage-dev/triage/pkg/errors"
)

// IngestMode defines how a batch ingest reacts to a failing pair.
type IngestMode string

const (
	// IngestModeFailFast stops the batch at the first failed pair.
	IngestModeFailFast IngestMode = "fail-fast"
	// IngestModeBestEffort records the failure and continues with the
	// remaining pairs.
	IngestModeBestEffort IngestMode = "best-effort"
)

// Valid reports whether m is a recognized ingest mode.
func (m IngestMode) Valid() bool {
	switch m {
	case IngestModeFailFast, IngestModeBestEffort:
		return true
	default:
		return false
	}
}

// ParseIngestMode parses a case-insensitive string into an IngestMode.
// An empty string parses to the fail-fast default.
func ParseIngestMode(s string) (IngestMode, error) {
	if s == "" {
		return IngestModeFailFast, nil
	}
	m := IngestMode(strings.ToLower(s))
	if !m.Valid() {
		return "", triageerr.Errorf(triageerr.CodeConfigValidateInvalidValue,
			"invalid ingest mode: %q", s)
	}
	return m, nil
}
