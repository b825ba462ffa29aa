// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package sqlite

import (
	"github.com/triage-dev/triage/internal/store"
	triageerr "github.com/triage-dev/triage/pkg/errors"
)

func init() {
	store.RegisterBackend("sqlite", newRecordStore)
}

func newRecordStore(cfg store.StorageConfig) (store.RecordStore, error) {
	if cfg.Path == "" {
		return nil, triageerr.New(triageerr.CodeConfigValidateInvalidValue,
			"sqlite backend requires storage.path")
	}
	return NewRecordStore(cfg.Path, cfg.VectorDimensions, cfg.Timeout)
}
