// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package sqlite_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testDBPath returns a temp SQLite database path cleaned up with the test.
func testDBPath(t *testing.T, name string) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "triage-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, name+".db")
}
