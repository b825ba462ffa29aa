// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Triage Contributors

package main

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	triageerr "github.com/triage-dev/triage/pkg/errors"
)

// defaultHTTPClient is the package-level HTTP client used by commands that
// talk to a running triage server. Overridden in tests via httptest.
var defaultHTTPClient = &http.Client{
	Timeout: 5 * time.Second,
}

// apiClient provides HTTP access to a running triage server.
type apiClient struct {
	baseURL string
	http    *http.Client
}

// newAPIClient creates a client targeting the given host:port address.
func newAPIClient(addr string) *apiClient {
	return &apiClient{
		baseURL: "http://" + addr,
		http:    defaultHTTPClient,
	}
}

// getJSON performs a GET request and decodes the JSON response into dest.
// A connection-refused error carries CodeCLIRequestFailure with a hint
// that the server is not running.
func (c *apiClient) getJSON(path string, dest any) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		if isDialError(err) {
			return triageerr.Errorf(triageerr.CodeCLIRequestFailure,
				"triage server is not running at %s (run 'triage serve')", c.baseURL)
		}
		return triageerr.Errorf(triageerr.CodeCLIRequestFailure, "request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return triageerr.Errorf(triageerr.CodeCLIRequestFailure,
			"server returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return triageerr.Errorf(triageerr.CodeCLIRequestFailure, "invalid response: %w", err)
	}
	return nil
}

// isDialError returns true if err is a net dial error (connection refused, etc.).
func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}
