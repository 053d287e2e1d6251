// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sweepSchema = `{
	"type": "object",
	"required": ["x"],
	"properties": {"x": {"type": "string"}}
}`

func sweepServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/biosamples":
			_, _ = w.Write([]byte(`{"response":{"resultSets":[{"results":[{"id":"sample-1"}]}]}}`))
		case "/api/biosamples/sample-1":
			_, _ = w.Write([]byte(`{"x":"ok"}`))
		case "/api/malformed":
			_, _ = w.Write([]byte(`{"x":5}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeSweep(t *testing.T, dir, manifest string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "schemas"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schemas", "biosample.json"), []byte(sweepSchema), 0o644))
	path := filepath.Join(dir, "beacon-verifier.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))
	return path
}

func TestRunCheckPasses(t *testing.T) {
	srv := sweepServer(t)
	dir := t.TempDir()

	manifest := fmt.Sprintf(`
root_url: %s/api
timeout: 5s
schema_dir: schemas
cache_dir: cache
checks:
  - name: biosample by id
    path: /biosamples/{id}
    vars:
      id: sample-1
    schema: biosample.json
entities:
  - name: biosamples
    path: /biosamples
`, srv.URL)

	err := runCheck(context.Background(), writeSweep(t, dir, manifest), zap.NewNop())
	require.NoError(t, err)

	// The schema bundle is compiled from the mirrored cache.
	mirrored, err := os.ReadFile(filepath.Join(dir, "cache", "biosample.json"))
	require.NoError(t, err)
	assert.Equal(t, sweepSchema, string(mirrored))
}

func TestRunCheckReportsFailures(t *testing.T) {
	srv := sweepServer(t)
	dir := t.TempDir()

	manifest := fmt.Sprintf(`
root_url: %s/api
checks:
  - name: conforming
    path: /biosamples/{id}
    vars:
      id: sample-1
    schema: schemas/biosample.json
  - name: violating
    path: /malformed
    schema: schemas/biosample.json
  - name: unreachable
    path: /absent
entities:
  - name: malformed listing
    path: /malformed
`, srv.URL)

	err := runCheck(context.Background(), writeSweep(t, dir, manifest), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 of 4 checks failed")
}

func TestRunCheckMissingConfig(t *testing.T) {
	err := runCheck(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"), zap.NewNop())
	assert.Error(t, err)
}
