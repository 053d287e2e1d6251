// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iper-jkane/beacon-verifier/internal/probe"
)

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestIDs(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		handler       http.HandlerFunc
		wantIDs       []string
		wantShapePath string
	}{
		{
			name:    "identifiers in response order with field fallback",
			handler: jsonHandler(`{"response":{"resultSets":[{"results":[{"id":"a"},{"variantInternalId":"b"}]}]}}`),
			wantIDs: []string{"a", "b"},
		},
		{
			name: "identifiers flattened across result sets",
			handler: jsonHandler(`{"response":{"resultSets":[
				{"results":[{"id":"bs-1"},{"id":"bs-2"}]},
				{"results":[{"cohortId":"c-1"}]}
			]}}`),
			wantIDs: []string{"bs-1", "bs-2", "c-1"},
		},
		{
			name:    "id takes priority over the fallback fields",
			handler: jsonHandler(`{"response":{"resultSets":[{"results":[{"cohortId":"fallback","id":"primary"}]}]}}`),
			wantIDs: []string{"primary"},
		},
		{
			name:    "empty result sets yield no identifiers",
			handler: jsonHandler(`{"response":{"resultSets":[]}}`),
			wantIDs: []string{},
		},
		{
			name:          "top-level value is not an object",
			handler:       jsonHandler(`[1,2,3]`),
			wantShapePath: "",
		},
		{
			name:          "response property missing",
			handler:       jsonHandler(`{"meta":{}}`),
			wantShapePath: "/response",
		},
		{
			name:          "resultSets is not an array",
			handler:       jsonHandler(`{"response":{"resultSets":{"oops":true}}}`),
			wantShapePath: "/response/resultSets",
		},
		{
			name:          "result set missing its results array",
			handler:       jsonHandler(`{"response":{"resultSets":[{"exists":true}]}}`),
			wantShapePath: "/response/resultSets/0/results",
		},
		{
			name:          "result record is not an object",
			handler:       jsonHandler(`{"response":{"resultSets":[{"results":["bare"]}]}}`),
			wantShapePath: "/response/resultSets/0/results/0",
		},
		{
			name:          "record without any identifier field",
			handler:       jsonHandler(`{"response":{"resultSets":[{"results":[{"id":"ok"},{"name":"anonymous"}]}]}}`),
			wantShapePath: "/response/resultSets/0/results/1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			root, err := url.Parse(srv.URL)
			require.NoError(t, err)
			entity, err := url.Parse("/biosamples")
			require.NoError(t, err)

			extractor := New(probe.New(srv.Client(), zap.NewNop()), zap.NewNop())
			ids, err := extractor.IDs(ctx, root, entity)

			if tt.wantIDs != nil {
				require.NoError(t, err)
				assert.Equal(t, tt.wantIDs, ids)
				return
			}

			require.Error(t, err)
			var serr *ShapeError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.wantShapePath, serr.Path)
		})
	}
}

func TestIDsProbeFailureIsLenient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	root, err := url.Parse(srv.URL)
	require.NoError(t, err)
	entity, err := url.Parse("/biosamples")
	require.NoError(t, err)

	extractor := New(probe.New(srv.Client(), zap.NewNop()), zap.NewNop())
	ids, err := extractor.IDs(context.Background(), root, entity)

	require.NoError(t, err, "an unreachable endpoint must read as nothing to check")
	assert.Empty(t, ids)
	assert.NotNil(t, ids)
}

func TestIDsQueriesJoinedURL(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		jsonHandler(`{"response":{"resultSets":[{"results":[{"id":"a"}]}]}}`)(w, r)
	}))
	defer srv.Close()

	root, err := url.Parse(srv.URL + "/api")
	require.NoError(t, err)
	entity, err := url.Parse("/cohorts")
	require.NoError(t, err)

	extractor := New(probe.New(srv.Client(), zap.NewNop()), zap.NewNop())
	ids, err := extractor.IDs(context.Background(), root, entity)

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
	assert.Equal(t, "/api/cohorts", gotPath)
}
