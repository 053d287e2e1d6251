// SPDX-License-Identifier: Apache-2.0

// Package extract pulls entity identifiers out of beacon result-set
// responses.
package extract

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/iper-jkane/beacon-verifier/internal/endpoint"
	"github.com/iper-jkane/beacon-verifier/internal/probe"
)

// idFields are the candidate identifier fields of a result record, checked
// in priority order.
var idFields = [...]string{"id", "variantInternalId", "cohortId"}

// ShapeError reports a response that does not follow the
// response.resultSets[].results[] contract: a structural node is missing, of
// the wrong JSON type, or a result record carries none of the identifier
// fields. It is a data-shape defect, deliberately distinct from an empty
// result, so a malformed response is never mistaken for "zero entities."
type ShapeError struct {
	// Path is the JSON pointer of the offending node.
	Path string
	// Want describes what the contract expects there.
	Want string
}

func (e *ShapeError) Error() string {
	path := e.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("malformed response shape: expected %s at %s", e.Want, path)
}

// Extractor lists entity identifiers exposed by an endpoint.
type Extractor struct {
	prober *probe.Prober
	logger *zap.Logger
}

// New creates an Extractor. A nil prober gets a default one; a nil logger
// disables logging.
func New(prober *probe.Prober, logger *zap.Logger) *Extractor {
	if prober == nil {
		prober = probe.New(nil, logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{prober: prober, logger: logger}
}

// IDs joins root and entity into an endpoint URL, probes it, and returns the
// identifiers of every result record, flattened across result sets in
// response order.
//
// A probe failure is lenient: it is logged and an empty list is returned, so
// the caller reads an unreachable endpoint as "nothing to check." A response
// that arrives but violates the result-set contract is the opposite case and
// returns a *ShapeError.
func (x *Extractor) IDs(ctx context.Context, root, entity *url.URL) ([]string, error) {
	target := endpoint.Join(root, entity)

	document, err := x.prober.Probe(ctx, target)
	if err != nil {
		x.logger.Error("fetching ids failed",
			zap.String("url", target.String()),
			zap.Error(err),
		)
		return []string{}, nil
	}

	top, ok := document.(map[string]any)
	if !ok {
		return nil, &ShapeError{Path: "", Want: "object"}
	}
	response, ok := top["response"].(map[string]any)
	if !ok {
		return nil, &ShapeError{Path: "/response", Want: "object"}
	}
	resultSets, ok := response["resultSets"].([]any)
	if !ok {
		return nil, &ShapeError{Path: "/response/resultSets", Want: "array"}
	}

	ids := make([]string, 0)
	for i, rs := range resultSets {
		setPath := fmt.Sprintf("/response/resultSets/%d", i)
		set, ok := rs.(map[string]any)
		if !ok {
			return nil, &ShapeError{Path: setPath, Want: "object"}
		}
		results, ok := set["results"].([]any)
		if !ok {
			return nil, &ShapeError{Path: setPath + "/results", Want: "array"}
		}
		for j, r := range results {
			recordPath := fmt.Sprintf("%s/results/%d", setPath, j)
			record, ok := r.(map[string]any)
			if !ok {
				return nil, &ShapeError{Path: recordPath, Want: "object"}
			}
			id, ok := recordID(record)
			if !ok {
				return nil, &ShapeError{
					Path: recordPath,
					Want: "a string id, variantInternalId or cohortId",
				}
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// recordID returns the first identifier field present on a result record.
func recordID(record map[string]any) (string, bool) {
	for _, field := range idFields {
		if id, ok := record[field].(string); ok {
			return id, true
		}
	}
	return "", false
}
