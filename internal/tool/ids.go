// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"
	"net/url"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/iper-jkane/beacon-verifier/internal/extract"
)

// MetadataListEntityIDs describes the list_entity_ids tool.
var MetadataListEntityIDs = &mcp.Tool{
	Name: "list_entity_ids",
	Description: "List the entity identifiers exposed by a beacon entity endpoint. The entity path " +
		"is joined onto the root URL, the endpoint is probed, and every result record's identifier " +
		"(id, variantInternalId or cohortId) is returned in response order. An unreachable endpoint " +
		"yields an empty list; a response that violates the result-set shape is an error.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"root_url", "entity_path"},
		"properties": map[string]interface{}{
			"root_url": map[string]interface{}{
				"type":        "string",
				"description": "Absolute base URL of the beacon service",
			},
			"entity_path": map[string]interface{}{
				"type":        "string",
				"description": "Relative path of the entity-listing endpoint, e.g. /biosamples",
			},
		},
	},
}

// InputListEntityIDs is the input for the ListEntityIDs tool.
type InputListEntityIDs struct {
	RootURL    string `json:"root_url"`
	EntityPath string `json:"entity_path"`
}

// OutputListEntityIDs is the output for the ListEntityIDs tool.
type OutputListEntityIDs struct {
	IDs   []string `json:"ids"`
	Count int      `json:"count"`
}

// ListEntityIDs extracts entity identifiers from a beacon listing endpoint.
func ListEntityIDs(ctx context.Context, _ *mcp.CallToolRequest, input InputListEntityIDs) (*mcp.CallToolResult, OutputListEntityIDs, error) {
	root, err := parseEndpointURL(input.RootURL)
	if err != nil {
		return nil, OutputListEntityIDs{}, fmt.Errorf("root_url: %w", err)
	}
	if input.EntityPath == "" {
		return nil, OutputListEntityIDs{}, fmt.Errorf("entity_path is required")
	}
	entity, err := url.Parse(input.EntityPath)
	if err != nil {
		return nil, OutputListEntityIDs{}, fmt.Errorf("entity_path %q does not parse: %w", input.EntityPath, err)
	}

	ids, err := extract.New(nil, nil).IDs(ctx, root, entity)
	if err != nil {
		return nil, OutputListEntityIDs{}, err
	}
	return nil, OutputListEntityIDs{IDs: ids, Count: len(ids)}, nil
}
