// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/iper-jkane/beacon-verifier/internal/probe"
	"github.com/iper-jkane/beacon-verifier/internal/schema"
)

// MetadataValidateResponse describes the validate_response tool.
var MetadataValidateResponse = &mcp.Tool{
	Name: "validate_response",
	Description: "Probe an endpoint and validate its JSON response against a JSON Schema. The schema " +
		"is given inline as a JSON object or as a path to a .json/.yaml schema file. All violations " +
		"are collected, each with its machine-readable kind, message and instance path; a " +
		"non-conforming response is reported in the output, not as a tool error.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"url"},
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "Absolute URL of the endpoint whose response is validated",
			},
			"schema": map[string]interface{}{
				"type":        "object",
				"description": "Inline JSON Schema document. Exactly one of schema and schema_file must be given.",
			},
			"schema_file": map[string]interface{}{
				"type":        "string",
				"description": "Path to a schema document (.json, .yaml or .yml)",
			},
		},
	},
}

// InputValidateResponse is the input for the ValidateResponse tool.
type InputValidateResponse struct {
	URL        string                 `json:"url"`
	Schema     map[string]interface{} `json:"schema"`
	SchemaFile string                 `json:"schema_file"`
}

// OutputValidateResponse is the output for the ValidateResponse tool.
type OutputValidateResponse struct {
	Valid bool `json:"valid"`
	// Violations holds one rendered line per violation when Valid is false.
	Violations []string `json:"violations,omitempty"`
}

// ValidateResponse probes an endpoint and validates the response against the
// supplied schema.
func ValidateResponse(ctx context.Context, _ *mcp.CallToolRequest, input InputValidateResponse) (*mcp.CallToolResult, OutputValidateResponse, error) {
	target, err := parseEndpointURL(input.URL)
	if err != nil {
		return nil, OutputValidateResponse{}, err
	}
	compiled, err := compileInput(input)
	if err != nil {
		return nil, OutputValidateResponse{}, err
	}

	document, err := probe.New(nil, nil).Probe(ctx, target)
	if err != nil {
		return nil, OutputValidateResponse{}, err
	}

	if _, err := compiled.Validate(document); err != nil {
		var verr *schema.ValidationError
		if !errors.As(err, &verr) {
			return nil, OutputValidateResponse{}, err
		}
		violations := make([]string, 0, len(verr.Violations))
		for _, v := range verr.Violations {
			violations = append(violations, fmt.Sprintf("%s - %s (%s)", v.Kind, v.Message, v.InstancePath))
		}
		return nil, OutputValidateResponse{Valid: false, Violations: violations}, nil
	}
	return nil, OutputValidateResponse{Valid: true}, nil
}

func compileInput(input InputValidateResponse) (*schema.Compiled, error) {
	switch {
	case input.Schema != nil && input.SchemaFile != "":
		return nil, fmt.Errorf("schema and schema_file are mutually exclusive")
	case input.Schema != nil:
		return schema.Compile(input.Schema, nil)
	case input.SchemaFile != "":
		return schema.CompileFile(input.SchemaFile, nil)
	default:
		return nil, fmt.Errorf("one of schema or schema_file is required")
	}
}
