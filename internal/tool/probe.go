// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"
	"net/url"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/iper-jkane/beacon-verifier/internal/probe"
)

// MetadataProbeEndpoint describes the probe_endpoint tool.
var MetadataProbeEndpoint = &mcp.Tool{
	Name: "probe_endpoint",
	Description: "Probe an HTTP endpoint of a beacon data service and return its JSON response. " +
		"The probe issues a GET and, if the endpoint answers 405 Method Not Allowed, retries once " +
		"with POST. Failures are classified: unresponsive endpoint (non-success status), request " +
		"failure (network), or non-JSON response body.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"url"},
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "Absolute URL of the endpoint to probe",
			},
		},
	},
}

// InputProbeEndpoint is the input for the ProbeEndpoint tool.
type InputProbeEndpoint struct {
	URL string `json:"url"`
}

// OutputProbeEndpoint is the output for the ProbeEndpoint tool.
type OutputProbeEndpoint struct {
	// Document is the decoded JSON response body.
	Document interface{} `json:"document"`
}

// ProbeEndpoint probes the given endpoint and returns its JSON document.
func ProbeEndpoint(ctx context.Context, _ *mcp.CallToolRequest, input InputProbeEndpoint) (*mcp.CallToolResult, OutputProbeEndpoint, error) {
	target, err := parseEndpointURL(input.URL)
	if err != nil {
		return nil, OutputProbeEndpoint{}, err
	}

	document, err := probe.New(nil, nil).Probe(ctx, target)
	if err != nil {
		return nil, OutputProbeEndpoint{}, err
	}
	return nil, OutputProbeEndpoint{Document: document}, nil
}

// parseEndpointURL validates a tool-supplied URL string.
func parseEndpointURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("url is required")
	}
	target, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("url %q does not parse: %w", raw, err)
	}
	if !target.IsAbs() {
		return nil, fmt.Errorf("url %q is not absolute", raw)
	}
	return target, nil
}
