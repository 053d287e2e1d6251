// SPDX-License-Identifier: Apache-2.0

// Package schema compiles JSON Schema documents and validates JSON instances
// against them, collecting every violation rather than stopping at the first.
package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

// Violation is a single schema-validation failure, localized to a path
// within the instance.
type Violation struct {
	// Kind is the validator's machine-readable error type, e.g.
	// "invalid_type" or "required".
	Kind string
	// Message is the human-readable description.
	Message string
	// InstancePath is the JSON pointer of the offending value; empty for the
	// document root.
	InstancePath string
}

// ValidationError aggregates every violation found in one instance, in the
// order the validator reported them.
type ValidationError struct {
	Violations []Violation
}

// Report renders all violations, one "kind - message (path)" line each.
func (e *ValidationError) Report() string {
	lines := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		lines[i] = fmt.Sprintf("%s - %s (%s)", v.Kind, v.Message, v.InstancePath)
	}
	return strings.Join(lines, "\n")
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("response does not conform to schema:\n%s", e.Report())
}

// Compiled is an immutable compiled schema. It is safe for concurrent use by
// any number of Validate calls.
type Compiled struct {
	schema *gojsonschema.Schema
	logger *zap.Logger
}

// Compile compiles a JSON Schema document, given as a decoded JSON value.
// The draft is auto-detected from the $schema keyword, and references to
// external schemas (including the standard meta-schemas) are resolved during
// compilation. A schema that does not compile is a recoverable error, not a
// fatal one; the caller decides whether to abort.
func Compile(document any, logger *zap.Logger) (*Compiled, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sl := gojsonschema.NewSchemaLoader()
	compiled, err := sl.Compile(gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return &Compiled{schema: compiled, logger: logger}, nil
}

// CompileFile compiles a schema document stored on disk. Files ending in
// .yaml or .yml are decoded as YAML first; anything else is loaded as JSON
// by reference, which keeps relative $ref targets resolvable against the
// file's own location.
func CompileFile(path string, logger *zap.Logger) (*Compiled, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading schema %s: %w", path, err)
		}
		var document map[string]any
		if err := yaml.Unmarshal(raw, &document); err != nil {
			return nil, fmt.Errorf("decoding schema %s: %w", path, err)
		}
		return Compile(document, logger)
	default:
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolving schema path %s: %w", path, err)
		}
		sl := gojsonschema.NewSchemaLoader()
		compiled, err := sl.Compile(gojsonschema.NewReferenceLoader("file://" + abs))
		if err != nil {
			return nil, fmt.Errorf("compiling schema %s: %w", path, err)
		}
		return &Compiled{schema: compiled, logger: logger}, nil
	}
}

// Validate checks instance against the compiled schema. A conforming
// instance is returned unchanged; a non-conforming one yields a
// *ValidationError carrying every violation. Neither the schema nor the
// instance is mutated.
func (c *Compiled) Validate(instance any) (any, error) {
	result, err := c.schema.Validate(gojsonschema.NewGoLoader(instance))
	if err != nil {
		return nil, fmt.Errorf("validating instance: %w", err)
	}

	if result.Valid() {
		c.logger.Info("document is valid")
		return instance, nil
	}

	verr := &ValidationError{Violations: make([]Violation, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		v := Violation{
			Kind:         desc.Type(),
			Message:      desc.Description(),
			InstancePath: instancePointer(desc.Field()),
		}
		c.logger.Error("schema violation",
			zap.String("kind", v.Kind),
			zap.String("message", v.Message),
			zap.String("instance_path", v.InstancePath),
		)
		verr.Violations = append(verr.Violations, v)
	}
	return nil, verr
}

// instancePointer converts the validator's dotted field notation into a JSON
// pointer: "x" becomes /x, "items.0.name" becomes /items/0/name, and the
// document root becomes the empty pointer.
func instancePointer(field string) string {
	if field == "" || field == gojsonschema.STRING_CONTEXT_ROOT {
		return ""
	}
	return "/" + strings.ReplaceAll(field, ".", "/")
}
