// Package schema models validation documents fetched from a schema registry.
//
// A document is either a bare JSON Schema or an OpenAPI-style envelope whose
// components.schemas map carries the actual schema. Parse unwraps the
// envelope, compiles the document once, and the resulting Schema is immutable
// and safe for concurrent use.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/drblury/schemabus/internal/runtime/jsoncodec"
)

// Schema is a named, compiled validation document.
type Schema struct {
	// Name is the registry identifier the document was fetched under.
	Name string
	// ComponentKey is the components.schemas entry the document was unwrapped
	// from. Empty when the document carried no OpenAPI envelope.
	ComponentKey string
	// ComponentCount is the number of entries found under components.schemas.
	// Callers may warn when it is 0 (no envelope) or greater than 1.
	ComponentCount int

	document []byte
	compiled *jsonschema.Schema
}

// ValidationError reports a payload that does not conform to a schema.
type ValidationError struct {
	SchemaName string
	Err        error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schemabus: payload does not conform to schema %q: %v", e.SchemaName, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

type openAPIEnvelope struct {
	Components struct {
		Schemas map[string]json.RawMessage `json:"schemas"`
	} `json:"components"`
}

// Parse builds a Schema from a raw registry document. When the document
// contains a components.schemas map, the entry under the lexicographically
// first key is compiled; otherwise the raw document itself is. Multiple
// entries are tolerated but surface through ComponentCount so callers can
// warn about the ambiguity.
func Parse(name string, raw []byte) (*Schema, error) {
	document := raw
	componentKey := ""
	componentCount := 0

	var envelope openAPIEnvelope
	if err := jsoncodec.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("schemabus: schema %q is not valid JSON: %w", name, err)
	}

	if len(envelope.Components.Schemas) > 0 {
		componentCount = len(envelope.Components.Schemas)
		keys := make([]string, 0, componentCount)
		for k := range envelope.Components.Schemas {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		componentKey = keys[0]
		document = envelope.Components.Schemas[componentKey]
	}

	compiled, err := jsonschema.CompileString("schema.json", string(document))
	if err != nil {
		return nil, fmt.Errorf("schemabus: schema %q does not compile: %w", name, err)
	}

	return &Schema{
		Name:           name,
		ComponentKey:   componentKey,
		ComponentCount: componentCount,
		document:       document,
		compiled:       compiled,
	}, nil
}

// Document returns the effective schema document payloads are validated
// against (the unwrapped component when an envelope was present).
func (s *Schema) Document() []byte {
	return s.document
}

// Validate checks a decoded JSON value against the schema. Returns a
// *ValidationError on nonconformance.
func (s *Schema) Validate(v any) error {
	if err := s.compiled.Validate(v); err != nil {
		return &ValidationError{SchemaName: s.Name, Err: err}
	}
	return nil
}
