// Package schemas validates input documents against JSON Schemas.
package schemas

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError lists every schema violation found in a document.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// SchemaLoadError reports a schema or document that could not be loaded.
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// Schema is a compiled JSON Schema, safe for concurrent use.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// compiled caches schemas compiled from embedded content, keyed by content.
var compiled sync.Map

// Compile parses schema content once and caches the result, so request
// handlers can validate every body without recompiling.
func Compile(schemaContent string) (*Schema, error) {
	if s, ok := compiled.Load(schemaContent); ok {
		return s.(*Schema), nil
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaContent))
	if err != nil {
		return nil, &SchemaLoadError{Path: "schema", Message: "invalid schema", Cause: err}
	}
	actual, _ := compiled.LoadOrStore(schemaContent, &Schema{name: "document", schema: s})
	return actual.(*Schema), nil
}

// validate checks a document given as any gojsonschema loader.
func (s *Schema) validate(document gojsonschema.JSONLoader) error {
	result, err := s.schema.Validate(document)
	if err != nil {
		return &SchemaLoadError{Path: s.name, Message: "document could not be read", Cause: err}
	}
	return resultError(result)
}

// Validate checks an already decoded document (maps, slices and scalars).
func (s *Schema) Validate(document interface{}) error {
	return s.validate(gojsonschema.NewGoLoader(document))
}

// ValidateJSON validates a JSON file against a JSON Schema file
func ValidateJSON(schemaPath, jsonPath string) error {
	paths := make([]string, 2)
	for i, p := range []string{schemaPath, jsonPath} {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", p, err)
		}
		if _, err := os.Stat(abs); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", abs)
		}
		paths[i] = abs
	}

	s, err := gojsonschema.NewSchema(gojsonschema.NewReferenceLoader("file://" + paths[0]))
	if err != nil {
		return &SchemaLoadError{Path: paths[0], Message: "invalid schema", Cause: err}
	}
	schema := &Schema{name: paths[1], schema: s}
	return schema.validate(gojsonschema.NewReferenceLoader("file://" + paths[1]))
}

// ValidateJSONString validates JSON content against schema content.
func ValidateJSONString(schemaContent, jsonContent string) error {
	s, err := Compile(schemaContent)
	if err != nil {
		return err
	}
	return s.validate(gojsonschema.NewStringLoader(jsonContent))
}

// ValidateDocument validates an already decoded document (e.g. from a YAML
// file or a request body) against schema content.
func ValidateDocument(schemaContent string, document interface{}) error {
	s, err := Compile(schemaContent)
	if err != nil {
		return err
	}
	return s.Validate(document)
}

func resultError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}
	ve := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return ve
}
