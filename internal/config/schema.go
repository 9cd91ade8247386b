package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce     sync.Once
	schemaResolved *jsonschema.Resolved
	schemaErr      error
)

// resolvedSchema parses and resolves the embedded schema once.
func resolvedSchema() (*jsonschema.Resolved, error) {
	schemaOnce.Do(func() {
		var s jsonschema.Schema
		if err := json.Unmarshal(schemaJSON, &s); err != nil {
			schemaErr = fmt.Errorf("failed to parse embedded schema: %w", err)
			return
		}
		schemaResolved, schemaErr = s.Resolve(nil)
	})
	return schemaResolved, schemaErr
}

// ValidateSchema checks a decoded YAML document against the embedded schema.
// The document is normalized to JSON values first so that YAML integers and
// maps compare the way the schema expects.
func ValidateSchema(doc any) error {
	resolved, err := resolvedSchema()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(jsonCompatible(doc))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSchemaViolation, err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("%w: %w", ErrSchemaViolation, err)
	}

	if err := resolved.Validate(instance); err != nil {
		return fmt.Errorf("%w: %w", ErrSchemaViolation, err)
	}
	return nil
}

// jsonCompatible converts YAML maps with non-string keys into string-keyed
// maps, which encoding/json can marshal.
func jsonCompatible(v any) any {
	switch x := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, val := range x {
			m[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return m
	case map[string]any:
		for k, val := range x {
			x[k] = jsonCompatible(val)
		}
		return x
	case []any:
		for i, val := range x {
			x[i] = jsonCompatible(val)
		}
		return x
	default:
		return v
	}
}
