package unireservas

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	schemaPropertyCreate = "property_create"
	schemaPropertyUpdate = "property_update"
)

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func loadSchemas() {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	files, err := fs.Glob(schemaFS, "schemas/*.json")
	if err != nil {
		schemasErr = err
		return
	}
	for _, f := range files {
		data, err := schemaFS.ReadFile(f)
		if err != nil {
			schemasErr = fmt.Errorf("read schema %s: %w", f, err)
			return
		}
		if err := compiler.AddResource(f, strings.NewReader(string(data))); err != nil {
			schemasErr = fmt.Errorf("add schema %s: %w", f, err)
			return
		}
	}

	compiled := make(map[string]*jsonschema.Schema, len(files))
	for _, f := range files {
		s, err := compiler.Compile(f)
		if err != nil {
			schemasErr = fmt.Errorf("compile schema %s: %w", f, err)
			return
		}
		compiled[strings.TrimSuffix(path.Base(f), ".json")] = s
	}
	schemas = compiled
}

// validatePayload checks v against the named embedded schema and reports the
// first violation as a ValidationError.
func validatePayload(name string, v any) error {
	schemasOnce.Do(loadSchemas)
	if schemasErr != nil {
		return fmt.Errorf("schemas unavailable: %w", schemasErr)
	}
	schema, ok := schemas[name]
	if !ok {
		return fmt.Errorf("schema %q not found", name)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("payload is not valid JSON: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			leaf := ve
			for len(leaf.Causes) > 0 {
				leaf = leaf.Causes[0]
			}
			return &ValidationError{
				Field:   strings.TrimPrefix(leaf.InstanceLocation, "/"),
				Message: leaf.Message,
			}
		}
		return &ValidationError{Message: err.Error()}
	}
	return nil
}
