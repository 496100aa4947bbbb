package spec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaResource = "converter-config.schema.json"

// JSONSchema returns the JSON schema of Config as generated from its type.
func JSONSchema() ([]byte, error) {
	reflector := &invopop.Reflector{DoNotReference: true, Anonymous: true}
	schema := reflector.Reflect(&Config{})
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal converter config schema: %w", err)
	}
	return data, nil
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	data, err := JSONSchema()
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal converter config schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaResource, doc); err != nil {
		return nil, fmt.Errorf("failed to add converter config schema: %w", err)
	}
	schema, err := compiler.Compile(schemaResource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile converter config schema: %w", err)
	}
	return schema, nil
})

// Validate validates a JSON encoded converter configuration against JSONSchema.
func Validate(raw []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to unmarshal converter config: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("invalid converter config: %w", err)
	}
	return nil
}
