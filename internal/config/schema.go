// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

package config

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// schemaCache holds the compiled schema to avoid recompilation.
var schemaCache *jschema.Schema

// SchemaID is the schema $id advertised for config files.
const SchemaID = "https://shopwarden.dev/schemas/config.schema.json"

// GenerateSchema generates a JSON Schema from the Config struct. The
// output is what `shopwarden gen-schema` writes for editor tooling.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
		// Durations appear as Go-style strings ("30m", "2h") in YAML.
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(time.Duration(0)) {
				return &jsonschema.Schema{
					OneOf: []*jsonschema.Schema{
						{Type: "string", Pattern: `^[0-9]+(ns|us|µs|ms|s|m|h)([0-9]+(ns|us|µs|ms|s|m|h))*$`},
						{Type: "integer"},
					},
				}
			}
			return nil
		},
	}
	schema := r.Reflect(&Config{})

	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "ShopWarden Configuration"
	schema.Description = "Schema for shopwarden.yaml config files"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("SCHEMA_MARSHAL_FAILED").Wrap(err)
	}
	return data, nil
}

// ValidateSchema validates YAML config data against the generated schema.
func ValidateSchema(data []byte) error {
	if len(data) == 0 {
		return oops.Code("SCHEMA_EMPTY_INPUT").Errorf("config data is empty")
	}

	var yamlData any
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		return oops.Code("SCHEMA_INVALID_YAML").Wrap(err)
	}

	jsonData := convertToJSONTypes(yamlData)

	sch, err := getCompiledSchema()
	if err != nil {
		return oops.Code("SCHEMA_COMPILE_FAILED").Wrap(err)
	}

	if err := sch.Validate(jsonData); err != nil {
		return oops.Code("SCHEMA_VALIDATION_FAILED").Wrap(err)
	}

	return nil
}

// getCompiledSchema returns the cached compiled schema or compiles it.
func getCompiledSchema() (*jschema.Schema, error) {
	if schemaCache != nil {
		return schemaCache, nil
	}

	schemaBytes, err := GenerateSchema()
	if err != nil {
		return nil, err
	}

	var schemaData any
	if err := json.Unmarshal(schemaBytes, &schemaData); err != nil {
		return nil, oops.Code("SCHEMA_PARSE_FAILED").Wrap(err)
	}

	c := jschema.NewCompiler()
	if err := c.AddResource("schema.json", schemaData); err != nil {
		return nil, oops.Code("SCHEMA_RESOURCE_FAILED").Wrap(err)
	}

	sch, err := c.Compile("schema.json")
	if err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").Wrap(err)
	}

	schemaCache = sch
	return sch, nil
}

// convertToJSONTypes converts YAML-parsed data to JSON-compatible types.
// yaml.Unmarshal already yields map[string]any, but nested values need
// recursive handling.
func convertToJSONTypes(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = convertToJSONTypes(v)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v := range val {
			result[i] = convertToJSONTypes(v)
		}
		return result
	case string, int, int64, float64, bool, nil:
		return val
	default:
		if b, err := json.Marshal(val); err == nil {
			var result any
			if err := json.Unmarshal(b, &result); err == nil {
				return result
			}
		}
		return val
	}
}

// ResetSchemaCache clears the cached schema. Used for testing.
func ResetSchemaCache() {
	schemaCache = nil
}
