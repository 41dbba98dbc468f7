package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the JSON Schema for the uptask configuration.
// Extension sections are free-form, so additional properties are allowed at the top level.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		// Expand struct references instead of using $ref for a flatter schema.
		ExpandedStruct: true,
		// Use YAML field names for property names
		FieldNameTag: "yaml",
	}

	schema := r.Reflect(&Config{})
	schema.Title = "uptask Configuration"
	schema.Description = "Schema for uptask.yml / uptask.toml."

	return json.MarshalIndent(schema, "", "  ")
}
