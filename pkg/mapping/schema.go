package mapping

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// mappingSchemaJSON is the structural schema a mapping definition must
// satisfy before the looser semantic checks in validateMapping run.
const mappingSchemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["id", "match"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"name": {"type": "string"},
		"source": {"type": "string"},
		"priority": {"type": "integer"},
		"match": {
			"type": "object",
			"properties": {
				"allOf": {"type": "array", "items": {"type": "string"}},
				"anyOf": {"type": "array", "items": {"type": "string"}}
			}
		},
		"metadata": {"type": "object"},
		"controls": {
			"type": "object",
			"required": ["path"],
			"properties": {
				"path": {"type": "string", "minLength": 1}
			}
		},
		"passthrough": {
			"type": "object",
			"properties": {
				"paths": {"type": "object"}
			}
		}
	}
}`

var compiledMappingSchema *jsonschema.Schema

func init() {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	const url = "https://corsair.io/schemas/mapping.schema.json"
	if err := c.AddResource(url, strings.NewReader(mappingSchemaJSON)); err != nil {
		panic(fmt.Sprintf("mapping: invalid embedded schema: %v", err))
	}
	compiled, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("mapping: embedded schema failed to compile: %v", err))
	}
	compiledMappingSchema = compiled
}

// ValidateSchema checks raw mapping JSON against the structural schema,
// ahead of the semantic checks in validateMapping. It is exported so
// `corsair mappings validate` can surface schema errors distinct from
// semantic ones.
func ValidateSchema(raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("mapping: invalid json: %w", err)
	}
	if err := compiledMappingSchema.Validate(v); err != nil {
		return fmt.Errorf("mapping: schema validation failed: %w", err)
	}
	return nil
}
