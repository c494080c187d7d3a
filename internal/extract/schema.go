package extract

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// extractionSchema is the contract the model must satisfy. Anything the
// schema rejects is treated as a format error, never retried.
const extractionSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["summary", "tasks"],
	"additionalProperties": false,
	"properties": {
		"summary": {"type": "string"},
		"tasks": {
			"type": "array",
			"maxItems": 10,
			"items": {
				"type": "object",
				"required": ["description"],
				"additionalProperties": false,
				"properties": {
					"description": {"type": "string", "minLength": 1},
					"assignee": {"type": ["string", "null"]},
					"due_date": {
						"type": ["string", "null"],
						"pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"
					}
				}
			}
		}
	}
}`

func compileSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(extractionSchema))
	if err != nil {
		return nil, fmt.Errorf("parsing extraction schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("extraction.json", doc); err != nil {
		return nil, fmt.Errorf("registering extraction schema: %w", err)
	}
	schema, err := c.Compile("extraction.json")
	if err != nil {
		return nil, fmt.Errorf("compiling extraction schema: %w", err)
	}
	return schema, nil
}
