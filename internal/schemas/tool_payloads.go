// Package schemas holds the declared JSON shapes for tool-call payloads and
// validates recorded payloads against them before they reach storage.
package schemas

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

const toolCallSchema = `{
	"type": "object",
	"required": ["id", "name", "arguments"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"name": {"type": "string", "minLength": 1},
		"arguments": {"type": "object"}
	},
	"additionalProperties": false
}`

const toolResultSchema = `{
	"type": "object",
	"required": ["id", "isError"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"content": {},
		"isError": {"type": "boolean"},
		"error": {"type": "string"}
	},
	"additionalProperties": false
}`

var (
	toolCallLoader   = gojsonschema.NewStringLoader(toolCallSchema)
	toolResultLoader = gojsonschema.NewStringLoader(toolResultSchema)
)

// ValidateToolCall checks a tool-call payload against its declared schema.
func ValidateToolCall(payload any) error {
	return validate(toolCallLoader, payload, "tool call")
}

// ValidateToolResult checks a tool-result payload against its declared schema.
func ValidateToolResult(payload any) error {
	return validate(toolResultLoader, payload, "tool result")
}

func validate(schema gojsonschema.JSONLoader, payload any, what string) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewGoLoader(payload))
	if err != nil {
		return fmt.Errorf("failed to validate %s payload: %w", what, err)
	}

	if !result.Valid() {
		return fmt.Errorf("invalid %s payload: %s", what, result.Errors()[0].String())
	}

	return nil
}
