package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"outpost/pkg/models"
)

func TestValidateToolCall(t *testing.T) {
	call := models.CommonToolCall{
		ID:        "c1",
		Name:      "search",
		Arguments: map[string]any{"q": "test", "limit": 5},
	}
	assert.NoError(t, ValidateToolCall(call))
}

func TestValidateToolCall_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload any
	}{
		{"missing name", map[string]any{"id": "c1", "arguments": map[string]any{}}},
		{"empty id", map[string]any{"id": "", "name": "search", "arguments": map[string]any{}}},
		{"arguments not an object", map[string]any{"id": "c1", "name": "search", "arguments": "nope"}},
		{"unknown field", map[string]any{"id": "c1", "name": "search", "arguments": map[string]any{}, "extra": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateToolCall(tt.payload))
		})
	}
}

func TestValidateToolResult(t *testing.T) {
	errMsg := "tool exploded"
	tests := []struct {
		name   string
		result models.CommonToolResult
	}{
		{"success with content", models.CommonToolResult{ID: "c1", Content: map[string]any{"rows": 3}}},
		{"error result", models.CommonToolResult{ID: "c1", IsError: true, Error: &errMsg}},
		{"no content", models.CommonToolResult{ID: "c1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, ValidateToolResult(tt.result))
		})
	}
}

func TestValidateToolResult_Invalid(t *testing.T) {
	assert.Error(t, ValidateToolResult(map[string]any{"id": "c1"}))
	assert.Error(t, ValidateToolResult(map[string]any{"id": "c1", "isError": "yes"}))
}
