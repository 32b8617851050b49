package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type User struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	IsAdmin   bool      `json:"is_admin" db:"is_admin"`
	APIKey    *string   `json:"api_key,omitempty" db:"api_key"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Team groups users for agent visibility. A non-admin user can only see
// agents owned by teams they are a member of.
type Team struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type TeamMember struct {
	ID        int64     `json:"id" db:"id"`
	TeamID    int64     `json:"team_id" db:"team_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Agent struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	TeamID      int64     `json:"team_id" db:"team_id"`
	CreatedBy   int64     `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// MCPToolCall is one audit log entry pairing an outbound tool invocation
// with its result. Records are append-only: they are created once by the
// gateway when a tool invocation completes and removed only when the owning
// agent is deleted (cascade).
type MCPToolCall struct {
	ID            string           `json:"id" db:"id"`
	AgentID       string           `json:"agentId" db:"agent_id"`
	MCPServerName string           `json:"mcpServerName" db:"mcp_server_name"`
	ToolCall      CommonToolCall   `json:"toolCall" db:"tool_call"`
	ToolResult    CommonToolResult `json:"toolResult" db:"tool_result"`
	CreatedAt     time.Time        `json:"createdAt" db:"created_at"`
}

// CommonToolCall is the outbound half of a recorded tool invocation.
type CommonToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// CommonToolResult is the inbound half. Content carries whatever the tool
// server returned; Error is only set when IsError is true.
type CommonToolResult struct {
	ID      string  `json:"id"`
	Content any     `json:"content"`
	IsError bool    `json:"isError"`
	Error   *string `json:"error,omitempty"`
}

func (c CommonToolCall) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *CommonToolCall) Scan(value any) error {
	return scanJSON(value, c)
}

func (r CommonToolResult) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *CommonToolResult) Scan(value any) error {
	return scanJSON(value, r)
}

func scanJSON(value, dest any) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported column type %T", value)
	}

	return json.Unmarshal(bytes, dest)
}
