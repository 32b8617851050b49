// Package events publishes gateway activity onto a NATS bus so other
// processes can follow the audit log without polling the database.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"outpost/internal/config"
	"outpost/pkg/models"
)

// Bus wraps a NATS connection, optionally backed by an embedded server.
// A nil *Bus is a valid no-op publisher so callers never branch on whether
// events are enabled.
type Bus struct {
	opts   config.EventsConfig
	server *natsserver.Server
	conn   *nats.Conn
}

func NewBus(opts config.EventsConfig) (*Bus, error) {
	if !opts.Enabled {
		return nil, nil
	}

	bus := &Bus{opts: opts}
	if opts.Embedded {
		srv, err := natsserver.NewServer(&natsserver.Options{Port: -1})
		if err != nil {
			return nil, fmt.Errorf("failed to start embedded nats: %w", err)
		}
		go srv.Start()
		if !srv.ReadyForConnections(5 * time.Second) {
			return nil, fmt.Errorf("embedded nats failed to start")
		}
		bus.server = srv
		bus.opts.URL = fmt.Sprintf("nats://%s", srv.Addr().String())
	}

	conn, err := nats.Connect(bus.opts.URL)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	bus.conn = conn

	return bus, nil
}

// ToolCallRecordedEvent is the payload published after a tool call is stored.
type ToolCallRecordedEvent struct {
	ID            string    `json:"id"`
	AgentID       string    `json:"agentId"`
	MCPServerName string    `json:"mcpServerName"`
	ToolName      string    `json:"toolName"`
	IsError       bool      `json:"isError"`
	CreatedAt     time.Time `json:"createdAt"`
}

// PublishToolCallRecorded emits a tool_calls.recorded event for one stored
// record.
func (b *Bus) PublishToolCallRecorded(call *models.MCPToolCall) error {
	if b == nil || b.conn == nil {
		return nil
	}

	event := ToolCallRecordedEvent{
		ID:            call.ID,
		AgentID:       call.AgentID,
		MCPServerName: call.MCPServerName,
		ToolName:      call.ToolCall.Name,
		IsError:       call.ToolResult.IsError,
		CreatedAt:     call.CreatedAt,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := fmt.Sprintf("%s.tool_calls.recorded", b.opts.SubjectPrefix)
	return b.conn.Publish(subject, data)
}

// URL returns the bus address, useful when the server is embedded.
func (b *Bus) URL() string {
	if b == nil {
		return ""
	}
	return b.opts.URL
}

func (b *Bus) Close() {
	if b == nil {
		return
	}
	if b.conn != nil {
		b.conn.Close()
	}
	if b.server != nil {
		b.server.Shutdown()
	}
}
