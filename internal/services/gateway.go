package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"outpost/internal/config"
	"outpost/internal/db/repositories"
	"outpost/internal/events"
	"outpost/internal/logging"
	"outpost/internal/schemas"
	"outpost/pkg/models"
)

// GatewayService is the MCP gateway: it executes tool calls against
// configured MCP servers on behalf of agents and records every completed
// invocation in the audit log.
type GatewayService struct {
	repos   *repositories.Repositories
	servers map[string]config.MCPServerConfig
	bus     *events.Bus

	clientCache map[string]*gatewayConnection
	cacheMutex  sync.RWMutex

	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// ErrUnknownServer reports a tool call against a server name missing from
// the gateway configuration.
var ErrUnknownServer = errors.New("unknown MCP server")

type gatewayConnection struct {
	client *client.Client
	cancel context.CancelFunc

	// Unix nanos of the last cache hit. Atomic so concurrent callers can
	// touch it under the cache read lock.
	lastUsed atomic.Int64
}

func (c *gatewayConnection) touch() {
	c.lastUsed.Store(time.Now().UnixNano())
}

func (c *gatewayConnection) idleFor() time.Duration {
	return time.Since(time.Unix(0, c.lastUsed.Load()))
}

func NewGatewayService(repos *repositories.Repositories, servers map[string]config.MCPServerConfig, bus *events.Bus) *GatewayService {
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	service := &GatewayService{
		repos:          repos,
		servers:        servers,
		bus:            bus,
		clientCache:    make(map[string]*gatewayConnection),
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
	}

	go service.cleanupRoutine()

	return service
}

// CallTool executes a tool on the named MCP server and records the paired
// call/result in the audit log. Tool-level failures are not errors here:
// they are recorded with isError set, mirroring what the server reported.
func (s *GatewayService) CallTool(ctx context.Context, agentID, serverName, toolName string, arguments map[string]any) (*models.MCPToolCall, error) {
	serverCfg, exists := s.servers[serverName]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownServer, serverName)
	}

	mcpClient, err := s.getOrCreateClient(serverName, serverCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MCP server %s: %w", serverName, err)
	}

	if arguments == nil {
		arguments = map[string]any{}
	}

	callID := uuid.NewString()
	toolCall := models.CommonToolCall{
		ID:        callID,
		Name:      toolName,
		Arguments: arguments,
	}
	toolResult := s.executeTool(ctx, mcpClient, callID, toolName, arguments)

	return s.Record(ctx, agentID, serverName, toolCall, toolResult)
}

// Record validates a completed call/result pair and appends it to the audit
// log, publishing a recorded event on success.
func (s *GatewayService) Record(ctx context.Context, agentID, serverName string, toolCall models.CommonToolCall, toolResult models.CommonToolResult) (*models.MCPToolCall, error) {
	if err := schemas.ValidateToolCall(toolCall); err != nil {
		return nil, err
	}
	if err := schemas.ValidateToolResult(toolResult); err != nil {
		return nil, err
	}

	record, err := s.repos.MCPToolCalls.Create(ctx, agentID, serverName, toolCall, toolResult)
	if err != nil {
		return nil, err
	}

	if err := s.bus.PublishToolCallRecorded(record); err != nil {
		// The record is already durable; a lost event is log-worthy only.
		logging.Error("failed to publish tool call event: %v", err)
	}

	return record, nil
}

func (s *GatewayService) executeTool(ctx context.Context, mcpClient *client.Client, callID, toolName string, arguments map[string]any) models.CommonToolResult {
	callCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	callRequest := mcp.CallToolRequest{}
	callRequest.Params.Name = toolName
	callRequest.Params.Arguments = arguments

	result, err := mcpClient.CallTool(callCtx, callRequest)
	if err != nil {
		msg := err.Error()
		return models.CommonToolResult{ID: callID, IsError: true, Error: &msg}
	}

	if result.IsError {
		msg := "tool execution failed"
		if len(result.Content) > 0 {
			if textContent, ok := mcp.AsTextContent(result.Content[0]); ok {
				msg = textContent.Text
			}
		}
		return models.CommonToolResult{ID: callID, IsError: true, Error: &msg}
	}

	return models.CommonToolResult{ID: callID, Content: convertContent(result)}
}

// convertContent extracts the result payload: text content is parsed as
// JSON when possible, anything else is kept as-is.
func convertContent(result *mcp.CallToolResult) any {
	if len(result.Content) == 0 {
		return nil
	}

	if textContent, ok := mcp.AsTextContent(result.Content[0]); ok {
		var parsed any
		if err := json.Unmarshal([]byte(textContent.Text), &parsed); err != nil {
			return textContent.Text
		}
		return parsed
	}

	return result.Content[0]
}

func (s *GatewayService) getOrCreateClient(serverName string, serverCfg config.MCPServerConfig) (*client.Client, error) {
	s.cacheMutex.RLock()
	if conn, exists := s.clientCache[serverName]; exists {
		conn.touch()
		s.cacheMutex.RUnlock()
		return conn.client, nil
	}
	s.cacheMutex.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	transportLayer, err := newTransport(serverCfg)
	if err != nil {
		cancel()
		return nil, err
	}
	mcpClient := client.NewClient(transportLayer)

	if err := mcpClient.Start(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start MCP client: %w", err)
	}

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "Outpost MCP Gateway",
		Version: "1.0.0",
	}
	initRequest.Params.Capabilities = mcp.ClientCapabilities{}

	if _, err := mcpClient.Initialize(ctx, initRequest); err != nil {
		cancel()
		mcpClient.Close()
		return nil, fmt.Errorf("failed to initialize MCP client: %w", err)
	}

	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	// Another goroutine may have connected while we were initializing
	if existingConn, exists := s.clientCache[serverName]; exists {
		cancel()
		mcpClient.Close()
		existingConn.touch()
		return existingConn.client, nil
	}

	conn := &gatewayConnection{
		client: mcpClient,
		cancel: cancel,
	}
	conn.touch()
	s.clientCache[serverName] = conn

	logging.Info("Created new MCP client connection to server %s", serverName)
	return mcpClient, nil
}

// newTransport picks the transport from the server configuration: a URL
// means streamable HTTP, otherwise a command is spawned over stdio.
func newTransport(serverCfg config.MCPServerConfig) (transport.Interface, error) {
	if serverCfg.URL != "" {
		httpTransport, err := transport.NewStreamableHTTP(serverCfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP transport: %w", err)
		}
		return httpTransport, nil
	}

	var envSlice []string
	for key, value := range serverCfg.Env {
		envSlice = append(envSlice, fmt.Sprintf("%s=%s", key, value))
	}
	return transport.NewStdio(serverCfg.Command, envSlice, serverCfg.Args...), nil
}

func (s *GatewayService) cleanupRoutine() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdownCtx.Done():
			return
		case <-ticker.C:
			s.closeStaleConnections(15 * time.Minute)
		}
	}
}

func (s *GatewayService) closeStaleConnections(maxIdle time.Duration) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	for name, conn := range s.clientCache {
		if conn.idleFor() > maxIdle {
			conn.client.Close()
			conn.cancel()
			delete(s.clientCache, name)
			logging.Debug("Closed stale MCP connection to %s", name)
		}
	}
}

// Shutdown closes all cached connections and stops the cleanup routine.
func (s *GatewayService) Shutdown() {
	s.shutdownCancel()

	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	for name, conn := range s.clientCache {
		conn.client.Close()
		conn.cancel()
		delete(s.clientCache, name)
	}
}
