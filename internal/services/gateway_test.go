package services

import (
	"context"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outpost/internal/config"
	"outpost/internal/db"
	"outpost/internal/db/repositories"
	"outpost/pkg/models"
)

func setupGateway(t *testing.T) (*GatewayService, *repositories.Repositories, string) {
	t.Helper()
	ctx := context.Background()

	tdb, err := db.NewTest(t)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tdb.Close() })

	repos := repositories.New(tdb)

	admin, err := repos.Users.Create(ctx, "admin", true, nil)
	require.NoError(t, err)
	team, err := repos.Teams.Create(ctx, "ops")
	require.NoError(t, err)
	agent, err := repos.Agents.Create(ctx, "deploy-agent", "", team.ID, admin.ID)
	require.NoError(t, err)

	gateway := NewGatewayService(repos, nil, nil)
	t.Cleanup(gateway.Shutdown)

	return gateway, repos, agent.ID
}

func TestGatewayService_Record(t *testing.T) {
	gateway, repos, agentID := setupGateway(t)
	ctx := context.Background()

	record, err := gateway.Record(ctx, agentID, "github",
		models.CommonToolCall{ID: "c1", Name: "list_issues", Arguments: map[string]any{"repo": "outpost"}},
		models.CommonToolResult{ID: "c1", Content: []any{map[string]any{"number": float64(7)}}},
	)
	require.NoError(t, err)
	require.NotEmpty(t, record.ID)

	stored, err := repos.MCPToolCalls.FindByID(ctx, record.ID, nil, false)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "github", stored.MCPServerName)
	assert.Equal(t, "list_issues", stored.ToolCall.Name)
}

func TestGatewayService_Record_RejectsMalformedPayloads(t *testing.T) {
	gateway, repos, agentID := setupGateway(t)
	ctx := context.Background()

	// Missing tool name fails schema validation before any insert
	_, err := gateway.Record(ctx, agentID, "github",
		models.CommonToolCall{ID: "c1", Arguments: map[string]any{}},
		models.CommonToolResult{ID: "c1"},
	)
	require.Error(t, err)

	all, err := repos.MCPToolCalls.FindAll(ctx, nil, false)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestGatewayService_Record_ErrorResult(t *testing.T) {
	gateway, _, agentID := setupGateway(t)
	ctx := context.Background()

	errMsg := "rate limited"
	record, err := gateway.Record(ctx, agentID, "github",
		models.CommonToolCall{ID: "c1", Name: "search", Arguments: map[string]any{}},
		models.CommonToolResult{ID: "c1", IsError: true, Error: &errMsg},
	)
	require.NoError(t, err)
	assert.True(t, record.ToolResult.IsError)
	require.NotNil(t, record.ToolResult.Error)
	assert.Equal(t, errMsg, *record.ToolResult.Error)
}

func TestConvertContent(t *testing.T) {
	// Text content parses as JSON when possible
	result := mcp.NewToolResultText(`{"count": 3}`)
	converted := convertContent(result)
	parsed, ok := converted.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3), parsed["count"])

	// Non-JSON text stays a string
	result = mcp.NewToolResultText("plain output")
	assert.Equal(t, "plain output", convertContent(result))

	// Empty content is nil
	assert.Nil(t, convertContent(&mcp.CallToolResult{}))
}

func TestGatewayService_CallTool_UnknownServer(t *testing.T) {
	gateway, _, agentID := setupGateway(t)

	_, err := gateway.CallTool(context.Background(), agentID, "nope", "search", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownServer)
}

// Concurrent cache hits touch the shared last-used timestamp; the touch must
// be safe under the read lock that the hit path holds.
func TestGetOrCreateClient_ConcurrentCacheHits(t *testing.T) {
	gateway, _, _ := setupGateway(t)

	conn := &gatewayConnection{cancel: func() {}}
	conn.touch()
	before := conn.lastUsed.Load()

	gateway.cacheMutex.Lock()
	gateway.clientCache["srv"] = conn
	gateway.cacheMutex.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_, err := gateway.getOrCreateClient("srv", config.MCPServerConfig{})
				if err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, conn.lastUsed.Load(), before)
}

func TestNewTransport_SelectsByConfig(t *testing.T) {
	// A URL yields an HTTP transport
	httpTransport, err := newTransport(config.MCPServerConfig{URL: "http://localhost:9100/mcp"})
	require.NoError(t, err)
	require.NotNil(t, httpTransport)

	// Otherwise the command is spawned over stdio
	stdioTransport, err := newTransport(config.MCPServerConfig{Command: "mcp-server", Args: []string{"--stdio"}})
	require.NoError(t, err)
	require.NotNil(t, stdioTransport)
}
