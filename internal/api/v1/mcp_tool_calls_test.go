package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outpost/internal/auth"
	"outpost/internal/db"
	"outpost/internal/db/repositories"
	"outpost/internal/services"
	"outpost/pkg/models"
)

// recordingToolCaller persists the call through the repository without
// touching a real MCP server, and remembers what it was asked to run.
type recordingToolCaller struct {
	repos    *repositories.Repositories
	lastTool string
}

func (r *recordingToolCaller) CallTool(ctx context.Context, agentID, serverName, toolName string, arguments map[string]any) (*models.MCPToolCall, error) {
	if serverName == "missing" {
		return nil, fmt.Errorf("%w: %s", services.ErrUnknownServer, serverName)
	}
	if arguments == nil {
		arguments = map[string]any{}
	}

	r.lastTool = toolName
	callID := "stub-call"
	return r.repos.MCPToolCalls.Create(ctx, agentID, serverName,
		models.CommonToolCall{ID: callID, Name: toolName, Arguments: arguments},
		models.CommonToolResult{ID: callID, Content: "ok"},
	)
}

type apiFixture struct {
	router     *gin.Engine
	repos      *repositories.Repositories
	gateway    *recordingToolCaller
	adminKey   string
	memberKey  string
	outsideKey string
	agent      *models.Agent
}

// newAPIFixture stands up the v1 routes over a migrated test database with
// an admin, a team member and a user outside the team, each holding an API
// key.
func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	ctx := context.Background()
	gin.SetMode(gin.TestMode)

	tdb, err := db.NewTest(t)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tdb.Close() })

	repos := repositories.New(tdb)

	newUser := func(name string, isAdmin bool) (*models.User, string) {
		key, err := auth.GenerateAPIKey()
		require.NoError(t, err)
		user, err := repos.Users.Create(ctx, name, isAdmin, &key)
		require.NoError(t, err)
		return user, key
	}

	admin, adminKey := newUser("admin", true)
	member, memberKey := newUser("member", false)
	_, outsideKey := newUser("outside", false)

	team, err := repos.Teams.Create(ctx, "platform")
	require.NoError(t, err)
	require.NoError(t, repos.Teams.AddMember(ctx, team.ID, member.ID))

	agent, err := repos.Agents.Create(ctx, "billing-agent", "", team.ID, admin.ID)
	require.NoError(t, err)

	gateway := &recordingToolCaller{repos: repos}

	router := gin.New()
	handlers := NewAPIHandlers(repos, gateway)
	handlers.RegisterRoutes(router.Group("/api/v1"), auth.NewAuthMiddleware(repos))

	return &apiFixture{
		router:     router,
		repos:      repos,
		gateway:    gateway,
		adminKey:   adminKey,
		memberKey:  memberKey,
		outsideKey: outsideKey,
		agent:      agent,
	}
}

func (f *apiFixture) request(t *testing.T, method, path, apiKey string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) seedCalls(t *testing.T, n int) []*models.MCPToolCall {
	t.Helper()
	ctx := context.Background()

	calls := make([]*models.MCPToolCall, 0, n)
	for i := 0; i < n; i++ {
		call, err := f.repos.MCPToolCalls.Create(ctx, f.agent.ID, fmt.Sprintf("server-%d", i),
			models.CommonToolCall{ID: fmt.Sprintf("c%d", i), Name: "search", Arguments: map[string]any{}},
			models.CommonToolResult{ID: fmt.Sprintf("c%d", i), Content: "ok"},
		)
		require.NoError(t, err)
		calls = append(calls, call)
	}
	return calls
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

type pageResponse struct {
	Items  []models.MCPToolCall `json:"items"`
	Total  int64                `json:"total"`
	Limit  int64                `json:"limit"`
	Offset int64                `json:"offset"`
}

func TestListMCPToolCalls_Unauthorized(t *testing.T) {
	f := newAPIFixture(t)

	w := f.request(t, http.MethodGet, "/api/v1/mcp-tool-calls", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unauthorized", body.Error.Type)
	assert.NotEmpty(t, body.Error.Message)
}

func TestListMCPToolCalls_AdminSeesAll(t *testing.T) {
	f := newAPIFixture(t)
	f.seedCalls(t, 3)

	w := f.request(t, http.MethodGet, "/api/v1/mcp-tool-calls", f.adminKey)
	require.Equal(t, http.StatusOK, w.Code)

	var page pageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Items, 3)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, int64(defaultPageLimit), page.Limit)
}

func TestListMCPToolCalls_VisibilityFilter(t *testing.T) {
	f := newAPIFixture(t)
	f.seedCalls(t, 2)

	// Team member sees the team's records
	w := f.request(t, http.MethodGet, "/api/v1/mcp-tool-calls", f.memberKey)
	require.Equal(t, http.StatusOK, w.Code)

	var page pageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Items, 2)

	// Outsider gets an empty page, not an error
	w = f.request(t, http.MethodGet, "/api/v1/mcp-tool-calls", f.outsideKey)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(0), page.Total)
}

func TestListMCPToolCalls_AgentScopedBranch(t *testing.T) {
	f := newAPIFixture(t)
	f.seedCalls(t, 2)

	// The agent-scoped branch trusts the agent-scoped query alone and does
	// not re-apply the caller's visibility filter.
	path := "/api/v1/mcp-tool-calls?agentId=" + f.agent.ID
	w := f.request(t, http.MethodGet, path, f.outsideKey)
	require.Equal(t, http.StatusOK, w.Code)

	var page pageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Items, 2)
}

func TestListMCPToolCalls_PaginationAndSorting(t *testing.T) {
	f := newAPIFixture(t)
	f.seedCalls(t, 5)

	path := fmt.Sprintf("/api/v1/mcp-tool-calls?agentId=%s&limit=2&offset=1&sortBy=mcpServerName&sortDirection=asc", f.agent.ID)
	w := f.request(t, http.MethodGet, path, f.adminKey)
	require.Equal(t, http.StatusOK, w.Code)

	var page pageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, int64(2), page.Limit)
	assert.Equal(t, int64(1), page.Offset)
	assert.Equal(t, "server-1", page.Items[0].MCPServerName)
	assert.Equal(t, "server-2", page.Items[1].MCPServerName)
}

func TestListMCPToolCalls_LimitClamped(t *testing.T) {
	f := newAPIFixture(t)
	f.seedCalls(t, 1)

	w := f.request(t, http.MethodGet, "/api/v1/mcp-tool-calls?limit=100000", f.adminKey)
	require.Equal(t, http.StatusOK, w.Code)

	var page pageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(maxPageLimit), page.Limit)
}

func TestGetMCPToolCall(t *testing.T) {
	f := newAPIFixture(t)
	calls := f.seedCalls(t, 1)

	w := f.request(t, http.MethodGet, "/api/v1/mcp-tool-calls/"+calls[0].ID, f.adminKey)
	require.Equal(t, http.StatusOK, w.Code)

	var call models.MCPToolCall
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &call))
	assert.Equal(t, calls[0].ID, call.ID)
	assert.Equal(t, f.agent.ID, call.AgentID)
	assert.Equal(t, "search", call.ToolCall.Name)
}

func TestGetMCPToolCall_NotFound(t *testing.T) {
	f := newAPIFixture(t)

	w := f.request(t, http.MethodGet, "/api/v1/mcp-tool-calls/no-such-id", f.adminKey)
	require.Equal(t, http.StatusNotFound, w.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body.Error.Type)
}

func TestGetMCPToolCall_DeniedLooksLikeNotFound(t *testing.T) {
	f := newAPIFixture(t)
	calls := f.seedCalls(t, 1)

	denied := f.request(t, http.MethodGet, "/api/v1/mcp-tool-calls/"+calls[0].ID, f.outsideKey)
	missing := f.request(t, http.MethodGet, "/api/v1/mcp-tool-calls/no-such-id", f.outsideKey)

	require.Equal(t, http.StatusNotFound, denied.Code)
	require.Equal(t, http.StatusNotFound, missing.Code)
	assert.JSONEq(t, missing.Body.String(), denied.Body.String())
}

func TestGetMCPToolCall_Unauthorized(t *testing.T) {
	f := newAPIFixture(t)
	calls := f.seedCalls(t, 1)

	w := f.request(t, http.MethodGet, "/api/v1/mcp-tool-calls/"+calls[0].ID, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unauthorized", body.Error.Type)
}
