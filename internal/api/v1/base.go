package v1

import (
	"context"

	"github.com/gin-gonic/gin"

	"outpost/internal/auth"
	"outpost/internal/db/repositories"
	"outpost/pkg/models"
)

// ToolCaller executes a tool on a named MCP server for an agent and returns
// the recorded audit row. Satisfied by the gateway service.
type ToolCaller interface {
	CallTool(ctx context.Context, agentID, serverName, toolName string, arguments map[string]any) (*models.MCPToolCall, error)
}

// APIHandlers carries the injected dependencies for every v1 route. There is
// no package-level state; the server constructs one instance and registers
// its routes onto the /api/v1 group.
type APIHandlers struct {
	repos   *repositories.Repositories
	gateway ToolCaller
}

func NewAPIHandlers(repos *repositories.Repositories, gateway ToolCaller) *APIHandlers {
	return &APIHandlers{
		repos:   repos,
		gateway: gateway,
	}
}

// RegisterRoutes attaches all v1 routes. Every route requires an
// authenticated caller; admin-only routes additionally require the admin
// role.
func (h *APIHandlers) RegisterRoutes(group *gin.RouterGroup, authMW *auth.AuthMiddleware) {
	group.Use(authMW.Authenticate())

	h.registerMCPToolCallRoutes(group.Group("/mcp-tool-calls"))
	h.registerAgentRoutes(group.Group("/agents"), authMW)
	h.registerUserRoutes(group.Group("/users"), authMW)
}
