package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"outpost/internal/auth"
	"outpost/internal/services"
)

// registerAgentRoutes registers agent management routes
func (h *APIHandlers) registerAgentRoutes(group *gin.RouterGroup, authMW *auth.AuthMiddleware) {
	group.GET("", h.listAgents)
	group.GET("/:agentId", h.getAgent)
	group.POST("", authMW.RequireAdmin(), h.createAgent)
	group.DELETE("/:agentId", authMW.RequireAdmin(), h.deleteAgent)
	group.POST("/:agentId/tool-calls", authMW.RequireAdmin(), h.invokeToolCall)
}

func (h *APIHandlers) listAgents(c *gin.Context) {
	if _, _, ok := caller(c); !ok {
		return
	}

	agents, err := h.repos.Agents.List(c.Request.Context())
	if err != nil {
		errorBody(c, http.StatusInternalServerError, "failed to list agents", "internal_error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"agents": agents, "count": len(agents)})
}

func (h *APIHandlers) getAgent(c *gin.Context) {
	if _, _, ok := caller(c); !ok {
		return
	}

	agent, err := h.repos.Agents.GetByID(c.Request.Context(), c.Param("agentId"))
	if err != nil {
		errorBody(c, http.StatusNotFound, "agent not found", "not_found")
		return
	}

	c.JSON(http.StatusOK, agent)
}

type createAgentRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	TeamID      int64  `json:"team_id" binding:"required"`
}

func (h *APIHandlers) createAgent(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}

	var req createAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorBody(c, http.StatusBadRequest, "invalid request body", "bad_request")
		return
	}

	agent, err := h.repos.Agents.Create(c.Request.Context(), req.Name, req.Description, req.TeamID, userID)
	if err != nil {
		errorBody(c, http.StatusInternalServerError, "failed to create agent", "internal_error")
		return
	}

	c.JSON(http.StatusCreated, agent)
}

type invokeToolCallRequest struct {
	MCPServerName string         `json:"mcpServerName" binding:"required"`
	ToolName      string         `json:"toolName" binding:"required"`
	Arguments     map[string]any `json:"arguments"`
}

// invokeToolCall executes a tool through the gateway on behalf of the agent
// and returns the recorded audit row.
func (h *APIHandlers) invokeToolCall(c *gin.Context) {
	if _, _, ok := caller(c); !ok {
		return
	}

	agentID := c.Param("agentId")
	if _, err := h.repos.Agents.GetByID(c.Request.Context(), agentID); err != nil {
		errorBody(c, http.StatusNotFound, "agent not found", "not_found")
		return
	}

	var req invokeToolCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorBody(c, http.StatusBadRequest, "invalid request body", "bad_request")
		return
	}

	record, err := h.gateway.CallTool(c.Request.Context(), agentID, req.MCPServerName, req.ToolName, req.Arguments)
	if err != nil {
		if errors.Is(err, services.ErrUnknownServer) {
			errorBody(c, http.StatusBadRequest, "unknown MCP server", "bad_request")
			return
		}
		errorBody(c, http.StatusInternalServerError, "failed to execute tool call", "internal_error")
		return
	}

	c.JSON(http.StatusCreated, record)
}

// deleteAgent removes an agent along with its recorded tool calls (cascade).
func (h *APIHandlers) deleteAgent(c *gin.Context) {
	if _, _, ok := caller(c); !ok {
		return
	}

	if err := h.repos.Agents.Delete(c.Request.Context(), c.Param("agentId")); err != nil {
		errorBody(c, http.StatusNotFound, "agent not found", "not_found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
