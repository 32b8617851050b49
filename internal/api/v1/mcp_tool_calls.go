package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// registerMCPToolCallRoutes registers the read-only tool-call log routes
func (h *APIHandlers) registerMCPToolCallRoutes(group *gin.RouterGroup) {
	group.GET("", h.listMCPToolCalls)
	group.GET("/:mcpToolCallId", h.getMCPToolCall)
}

type listMCPToolCallsQuery struct {
	listQuery
	AgentID string `form:"agentId"`
}

// listMCPToolCalls returns one page of recorded tool calls.
//
// When agentId is present the agent-scoped query is the security boundary
// and the caller's broader visibility filter is not re-applied; otherwise
// the global query filters by the caller's accessible agents.
func (h *APIHandlers) listMCPToolCalls(c *gin.Context) {
	userID, isAdmin, ok := caller(c)
	if !ok {
		return
	}

	var query listMCPToolCallsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		errorBody(c, http.StatusBadRequest, "invalid query parameters", "bad_request")
		return
	}

	pagination := query.pagination()
	sorting := query.sorting()

	if query.AgentID != "" {
		result, err := h.repos.MCPToolCalls.ListByAgentPaginated(c.Request.Context(), query.AgentID, pagination, sorting)
		if err != nil {
			errorBody(c, http.StatusInternalServerError, "failed to list MCP tool calls", "internal_error")
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	result, err := h.repos.MCPToolCalls.FindAllPaginated(c.Request.Context(), pagination, sorting, &userID, isAdmin)
	if err != nil {
		errorBody(c, http.StatusInternalServerError, "failed to list MCP tool calls", "internal_error")
		return
	}

	c.JSON(http.StatusOK, result)
}

// getMCPToolCall looks up one record by id honoring the caller's visibility.
// An inaccessible record is reported as not found.
func (h *APIHandlers) getMCPToolCall(c *gin.Context) {
	userID, isAdmin, ok := caller(c)
	if !ok {
		return
	}

	call, err := h.repos.MCPToolCalls.FindByID(c.Request.Context(), c.Param("mcpToolCallId"), &userID, isAdmin)
	if err != nil {
		errorBody(c, http.StatusInternalServerError, "failed to get MCP tool call", "internal_error")
		return
	}
	if call == nil {
		errorBody(c, http.StatusNotFound, "MCP tool call not found", "not_found")
		return
	}

	c.JSON(http.StatusOK, call)
}
