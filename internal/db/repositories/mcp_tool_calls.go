package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"outpost/internal/db"
	"outpost/pkg/models"
)

// MCPToolCallRepo is the single point of truth for reading and writing
// recorded tool calls. Visibility rules: an admin caller sees everything, a
// non-admin caller only sees records of agents their teams own, and a nil
// caller (internal code paths, already authenticated at the boundary) is
// unfiltered.
type MCPToolCallRepo struct {
	db    *sql.DB
	teams *TeamRepo
}

func NewMCPToolCallRepo(db *sql.DB, teams *TeamRepo) *MCPToolCallRepo {
	return &MCPToolCallRepo{db: db, teams: teams}
}

// Filter is an extra predicate conjoined onto an agent-scoped query.
type Filter struct {
	Where string
	Args  []any
}

const toolCallColumns = "id, agent_id, mcp_server_name, tool_call, tool_result, created_at"

// orderClause resolves a sort specification into an ORDER BY body. It is a
// total function: unrecognized or absent sort keys map to newest-first.
func orderClause(sorting *models.Sorting) string {
	direction := "DESC"
	if sorting != nil && sorting.SortDirection == "asc" {
		direction = "ASC"
	}

	if sorting == nil {
		return "created_at DESC"
	}

	switch sorting.SortBy {
	case "createdAt":
		return "created_at " + direction
	case "agentId":
		return "agent_id " + direction
	case "mcpServerName":
		return "mcp_server_name " + direction
	default:
		// Default: newest first
		return "created_at DESC"
	}
}

func scanToolCall(scan func(dest ...any) error) (*models.MCPToolCall, error) {
	var call models.MCPToolCall
	err := scan(&call.ID, &call.AgentID, &call.MCPServerName, &call.ToolCall, &call.ToolResult, &call.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &call, nil
}

func (r *MCPToolCallRepo) queryToolCalls(ctx context.Context, query string, args ...any) ([]*models.MCPToolCall, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query mcp tool calls: %w", err)
	}
	defer rows.Close()

	var calls []*models.MCPToolCall
	for rows.Next() {
		call, err := scanToolCall(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mcp tool call: %w", err)
		}
		calls = append(calls, call)
	}

	return calls, rows.Err()
}

// Create inserts one record and returns the stored row including generated
// fields. A dangling agent reference fails with the driver's FK error.
func (r *MCPToolCallRepo) Create(ctx context.Context, agentID, serverName string, toolCall models.CommonToolCall, toolResult models.CommonToolResult) (*models.MCPToolCall, error) {
	db.SQLiteWriteMutex.Lock()
	defer db.SQLiteWriteMutex.Unlock()

	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO mcp_tool_calls (id, agent_id, mcp_server_name, tool_call, tool_result) VALUES (?, ?, ?, ?, ?)",
		id, agentID, serverName, toolCall, toolResult,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp tool call: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM mcp_tool_calls WHERE id = ?", toolCallColumns)
	return scanToolCall(r.db.QueryRowContext(ctx, query, id).Scan)
}

// visibilityFilter resolves the caller's accessible agents into an IN
// predicate. The bool result reports whether the caller can see anything at
// all; false short-circuits the row query entirely.
func (r *MCPToolCallRepo) visibilityFilter(ctx context.Context, userID *int64, isAdmin bool) (string, []any, bool, error) {
	if userID == nil || isAdmin {
		return "", nil, true, nil
	}

	agentIDs, err := r.teams.GetUserAccessibleAgentIDs(ctx, *userID)
	if err != nil {
		return "", nil, false, err
	}
	if len(agentIDs) == 0 {
		return "", nil, false, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(agentIDs)), ", ")
	args := make([]any, len(agentIDs))
	for i, id := range agentIDs {
		args[i] = id
	}

	return fmt.Sprintf("agent_id IN (%s)", placeholders), args, true, nil
}

// FindAll returns all visible records, newest first.
func (r *MCPToolCallRepo) FindAll(ctx context.Context, userID *int64, isAdmin bool) ([]*models.MCPToolCall, error) {
	where, args, visible, err := r.visibilityFilter(ctx, userID, isAdmin)
	if err != nil {
		return nil, err
	}
	if !visible {
		return []*models.MCPToolCall{}, nil
	}

	query := fmt.Sprintf("SELECT %s FROM mcp_tool_calls", toolCallColumns)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY created_at DESC"

	calls, err := r.queryToolCalls(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if calls == nil {
		calls = []*models.MCPToolCall{}
	}
	return calls, nil
}

// FindAllPaginated returns one page of visible records plus the total count
// under the same filter. The data and count queries run concurrently.
func (r *MCPToolCallRepo) FindAllPaginated(ctx context.Context, pagination models.Pagination, sorting *models.Sorting, userID *int64, isAdmin bool) (*models.PaginatedResult[*models.MCPToolCall], error) {
	where, args, visible, err := r.visibilityFilter(ctx, userID, isAdmin)
	if err != nil {
		return nil, err
	}
	if !visible {
		return models.NewPaginatedResult([]*models.MCPToolCall{}, 0, pagination), nil
	}

	var whereSQL string
	if where != "" {
		whereSQL = " WHERE " + where
	}

	dataQuery := fmt.Sprintf("SELECT %s FROM mcp_tool_calls%s ORDER BY %s LIMIT ? OFFSET ?",
		toolCallColumns, whereSQL, orderClause(sorting))
	countQuery := "SELECT COUNT(*) FROM mcp_tool_calls" + whereSQL

	return r.paginate(ctx, dataQuery, countQuery, args, pagination)
}

// FindByID fetches one record by id. Absence and denied access both return
// (nil, nil) so callers cannot learn whether an inaccessible record exists.
func (r *MCPToolCallRepo) FindByID(ctx context.Context, id string, userID *int64, isAdmin bool) (*models.MCPToolCall, error) {
	query := fmt.Sprintf("SELECT %s FROM mcp_tool_calls WHERE id = ?", toolCallColumns)

	call, err := scanToolCall(r.db.QueryRowContext(ctx, query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mcp tool call: %w", err)
	}

	if userID != nil && !isAdmin {
		hasAccess, err := r.teams.UserHasAgentAccess(ctx, *userID, call.AgentID)
		if err != nil {
			return nil, err
		}
		if !hasAccess {
			return nil, nil
		}
	}

	return call, nil
}

// ListByAgent returns all records for one agent, oldest first, with optional
// extra predicates conjoined.
func (r *MCPToolCallRepo) ListByAgent(ctx context.Context, agentID string, filters ...Filter) ([]*models.MCPToolCall, error) {
	where, args := agentScope(agentID, filters)

	query := fmt.Sprintf("SELECT %s FROM mcp_tool_calls WHERE %s ORDER BY created_at ASC", toolCallColumns, where)
	return r.queryToolCalls(ctx, query, args...)
}

// ListByAgentPaginated is the paginated and sorted variant of ListByAgent.
func (r *MCPToolCallRepo) ListByAgentPaginated(ctx context.Context, agentID string, pagination models.Pagination, sorting *models.Sorting, filters ...Filter) (*models.PaginatedResult[*models.MCPToolCall], error) {
	where, args := agentScope(agentID, filters)

	dataQuery := fmt.Sprintf("SELECT %s FROM mcp_tool_calls WHERE %s ORDER BY %s LIMIT ? OFFSET ?",
		toolCallColumns, where, orderClause(sorting))
	countQuery := "SELECT COUNT(*) FROM mcp_tool_calls WHERE " + where

	return r.paginate(ctx, dataQuery, countQuery, args, pagination)
}

func agentScope(agentID string, filters []Filter) (string, []any) {
	where := "agent_id = ?"
	args := []any{agentID}
	for _, f := range filters {
		where += " AND " + f.Where
		args = append(args, f.Args...)
	}
	return where, args
}

// paginate issues the data and count queries concurrently and assembles the
// page once both complete.
func (r *MCPToolCallRepo) paginate(ctx context.Context, dataQuery, countQuery string, args []any, pagination models.Pagination) (*models.PaginatedResult[*models.MCPToolCall], error) {
	var (
		wg       sync.WaitGroup
		calls    []*models.MCPToolCall
		total    int64
		dataErr  error
		countErr error
	)

	dataArgs := append(append([]any{}, args...), pagination.Limit, pagination.Offset)

	wg.Add(2)
	go func() {
		defer wg.Done()
		calls, dataErr = r.queryToolCalls(ctx, dataQuery, dataArgs...)
	}()
	go func() {
		defer wg.Done()
		countErr = r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total)
	}()
	wg.Wait()

	if dataErr != nil {
		return nil, dataErr
	}
	if countErr != nil {
		return nil, fmt.Errorf("failed to count mcp tool calls: %w", countErr)
	}

	return models.NewPaginatedResult(calls, total, pagination), nil
}
