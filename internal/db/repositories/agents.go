package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"outpost/internal/db"
	"outpost/pkg/models"
)

type AgentRepo struct {
	db *sql.DB
}

func NewAgentRepo(db *sql.DB) *AgentRepo {
	return &AgentRepo{db: db}
}

const agentColumns = "id, name, description, team_id, created_by, created_at, updated_at"

func scanAgent(row *sql.Row) (*models.Agent, error) {
	var agent models.Agent
	err := row.Scan(&agent.ID, &agent.Name, &agent.Description, &agent.TeamID, &agent.CreatedBy, &agent.CreatedAt, &agent.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *AgentRepo) Create(ctx context.Context, name, description string, teamID, createdBy int64) (*models.Agent, error) {
	db.SQLiteWriteMutex.Lock()
	defer db.SQLiteWriteMutex.Unlock()

	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO agents (id, name, description, team_id, created_by) VALUES (?, ?, ?, ?, ?)",
		id, name, description, teamID, createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *AgentRepo) GetByID(ctx context.Context, id string) (*models.Agent, error) {
	query := fmt.Sprintf("SELECT %s FROM agents WHERE id = ?", agentColumns)
	return scanAgent(r.db.QueryRowContext(ctx, query, id))
}

func (r *AgentRepo) List(ctx context.Context) ([]*models.Agent, error) {
	query := fmt.Sprintf("SELECT %s FROM agents ORDER BY created_at DESC", agentColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	var agents []*models.Agent
	for rows.Next() {
		var agent models.Agent
		if err := rows.Scan(&agent.ID, &agent.Name, &agent.Description, &agent.TeamID, &agent.CreatedBy, &agent.CreatedAt, &agent.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, &agent)
	}

	return agents, rows.Err()
}

// Delete removes an agent. Its mcp_tool_calls rows go with it via the
// cascade on the foreign key.
func (r *AgentRepo) Delete(ctx context.Context, id string) error {
	db.SQLiteWriteMutex.Lock()
	defer db.SQLiteWriteMutex.Unlock()

	result, err := r.db.ExecContext(ctx, "DELETE FROM agents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
