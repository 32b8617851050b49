package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"outpost/internal/db"
	"outpost/pkg/models"
)

// TeamRepo manages teams and the agent visibility they grant. A non-admin
// user's accessible-agent set is the set of agents owned by teams the user
// belongs to, computed fresh on every call.
type TeamRepo struct {
	db *sql.DB
}

func NewTeamRepo(db *sql.DB) *TeamRepo {
	return &TeamRepo{db: db}
}

func (r *TeamRepo) Create(ctx context.Context, name string) (*models.Team, error) {
	db.SQLiteWriteMutex.Lock()
	defer db.SQLiteWriteMutex.Unlock()

	var team models.Team
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO teams (name) VALUES (?) RETURNING id, name, created_at",
		name,
	).Scan(&team.ID, &team.Name, &team.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	return &team, nil
}

func (r *TeamRepo) GetByID(ctx context.Context, id int64) (*models.Team, error) {
	var team models.Team
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM teams WHERE id = ?", id,
	).Scan(&team.ID, &team.Name, &team.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *TeamRepo) AddMember(ctx context.Context, teamID, userID int64) error {
	db.SQLiteWriteMutex.Lock()
	defer db.SQLiteWriteMutex.Unlock()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO team_members (team_id, user_id) VALUES (?, ?)",
		teamID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to add team member: %w", err)
	}
	return nil
}

func (r *TeamRepo) RemoveMember(ctx context.Context, teamID, userID int64) error {
	db.SQLiteWriteMutex.Lock()
	defer db.SQLiteWriteMutex.Unlock()

	_, err := r.db.ExecContext(ctx,
		"DELETE FROM team_members WHERE team_id = ? AND user_id = ?",
		teamID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove team member: %w", err)
	}
	return nil
}

// GetUserAccessibleAgentIDs returns the IDs of every agent the user may see.
func (r *TeamRepo) GetUserAccessibleAgentIDs(ctx context.Context, userID int64) ([]string, error) {
	query := `
		SELECT a.id
		FROM agents a
		JOIN team_members tm ON tm.team_id = a.team_id
		WHERE tm.user_id = ?
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accessible agents: %w", err)
	}
	defer rows.Close()

	var agentIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan agent id: %w", err)
		}
		agentIDs = append(agentIDs, id)
	}

	return agentIDs, rows.Err()
}

// UserHasAgentAccess answers the point access-check for a single agent.
func (r *TeamRepo) UserHasAgentAccess(ctx context.Context, userID int64, agentID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM agents a
			JOIN team_members tm ON tm.team_id = a.team_id
			WHERE tm.user_id = ? AND a.id = ?
		)
	`

	var hasAccess bool
	if err := r.db.QueryRowContext(ctx, query, userID, agentID).Scan(&hasAccess); err != nil {
		return false, fmt.Errorf("failed to check agent access: %w", err)
	}

	return hasAccess, nil
}
