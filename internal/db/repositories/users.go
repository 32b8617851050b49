package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"outpost/internal/db"
	"outpost/pkg/models"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = "id, username, is_admin, api_key, created_at, updated_at"

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var apiKey sql.NullString

	err := row.Scan(&user.ID, &user.Username, &user.IsAdmin, &apiKey, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if apiKey.Valid {
		user.APIKey = &apiKey.String
	}

	return &user, nil
}

func (r *UserRepo) Create(ctx context.Context, username string, isAdmin bool, apiKey *string) (*models.User, error) {
	db.SQLiteWriteMutex.Lock()
	defer db.SQLiteWriteMutex.Unlock()

	var key sql.NullString
	if apiKey != nil {
		key = sql.NullString{String: *apiKey, Valid: true}
	}

	var id int64
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO users (username, is_admin, api_key) VALUES (?, ?, ?) RETURNING id",
		username, isAdmin, key,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = ?", userColumns)
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE username = ?", userColumns)
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

// GetByAPIKey resolves the caller identity at the authentication boundary.
func (r *UserRepo) GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE api_key = ?", userColumns)
	return scanUser(r.db.QueryRowContext(ctx, query, apiKey))
}

func (r *UserRepo) List(ctx context.Context) ([]*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users ORDER BY id", userColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		var apiKey sql.NullString

		if err := rows.Scan(&user.ID, &user.Username, &user.IsAdmin, &apiKey, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if apiKey.Valid {
			user.APIKey = &apiKey.String
		}
		users = append(users, &user)
	}

	return users, rows.Err()
}
