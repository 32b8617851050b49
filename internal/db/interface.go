package db

import "database/sql"

// Database is the storage handle injected into repositories and the API
// server instead of a package-level singleton.
type Database interface {
	Conn() *sql.DB
	Close() error
	Migrate() error
}

var _ Database = (*DB)(nil)
