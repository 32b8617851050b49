package db

import "sync"

// SQLiteWriteMutex serializes write operations against the sqlite database.
//
// SQLite only allows 1 writer at a time, even with WAL mode enabled. Code
// that performs INSERT, UPDATE or DELETE statements must hold this lock to
// avoid SQLITE_BUSY errors under concurrent requests.
var SQLiteWriteMutex sync.Mutex
