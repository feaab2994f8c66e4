package sqlite

import (
	"context"
	"fmt"
)

// Repositories holds all SQLite repository implementations.
type Repositories struct {
	Invocation *InvocationRepository
}

// NewRepositories opens the database at path, migrates it and builds the
// repositories on the shared connection.
func NewRepositories(ctx context.Context, path string) (*Repositories, *DB, error) {
	db, err := NewDB(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating database connection: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Repositories{
		Invocation: NewInvocationRepository(db.DB),
	}, db, nil
}
