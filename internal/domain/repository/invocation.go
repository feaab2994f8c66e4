package repository

import (
	"context"
	"time"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
)

// InvocationRepository stores the command audit trail.
type InvocationRepository interface {
	// Save persists a finished invocation. Returns ErrAlreadyExists on a duplicate ID.
	Save(ctx context.Context, inv *entity.Invocation) error

	// FindByID returns ErrNotFound when no invocation has the given ID.
	FindByID(ctx context.Context, id string) (*entity.Invocation, error)

	// Recent returns up to limit invocations, newest first.
	Recent(ctx context.Context, limit int) ([]*entity.Invocation, error)

	// DeleteOlderThan removes invocations started before cutoff and returns the count.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
