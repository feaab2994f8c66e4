package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/repository"
)

const invocationColumns = `id, command, requester_id, channel_id, outcome, error, started_at, duration_ms`

// InvocationRepository provides SQLite implementation of repository.InvocationRepository.
type InvocationRepository struct {
	db *sql.DB
}

// NewInvocationRepository creates a new SQLite-backed invocation repository.
func NewInvocationRepository(db *sql.DB) *InvocationRepository {
	return &InvocationRepository{db: db}
}

// Save persists a finished invocation.
func (r *InvocationRepository) Save(ctx context.Context, inv *entity.Invocation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invocations (`+invocationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		inv.ID, inv.Command, inv.RequesterID, inv.ChannelID,
		string(inv.Outcome), nullString(inv.Error),
		toMillis(inv.StartedAt), inv.Duration.Milliseconds(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("insert invocation: %w", err)
	}
	return nil
}

// FindByID retrieves an invocation by its ID.
func (r *InvocationRepository) FindByID(ctx context.Context, id string) (*entity.Invocation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+invocationColumns+` FROM invocations WHERE id = ?`, id)

	inv, err := scanInvocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan invocation: %w", err)
	}
	return inv, nil
}

// Recent returns up to limit invocations, newest first.
func (r *InvocationRepository) Recent(ctx context.Context, limit int) ([]*entity.Invocation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+invocationColumns+` FROM invocations
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent invocations: %w", err)
	}
	defer rows.Close()

	invocations := []*entity.Invocation{}
	for rows.Next() {
		inv, err := scanInvocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invocation row: %w", err)
		}
		invocations = append(invocations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return invocations, nil
}

// DeleteOlderThan removes invocations started before cutoff.
func (r *InvocationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM invocations WHERE started_at < ?`, toMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete old invocations: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvocation(s scanner) (*entity.Invocation, error) {
	var (
		inv        entity.Invocation
		outcome    string
		errText    sql.NullString
		startedAt  int64
		durationMS int64
	)

	if err := s.Scan(
		&inv.ID, &inv.Command, &inv.RequesterID, &inv.ChannelID,
		&outcome, &errText, &startedAt, &durationMS,
	); err != nil {
		return nil, err
	}

	inv.Outcome = entity.Outcome(outcome)
	inv.Error = stringFromNull(errText)
	inv.StartedAt = fromMillis(startedAt)
	inv.Duration = time.Duration(durationMS) * time.Millisecond
	return &inv, nil
}
