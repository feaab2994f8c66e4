package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
	domainerrors "github.com/qj0r9j0vc2/modlog-bridge/internal/domain/errors"
)

const invocationColumns = `id, command, requester_id, channel_id, outcome, error, started_at, duration_ms`

// InvocationRepository provides MySQL implementation of repository.InvocationRepository.
type InvocationRepository struct {
	db *DB
}

// NewInvocationRepository creates a new MySQL-backed invocation repository.
func NewInvocationRepository(db *DB) *InvocationRepository {
	return &InvocationRepository{db: db}
}

// Save persists a finished invocation.
func (r *InvocationRepository) Save(ctx context.Context, inv *entity.Invocation) error {
	_, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO invocations (`+invocationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		inv.ID, inv.Command, inv.RequesterID, inv.ChannelID,
		string(inv.Outcome), nullString(inv.Error),
		inv.StartedAt.UTC(), inv.Duration.Milliseconds(),
	)
	if err != nil {
		return wrap(mapError(err), "insert invocation")
	}
	return nil
}

// FindByID retrieves an invocation by its ID.
func (r *InvocationRepository) FindByID(ctx context.Context, id string) (*entity.Invocation, error) {
	row := r.db.Conn().QueryRowContext(ctx, `SELECT `+invocationColumns+` FROM invocations WHERE id = ?`, id)

	inv, err := scanInvocation(row)
	if err != nil {
		return nil, wrap(mapError(err), "find invocation")
	}
	return inv, nil
}

// Recent returns up to limit invocations, newest first.
func (r *InvocationRepository) Recent(ctx context.Context, limit int) ([]*entity.Invocation, error) {
	rows, err := r.db.Conn().QueryContext(ctx, `
		SELECT `+invocationColumns+` FROM invocations
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, wrap(err, "query recent invocations")
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
	result, err := r.db.Conn().ExecContext(ctx, `DELETE FROM invocations WHERE started_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, wrap(err, "delete old invocations")
	}
	return result.RowsAffected()
}

// wrap marks retryable driver failures as transient so callers can tell them apart.
func wrap(err error, op string) error {
	if isRetryable(err) {
		return domainerrors.NewTransientError(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvocation(s scanner) (*entity.Invocation, error) {
	var (
		inv        entity.Invocation
		outcome    string
		errText    sql.NullString
		durationMS int64
	)

	if err := s.Scan(
		&inv.ID, &inv.Command, &inv.RequesterID, &inv.ChannelID,
		&outcome, &errText, &inv.StartedAt, &durationMS,
	); err != nil {
		return nil, err
	}

	inv.Outcome = entity.Outcome(outcome)
	inv.Error = stringValue(errText)
	inv.StartedAt = inv.StartedAt.UTC()
	inv.Duration = time.Duration(durationMS) * time.Millisecond
	return &inv, nil
}
