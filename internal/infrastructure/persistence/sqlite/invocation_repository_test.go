package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/repository"
)

func setupInvocationTest(t *testing.T) *InvocationRepository {
	t.Helper()

	repos, db, err := NewRepositories(context.Background(), filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return repos.Invocation
}

func finishedInvocation(command string, outcome entity.Outcome, startedAt time.Time) *entity.Invocation {
	inv := entity.NewInvocation(command, "U1", "C1", startedAt)
	inv.Finish(outcome, nil, startedAt.Add(120*time.Millisecond))
	return inv
}

func TestNewDB_InMemory(t *testing.T) {
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, ":memory:", db.Path())
	assert.NoError(t, db.Ping(context.Background()))
}

func TestNewDB_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "audit.db")

	db, err := NewDB(dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestDB_MigrateIdempotent(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx))

	var name string
	err = db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='invocations'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "invocations", name)
}

func TestInvocationRepository_SaveAndFind(t *testing.T) {
	repo := setupInvocationTest(t)
	ctx := context.Background()

	inv := entity.NewInvocation("modmail", "U9", "C7", time.Now())
	inv.Finish(entity.OutcomeFailed, assert.AnError, inv.StartedAt.Add(2*time.Second))

	require.NoError(t, repo.Save(ctx, inv))

	found, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "modmail", found.Command)
	assert.Equal(t, "U9", found.RequesterID)
	assert.Equal(t, "C7", found.ChannelID)
	assert.Equal(t, entity.OutcomeFailed, found.Outcome)
	assert.Equal(t, assert.AnError.Error(), found.Error)
	assert.Equal(t, 2*time.Second, found.Duration)
	assert.WithinDuration(t, inv.StartedAt, found.StartedAt, time.Millisecond)
}

func TestInvocationRepository_SaveDuplicate(t *testing.T) {
	repo := setupInvocationTest(t)
	ctx := context.Background()
	inv := finishedInvocation("queue", entity.OutcomeOK, time.Now())

	require.NoError(t, repo.Save(ctx, inv))
	assert.ErrorIs(t, repo.Save(ctx, inv), repository.ErrAlreadyExists)
}

func TestInvocationRepository_FindMissing(t *testing.T) {
	repo := setupInvocationTest(t)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInvocationRepository_Recent(t *testing.T) {
	repo := setupInvocationTest(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i, cmd := range []string{"modlog", "queue", "unmod"} {
		require.NoError(t, repo.Save(ctx, finishedInvocation(cmd, entity.OutcomeOK, base.Add(time.Duration(i)*time.Minute))))
	}

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "unmod", recent[0].Command)
	assert.Equal(t, "queue", recent[1].Command)

	empty := setupInvocationTest(t)
	none, err := empty.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInvocationRepository_DeleteOlderThan(t *testing.T) {
	repo := setupInvocationTest(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Save(ctx, finishedInvocation("old", entity.OutcomeOK, now.Add(-72*time.Hour))))
	require.NoError(t, repo.Save(ctx, finishedInvocation("older", entity.OutcomeRejected, now.Add(-96*time.Hour))))
	require.NoError(t, repo.Save(ctx, finishedInvocation("fresh", entity.OutcomeOK, now)))

	deleted, err := repo.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	recent, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "fresh", recent[0].Command)
}
