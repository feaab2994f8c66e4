package mysql

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/repository"
)

func TestLoadMigrations_Embedded(t *testing.T) {
	migrations, err := loadMigrations(NewMigrator(nil).files)
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "initial", migrations[0].Name)
	require.NotEmpty(t, migrations[0].Statements)
	assert.True(t, strings.HasPrefix(migrations[0].Statements[0], "CREATE TABLE IF NOT EXISTS invocations"))
}

func TestLoadMigrations(t *testing.T) {
	tests := []struct {
		name     string
		files    fstest.MapFS
		versions []int
		wantErr  string
	}{
		{
			name: "sorted by version",
			files: fstest.MapFS{
				"010_index.sql":   {Data: []byte("CREATE INDEX i ON t (c);")},
				"002_table.sql":   {Data: []byte("CREATE TABLE t (c INT);")},
				"README.md":       {Data: []byte("not a migration")},
				"001_initial.sql": {Data: []byte("-- empty\n")},
			},
			versions: []int{1, 2, 10},
		},
		{
			name:    "missing name",
			files:   fstest.MapFS{"001.sql": {Data: []byte("SELECT 1;")}},
			wantErr: "expected NNN_name.sql",
		},
		{
			name:    "non numeric version",
			files:   fstest.MapFS{"one_initial.sql": {Data: []byte("SELECT 1;")}},
			wantErr: "expected NNN_name.sql",
		},
		{
			name: "duplicate version",
			files: fstest.MapFS{
				"001_a.sql": {Data: []byte("SELECT 1;")},
				"1_b.sql":   {Data: []byte("SELECT 2;")},
			},
			wantErr: "share version 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			migrations, err := loadMigrations(tt.files)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			var versions []int
			for _, m := range migrations {
				versions = append(versions, m.Version)
			}
			assert.Equal(t, tt.versions, versions)
			assert.Empty(t, migrations[0].Statements, "comment-only script has no statements")
		})
	}
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements(`
-- header
CREATE TABLE a (id INT);

  -- indented comment
CREATE TABLE b (id INT);
`)
	assert.Equal(t, []string{"CREATE TABLE a (id INT)", "CREATE TABLE b (id INT)"}, stmts)
}

func TestInvocationRepository_Integration(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	db, err := NewDB(cfg)
	if err != nil {
		t.Skipf("Skipping test: MySQL not available: %v", err)
	}
	_, _ = db.Conn().Exec("DROP TABLE IF EXISTS invocations")
	_, _ = db.Conn().Exec("DROP TABLE IF EXISTS schema_migrations")
	db.Close()

	repos, db, err := NewRepositories(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	// Up is idempotent
	m := NewMigrator(db.Conn())
	require.NoError(t, m.Up(ctx))
	version, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	repo := repos.Invocation
	now := time.Now().UTC()

	old := entity.NewInvocation("modlog", "U1", "C1", now.Add(-72*time.Hour))
	old.Finish(entity.OutcomeOK, nil, old.StartedAt.Add(time.Second))
	fresh := entity.NewInvocation("queue", "U2", "C1", now)
	fresh.Finish(entity.OutcomeFailed, assert.AnError, fresh.StartedAt.Add(300*time.Millisecond))

	require.NoError(t, repo.Save(ctx, old))
	require.NoError(t, repo.Save(ctx, fresh))
	assert.ErrorIs(t, repo.Save(ctx, fresh), repository.ErrAlreadyExists)

	found, err := repo.FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeFailed, found.Outcome)
	assert.Equal(t, 300*time.Millisecond, found.Duration)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	recent, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, fresh.ID, recent[0].ID)

	deleted, err := repo.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
