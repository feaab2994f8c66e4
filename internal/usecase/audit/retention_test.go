package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
)

type fakeRepo struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (f *fakeRepo) Save(context.Context, *entity.Invocation) error { return nil }
func (f *fakeRepo) FindByID(context.Context, string) (*entity.Invocation, error) {
	return nil, nil
}
func (f *fakeRepo) Recent(context.Context, int) ([]*entity.Invocation, error) { return nil, nil }
func (f *fakeRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, f.err
}

type fakeMetrics struct{ pruned int64 }

func (f *fakeMetrics) RecordInvocationsPruned(_ context.Context, n int64) { f.pruned += n }

type fakeLogger struct{ errors int }

func (f *fakeLogger) Info(string, ...any)  {}
func (f *fakeLogger) Error(string, ...any) { f.errors++ }

func TestPruneUseCase_Execute(t *testing.T) {
	repo := &fakeRepo{deleted: 4}
	metrics := &fakeMetrics{}
	uc := NewPruneUseCase(repo, 48*time.Hour, metrics, &fakeLogger{})
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return now }

	deleted, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(4), deleted)
	assert.Equal(t, now.Add(-48*time.Hour), repo.cutoff)
	assert.Equal(t, int64(4), metrics.pruned)
}

func TestPruneUseCase_RunLogsFailure(t *testing.T) {
	repo := &fakeRepo{err: errors.New("disk full")}
	logger := &fakeLogger{}
	uc := NewPruneUseCase(repo, time.Hour, nil, logger)

	uc.Run(context.Background())

	assert.Equal(t, 1, logger.errors)
}
