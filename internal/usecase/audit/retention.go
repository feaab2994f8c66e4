// Package audit maintains the command audit trail.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/repository"
)

// Logger is the logging surface used by audit jobs.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Metrics records retention results.
type Metrics interface {
	RecordInvocationsPruned(ctx context.Context, deleted int64)
}

// PruneUseCase removes audit records older than the retention window.
type PruneUseCase struct {
	repo      repository.InvocationRepository
	retention time.Duration
	metrics   Metrics
	logger    Logger
	now       func() time.Time
}

// NewPruneUseCase creates a retention job for repo.
func NewPruneUseCase(repo repository.InvocationRepository, retention time.Duration, metrics Metrics, logger Logger) *PruneUseCase {
	return &PruneUseCase{
		repo:      repo,
		retention: retention,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Execute deletes invocations started before now minus the retention window.
func (uc *PruneUseCase) Execute(ctx context.Context) (int64, error) {
	cutoff := uc.now().Add(-uc.retention)

	deleted, err := uc.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning invocations before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	if uc.metrics != nil {
		uc.metrics.RecordInvocationsPruned(ctx, deleted)
	}
	if deleted > 0 {
		uc.logger.Info("pruned audit records", "deleted", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}

// Run is the scheduler entry point. Errors are logged, not returned.
func (uc *PruneUseCase) Run(ctx context.Context) {
	if _, err := uc.Execute(ctx); err != nil {
		uc.logger.Error("audit retention failed", "error", err)
	}
}
