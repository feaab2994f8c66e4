package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/repository"
)

// InvocationRepository provides an in-memory implementation of repository.InvocationRepository.
// Thread-safe for concurrent access.
type InvocationRepository struct {
	mu          sync.RWMutex
	invocations map[string]*entity.Invocation
}

// NewInvocationRepository creates a new in-memory invocation repository.
func NewInvocationRepository() *InvocationRepository {
	return &InvocationRepository{
		invocations: make(map[string]*entity.Invocation),
	}
}

// Save persists a finished invocation.
func (r *InvocationRepository) Save(ctx context.Context, inv *entity.Invocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.invocations[inv.ID]; exists {
		return repository.ErrAlreadyExists
	}

	// Store a copy to prevent external mutations
	invCopy := *inv
	r.invocations[inv.ID] = &invCopy
	return nil
}

// FindByID retrieves an invocation by its ID.
func (r *InvocationRepository) FindByID(ctx context.Context, id string) (*entity.Invocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.invocations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	invCopy := *inv
	return &invCopy, nil
}

// Recent returns up to limit invocations, newest first.
func (r *InvocationRepository) Recent(ctx context.Context, limit int) ([]*entity.Invocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*entity.Invocation, 0, len(r.invocations))
	for _, inv := range r.invocations {
		invCopy := *inv
		result = append(result, &invCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// DeleteOlderThan removes invocations started before cutoff.
func (r *InvocationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, inv := range r.invocations {
		if inv.StartedAt.Before(cutoff) {
			delete(r.invocations, id)
			deleted++
		}
	}
	return deleted, nil
}

// Ping always succeeds for the in-memory store.
func (r *InvocationRepository) Ping(ctx context.Context) error {
	return nil
}
