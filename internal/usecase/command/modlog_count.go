package command

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
	domainerrors "github.com/qj0r9j0vc2/modlog-bridge/internal/domain/errors"
)

// MaxModlogHours caps the ~modlog window (one week).
const MaxModlogHours = 168

// ModlogCountUseCase counts mod log actions per moderator over the last N hours.
type ModlogCountUseCase struct {
	log      ModLogSource
	excluded map[string]struct{}
	maxHours int
	now      func() time.Time
}

// NewModlogCountUseCase creates the ~modlog handler. Actions by excluded
// moderators (automated accounts) are ignored.
func NewModlogCountUseCase(log ModLogSource, excluded []string) *ModlogCountUseCase {
	return &ModlogCountUseCase{
		log:      log,
		excluded: toSet(excluded),
		maxHours: MaxModlogHours,
		now:      time.Now,
	}
}

// Handle consumes the mod log newest-first until an entry falls outside the window.
// The ranking is by descending count; ties keep the order in which moderators were
// first seen.
func (uc *ModlogCountUseCase) Handle(ctx context.Context, req Request) (Result, error) {
	hours := req.Args.Hours
	if hours > uc.maxHours {
		return nil, domainerrors.NewUserError("The mod log window is capped at %d hours :)", uc.maxHours)
	}

	req.acknowledge(ctx)

	window := time.Duration(hours) * time.Hour
	index := make(map[string]int)
	var counts []ModeratorCount

	for entry, err := range Within(uc.log.ModLog(ctx), uc.now(), window, uc.isExcluded) {
		if err != nil {
			return nil, fmt.Errorf("reading mod log: %w", err)
		}
		i, seen := index[entry.Moderator]
		if !seen {
			i = len(counts)
			index[entry.Moderator] = i
			counts = append(counts, ModeratorCount{Moderator: entry.Moderator})
		}
		counts[i].Count++
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	return &ModlogCountResult{Hours: hours, Counts: counts}, nil
}

func (uc *ModlogCountUseCase) isExcluded(e entity.ModLogEntry) bool {
	_, ok := uc.excluded[e.Moderator]
	return ok
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
