package command

import (
	"context"
	"fmt"
)

// QueueCountUseCase counts the modqueue, split into comments and posts.
type QueueCountUseCase struct {
	queues QueueSource
}

// NewQueueCountUseCase creates the ~modque handler.
func NewQueueCountUseCase(queues QueueSource) *QueueCountUseCase {
	return &QueueCountUseCase{queues: queues}
}

// Handle consumes the full modqueue once.
func (uc *QueueCountUseCase) Handle(ctx context.Context, req Request) (Result, error) {
	req.acknowledge(ctx)

	res := &QueueCountResult{}
	for item, err := range uc.queues.ModQueue(ctx) {
		if err != nil {
			return nil, fmt.Errorf("reading modqueue: %w", err)
		}
		if item.IsComment() {
			res.Comments++
		} else {
			res.Posts++
		}
	}
	res.Total = res.Comments + res.Posts

	return res, nil
}

// UnmoderatedCountUseCase counts the unmoderated queue.
type UnmoderatedCountUseCase struct {
	queues QueueSource
}

// NewUnmoderatedCountUseCase creates the ~unmod handler.
func NewUnmoderatedCountUseCase(queues QueueSource) *UnmoderatedCountUseCase {
	return &UnmoderatedCountUseCase{queues: queues}
}

// Handle consumes the full unmoderated queue once.
func (uc *UnmoderatedCountUseCase) Handle(ctx context.Context, req Request) (Result, error) {
	req.acknowledge(ctx)

	n, err := Count(uc.queues.Unmoderated(ctx))
	if err != nil {
		return nil, fmt.Errorf("reading unmoderated queue: %w", err)
	}

	return &UnmoderatedCountResult{Count: n}, nil
}
