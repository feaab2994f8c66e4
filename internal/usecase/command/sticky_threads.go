package command

import (
	"context"
	"fmt"
)

// stickyScan is how many hot items are checked for pinned threads.
const stickyScan = 5

// StickyThreadsUseCase lists the community's pinned threads.
type StickyThreadsUseCase struct {
	listing ListingSource
}

// NewStickyThreadsUseCase creates the ~sticky handler.
func NewStickyThreadsUseCase(listing ListingSource) *StickyThreadsUseCase {
	return &StickyThreadsUseCase{listing: listing}
}

func (uc *StickyThreadsUseCase) Handle(ctx context.Context, req Request) (Result, error) {
	req.acknowledge(ctx)

	hot, err := uc.listing.Hot(ctx, stickyScan)
	if err != nil {
		return nil, fmt.Errorf("reading hot listing: %w", err)
	}

	res := &StickyThreadsResult{}
	for _, s := range hot {
		if s.Stickied {
			res.Links = append(res.Links, s.Permalink)
		}
	}
	return res, nil
}
