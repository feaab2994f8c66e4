package command

import (
	"context"
	"fmt"
)

// FullModsUseCase pages the moderators of the staff community.
type FullModsUseCase struct {
	directory ModeratorDirectory
	community string
	excluded  map[string]struct{}
}

// NewFullModsUseCase creates the ~fullmods handler for the given staff community.
func NewFullModsUseCase(directory ModeratorDirectory, community string, excluded []string) *FullModsUseCase {
	return &FullModsUseCase{
		directory: directory,
		community: community,
		excluded:  toSet(excluded),
	}
}

func (uc *FullModsUseCase) Handle(ctx context.Context, req Request) (Result, error) {
	req.acknowledge(ctx)

	mods, err := uc.directory.Moderators(ctx, uc.community)
	if err != nil {
		return nil, fmt.Errorf("listing moderators of %s: %w", uc.community, err)
	}

	res := &FullModsResult{}
	for _, m := range mods {
		if _, skip := uc.excluded[m]; skip {
			continue
		}
		res.Moderators = append(res.Moderators, m)
	}
	return res, nil
}
