package command

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
	domainerrors "github.com/qj0r9j0vc2/modlog-bridge/internal/domain/errors"
)

// LinkActionWindowHours bounds the ~actions mod log scan.
const LinkActionWindowHours = 25

// Actions on the submission itself. Comment removals are not reported.
var linkActions = map[string]struct{}{
	"removelink":  {},
	"approvelink": {},
	"spamlink":    {},
}

var (
	permalinkPattern = regexp.MustCompile(`/comments/([a-z0-9]+)(?:/|$)`)
	linkIDPattern    = regexp.MustCompile(`^[a-z0-9]+$`)
)

// ParseLinkID extracts the base36 submission ID from a permalink
// (".../comments/<id>/...") or a shortlink ("https://redd.it/<id>").
func ParseLinkID(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", false
	}

	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	if host == "redd.it" {
		id := strings.Trim(u.Path, "/")
		if linkIDPattern.MatchString(id) {
			return id, true
		}
		return "", false
	}

	if m := permalinkPattern.FindStringSubmatch(u.Path); m != nil {
		return m[1], true
	}
	return "", false
}

// ActionsOnLinkUseCase reports recent removals and approvals of one submission.
type ActionsOnLinkUseCase struct {
	log ModLogSource
	now func() time.Time
}

// NewActionsOnLinkUseCase creates the ~actions handler.
func NewActionsOnLinkUseCase(log ModLogSource) *ActionsOnLinkUseCase {
	return &ActionsOnLinkUseCase{log: log, now: time.Now}
}

// Handle scans the last LinkActionWindowHours of the mod log and returns matching
// entries in chronological order.
func (uc *ActionsOnLinkUseCase) Handle(ctx context.Context, req Request) (Result, error) {
	id, ok := ParseLinkID(req.Args.Link)
	if !ok {
		return nil, domainerrors.NewUserError("That doesn't look like a link to a thread: %s", req.Args.Link)
	}

	req.acknowledge(ctx)

	window := LinkActionWindowHours * time.Hour
	var entries []entity.ModLogEntry
	for entry, err := range Within(uc.log.ModLog(ctx), uc.now(), window, nil) {
		if err != nil {
			return nil, fmt.Errorf("reading mod log: %w", err)
		}
		if _, ok := linkActions[entry.Action]; !ok {
			continue
		}
		if entry.TargetsLink(id) {
			entries = append(entries, entry)
		}
	}
	slices.Reverse(entries)

	return &LinkActionsResult{LinkID: id, WindowHours: LinkActionWindowHours, Entries: entries}, nil
}
