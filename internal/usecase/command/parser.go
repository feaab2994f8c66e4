package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	domainerrors "github.com/qj0r9j0vc2/modlog-bridge/internal/domain/errors"
)

// Name identifies a command.
type Name string

const (
	NameModlogCount      Name = "modlog_count"
	NameQueueCount       Name = "queue_count"
	NameUnmoderatedCount Name = "unmoderated_count"
	NameActionsOnLink    Name = "actions_on_link"
	NameModmailRelay     Name = "modmail_relay"
	NameStickyThreads    Name = "sticky_threads"
	NameFullMods         Name = "full_mods"
)

// ArgKind describes the argument a command expects after its prefix.
type ArgKind int

const (
	ArgNone ArgKind = iota
	ArgHours
	ArgLink
	ArgBody
)

// Route binds a literal message prefix to a command.
type Route struct {
	Prefix  string
	Command Name
	Arg     ArgKind
	Usage   string
}

// Args holds the arguments extracted from a message.
type Args struct {
	Hours int
	Link  string
	Body  string
}

// Parsed is the result of matching a message against the route table.
type Parsed struct {
	Route Route
	Args  Args
}

// Routes returns the route for every built-in command, keyed by name.
func Routes() map[Name]Route {
	return map[Name]Route{
		NameModlogCount:      {Prefix: "~modlog", Command: NameModlogCount, Arg: ArgHours, Usage: "~modlog <hours>"},
		NameQueueCount:       {Prefix: "~modque", Command: NameQueueCount, Arg: ArgNone, Usage: "~modque"},
		NameUnmoderatedCount: {Prefix: "~unmod", Command: NameUnmoderatedCount, Arg: ArgNone, Usage: "~unmod"},
		NameActionsOnLink:    {Prefix: "~actions", Command: NameActionsOnLink, Arg: ArgLink, Usage: "~actions <link>"},
		NameModmailRelay:     {Prefix: "~modmail", Command: NameModmailRelay, Arg: ArgBody, Usage: "~modmail <message>"},
		NameStickyThreads:    {Prefix: "~sticky", Command: NameStickyThreads, Arg: ArgNone, Usage: "~sticky"},
		NameFullMods:         {Prefix: "~fullmods", Command: NameFullMods, Arg: ArgNone, Usage: "~fullmods"},
	}
}

// Parser classifies message text against an ordered prefix table.
// Matching is literal and case-sensitive; the first matching route wins.
type Parser struct {
	routes []Route
}

// NewParser builds a parser over routes. It fails if any prefix is empty, duplicated,
// or a prefix of another one, so that at most one route can ever match.
func NewParser(routes ...Route) (*Parser, error) {
	for i, a := range routes {
		if a.Prefix == "" {
			return nil, fmt.Errorf("route %q has an empty prefix", a.Command)
		}
		for j, b := range routes {
			if i != j && strings.HasPrefix(b.Prefix, a.Prefix) {
				return nil, fmt.Errorf("prefix %q of %q overlaps %q of %q", a.Prefix, a.Command, b.Prefix, b.Command)
			}
		}
	}
	return &Parser{routes: routes}, nil
}

// Parse matches text. ok is false when no route matches; err is a UserError when a
// route matches but its argument is missing or malformed.
func (p *Parser) Parse(text string) (parsed Parsed, ok bool, err error) {
	for _, r := range p.routes {
		if !strings.HasPrefix(text, r.Prefix) {
			continue
		}
		args, err := parseArgs(r, strings.TrimSpace(text[len(r.Prefix):]))
		return Parsed{Route: r, Args: args}, true, err
	}
	return Parsed{}, false, nil
}

func parseArgs(r Route, rest string) (Args, error) {
	switch r.Arg {
	case ArgHours:
		if rest == "" {
			return Args{}, domainerrors.NewUserError("Missing hour count. Usage: %s", r.Usage)
		}
		hours, err := strconv.Atoi(rest)
		if errors.Is(err, strconv.ErrRange) && hours > 0 {
			// Atoi clamps to MaxInt; the command rejects it against its window cap.
			return Args{Hours: hours}, nil
		}
		if err != nil || hours < 1 {
			return Args{}, domainerrors.NewUserError("%q is not a whole number of hours. Usage: %s", rest, r.Usage)
		}
		return Args{Hours: hours}, nil

	case ArgLink:
		link := unescapeText(unwrapLink(rest))
		if link == "" {
			return Args{}, domainerrors.NewUserError("Missing link. Usage: %s", r.Usage)
		}
		return Args{Link: link}, nil

	case ArgBody:
		if rest == "" {
			return Args{}, domainerrors.NewUserError("Missing message. Usage: %s", r.Usage)
		}
		return Args{Body: unescapeText(rest)}, nil

	default:
		return Args{}, nil
	}
}

// slackEntities are the only characters Slack escapes in message text.
var slackEntities = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&")

// unescapeText decodes Slack's control-character escaping. It must run after
// link markup is removed, since decoded text may contain literal angle brackets.
func unescapeText(s string) string {
	return slackEntities.Replace(s)
}

// unwrapLink strips Slack's <url> / <url|label> link markup.
func unwrapLink(s string) string {
	if strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
		s = s[1 : len(s)-1]
		if i := strings.IndexByte(s, '|'); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
