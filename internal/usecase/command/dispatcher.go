package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
	domainerrors "github.com/qj0r9j0vc2/modlog-bridge/internal/domain/errors"
	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/repository"
)

// Registration binds a route to the handler that serves it.
type Registration struct {
	Route   Route
	Handler Handler
}

// DispatcherDeps are the collaborators of a Dispatcher. Invocations, Metrics and
// Tracer are optional.
type DispatcherDeps struct {
	Identities  IdentityLookup
	Poster      ChatPoster
	Formatter   Formatter
	Invocations repository.InvocationRepository
	Metrics     Metrics
	Tracer      trace.Tracer
	Logger      Logger
}

// Dispatcher routes actionable chat events to command handlers. It is the
// per-command error boundary: every outcome except a rejected forum credential is
// turned into a chat reply here.
type Dispatcher struct {
	parser   *Parser
	handlers map[Name]Handler
	DispatcherDeps
	now func() time.Time
}

// NewDispatcher builds the route table from registrations in order.
func NewDispatcher(registrations []Registration, deps DispatcherDeps) (*Dispatcher, error) {
	if deps.Identities == nil || deps.Poster == nil || deps.Formatter == nil || deps.Logger == nil {
		return nil, errors.New("dispatcher requires identities, poster, formatter and logger")
	}
	if deps.Tracer == nil {
		deps.Tracer = noop.NewTracerProvider().Tracer("")
	}

	routes := make([]Route, 0, len(registrations))
	handlers := make(map[Name]Handler, len(registrations))
	for _, r := range registrations {
		if r.Handler == nil {
			return nil, fmt.Errorf("route %q has no handler", r.Route.Command)
		}
		if _, dup := handlers[r.Route.Command]; dup {
			return nil, fmt.Errorf("command %q registered twice", r.Route.Command)
		}
		routes = append(routes, r.Route)
		handlers[r.Route.Command] = r.Handler
	}

	parser, err := NewParser(routes...)
	if err != nil {
		return nil, fmt.Errorf("building command parser: %w", err)
	}

	return &Dispatcher{
		parser:         parser,
		handlers:       handlers,
		DispatcherDeps: deps,
		now:            time.Now,
	}, nil
}

// Dispatch handles one actionable event. Unmatched text is dropped silently.
// The returned error is non-nil only when the forum rejected the credential; the
// caller owns that recovery.
func (d *Dispatcher) Dispatch(ctx context.Context, event *entity.ChatEvent) error {
	parsed, matched, parseErr := d.parser.Parse(event.Text)
	if !matched {
		return nil
	}

	cmd := parsed.Route.Command
	inv := entity.NewInvocation(string(cmd), event.SenderID, event.ChannelID, d.now())

	ctx, span := d.Tracer.Start(ctx, "command."+string(cmd), trace.WithAttributes(
		attribute.String("command", string(cmd)),
		attribute.String("channel_id", event.ChannelID),
		attribute.String("requester_id", event.SenderID),
	))
	defer span.End()

	outcome, err := d.execute(ctx, event, parsed, parseErr)
	inv.Finish(outcome, err, d.now())

	span.SetAttributes(attribute.String("outcome", string(outcome)))
	if err != nil && outcome != entity.OutcomeRejected {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	d.record(ctx, inv)

	if outcome == entity.OutcomeAuthFailed {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	return nil
}

func (d *Dispatcher) execute(ctx context.Context, event *entity.ChatEvent, parsed Parsed, parseErr error) (entity.Outcome, error) {
	cmd := parsed.Route.Command

	requester, ok := d.Identities.Lookup(event.SenderID)
	if !ok {
		d.Logger.Error("Dropping command from unknown requester",
			"command", cmd,
			"sender_id", event.SenderID,
			"channel_id", event.ChannelID,
		)
		return entity.OutcomeFailed, domainerrors.ErrUnknownRequester
	}

	if parseErr != nil {
		d.notify(ctx, event.ChannelID, requester, parseErr)
		return entity.OutcomeRejected, parseErr
	}

	req := Request{
		RequesterID:   event.SenderID,
		RequesterName: requester,
		ChannelID:     event.ChannelID,
		Args:          parsed.Args,
		Ack: func(ctx context.Context) {
			d.post(ctx, event.ChannelID, d.Formatter.Working())
		},
	}

	result, err := d.invoke(ctx, d.handlers[cmd], req)
	switch {
	case err == nil:
		d.post(ctx, event.ChannelID, d.Formatter.Render(requester, result))
		return entity.OutcomeOK, nil

	case domainerrors.IsCredentialRejected(err):
		d.Logger.Warn("Forum credential rejected during command",
			"command", cmd,
			"error", err,
		)
		return entity.OutcomeAuthFailed, err

	default:
		if _, ok := domainerrors.AsUserError(err); ok {
			d.notify(ctx, event.ChannelID, requester, err)
			return entity.OutcomeRejected, err
		}
		d.Logger.Error("Command failed",
			"command", cmd,
			"requester", requester,
			"error", err,
		)
		d.post(ctx, event.ChannelID, d.Formatter.Failure(requester, parsed.Route.Prefix))
		return entity.OutcomeFailed, err
	}
}

// invoke runs a handler, converting a panic into an error.
func (d *Dispatcher) invoke(ctx context.Context, h Handler, req Request) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(ctx, req)
}

func (d *Dispatcher) notify(ctx context.Context, channelID, requester string, err error) {
	ue, _ := domainerrors.AsUserError(err)
	d.post(ctx, channelID, d.Formatter.Notice(requester, ue.Message))
}

func (d *Dispatcher) post(ctx context.Context, channelID, text string) {
	if err := d.Poster.PostMessage(ctx, channelID, text); err != nil {
		d.Logger.Error("Failed to post reply",
			"channel_id", channelID,
			"error", err,
		)
	}
}

func (d *Dispatcher) record(ctx context.Context, inv *entity.Invocation) {
	if d.Metrics != nil {
		d.Metrics.RecordCommand(ctx, inv.Command, string(inv.Outcome), inv.Duration)
	}
	if d.Invocations != nil {
		if err := d.Invocations.Save(ctx, inv); err != nil {
			d.Logger.Warn("Failed to save invocation",
				"invocation_id", inv.ID,
				"error", err,
			)
		}
	}

	d.Logger.Info("Command handled",
		"invocation_id", inv.ID,
		"command", inv.Command,
		"requester_id", inv.RequesterID,
		"outcome", inv.Outcome,
		"duration", inv.Duration,
	)
}
