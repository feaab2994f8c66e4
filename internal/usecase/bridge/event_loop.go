package bridge

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
	domainerrors "github.com/qj0r9j0vc2/modlog-bridge/internal/domain/errors"
)

// DefaultPacing is the delay after each dispatched event.
const DefaultPacing = time.Second

// Refresher keeps the forum credential fresh.
type Refresher interface {
	// Refresh renews the access token if needed and reports whether a usable token
	// is held afterwards.
	Refresh(ctx context.Context) bool
	// Invalidate marks the current access token as rejected.
	Invalidate()
}

// EventSource delivers chat events one at a time. A nil event with a nil error
// means nothing arrived before the read timed out.
type EventSource interface {
	ReadNextEvent(ctx context.Context) (*entity.ChatEvent, error)
}

// Dispatcher handles one actionable event. It returns an error wrapping
// ErrCredentialRejected when the forum refused the credential.
type Dispatcher interface {
	Dispatch(ctx context.Context, event *entity.ChatEvent) error
}

// ChatPoster posts a text message to a chat channel.
type ChatPoster interface {
	PostMessage(ctx context.Context, channelID, text string) error
}

// AuthNotifier renders the message posted when credential recovery fails.
type AuthNotifier interface {
	AuthProblem() string
}

// EventMetrics records chat traffic seen by the loop.
type EventMetrics interface {
	RecordChatEvent(ctx context.Context, actionable bool)
	RecordAuthRecovery(ctx context.Context, ok bool)
}

// Logger defines the contract for logging within use cases.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// EventLoop reads chat events and dispatches them strictly one at a time.
type EventLoop struct {
	refresher  Refresher
	source     EventSource
	dispatcher Dispatcher
	poster     ChatPoster
	notifier   AuthNotifier
	metrics    EventMetrics
	logger     Logger

	pacing atomic.Int64
	sleep  func(ctx context.Context, d time.Duration)
}

// NewEventLoop creates an EventLoop with DefaultPacing. metrics may be nil.
func NewEventLoop(
	refresher Refresher,
	source EventSource,
	dispatcher Dispatcher,
	poster ChatPoster,
	notifier AuthNotifier,
	metrics EventMetrics,
	logger Logger,
) *EventLoop {
	l := &EventLoop{
		refresher:  refresher,
		source:     source,
		dispatcher: dispatcher,
		poster:     poster,
		notifier:   notifier,
		metrics:    metrics,
		logger:     logger,
		sleep:      sleepContext,
	}
	l.pacing.Store(int64(DefaultPacing))
	return l
}

// SetPacing changes the post-dispatch delay. It may be called while Run is active.
func (l *EventLoop) SetPacing(d time.Duration) {
	if d < 0 {
		d = 0
	}
	l.pacing.Store(int64(d))
}

// Pacing returns the current post-dispatch delay.
func (l *EventLoop) Pacing() time.Duration {
	return time.Duration(l.pacing.Load())
}

// Run loops until ctx is cancelled. Errors from individual iterations never stop it.
func (l *EventLoop) Run(ctx context.Context) error {
	l.logger.Info("Event loop started", "pacing", l.Pacing())
	for {
		if ctx.Err() != nil {
			l.logger.Info("Event loop stopped")
			return nil
		}
		l.iterate(ctx)
	}
}

func (l *EventLoop) iterate(ctx context.Context) {
	// Runs every iteration; a no-op while the token is fresh.
	if !l.refresher.Refresh(ctx) {
		l.logger.Warn("Forum credential refresh failed, keeping last known token")
	}

	event, err := l.source.ReadNextEvent(ctx)
	if err != nil {
		if ctx.Err() == nil {
			l.logger.Warn("Failed to read chat event", "error", err)
		}
		return
	}
	if event == nil {
		return
	}

	actionable := event.IsActionable()
	if l.metrics != nil {
		l.metrics.RecordChatEvent(ctx, actionable)
	}
	if !actionable {
		return
	}

	if err := l.dispatcher.Dispatch(ctx, event); err != nil {
		l.recoverAuth(ctx, event, err)
	}

	l.sleep(ctx, l.Pacing())
}

// recoverAuth handles a dispatch failure. Only credential rejection reaches here; it
// gets exactly one refresh, and the command is not retried.
func (l *EventLoop) recoverAuth(ctx context.Context, event *entity.ChatEvent, err error) {
	if !domainerrors.IsCredentialRejected(err) {
		l.logger.Error("Unexpected dispatch error", "channel_id", event.ChannelID, "error", err)
		return
	}

	l.refresher.Invalidate()
	ok := l.refresher.Refresh(ctx)
	if l.metrics != nil {
		l.metrics.RecordAuthRecovery(ctx, ok)
	}
	if ok {
		l.logger.Info("Forum credential renewed after rejection", "error", err)
		return
	}

	l.logger.Error("Forum credential recovery failed", "error", err)
	if perr := l.poster.PostMessage(ctx, event.ChannelID, l.notifier.AuthProblem()); perr != nil {
		l.logger.Error("Failed to post authentication notice",
			"channel_id", event.ChannelID,
			"error", perr,
		)
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
