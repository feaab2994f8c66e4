package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
	domainerrors "github.com/qj0r9j0vc2/modlog-bridge/internal/domain/errors"
)

type fakeRefresher struct {
	results     []bool
	calls       int
	invalidated int
}

func (r *fakeRefresher) Refresh(context.Context) bool {
	r.calls++
	if len(r.results) == 0 {
		return true
	}
	ok := r.results[0]
	r.results = r.results[1:]
	return ok
}

func (r *fakeRefresher) Invalidate() { r.invalidated++ }

type fakeSource struct {
	events []*entity.ChatEvent
	err    error
}

func (s *fakeSource) ReadNextEvent(ctx context.Context) (*entity.ChatEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.events) == 0 {
		return nil, nil
	}
	e := s.events[0]
	s.events = s.events[1:]
	return e, nil
}

type fakeDispatcher struct {
	err        error
	dispatched []*entity.ChatEvent
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, event *entity.ChatEvent) error {
	d.dispatched = append(d.dispatched, event)
	return d.err
}

type fakePoster struct {
	mu       sync.Mutex
	errs     []error
	messages []string
}

func (p *fakePoster) PostMessage(ctx context.Context, channelID, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, channelID+":"+text)
	if len(p.errs) == 0 {
		return nil
	}
	err := p.errs[0]
	p.errs = p.errs[1:]
	return err
}

type authText struct{}

func (authText) AuthProblem() string { return "auth problem" }

type fakeEventMetrics struct {
	actionable, ignored int
	recoveries          []bool
}

func (m *fakeEventMetrics) RecordChatEvent(_ context.Context, actionable bool) {
	if actionable {
		m.actionable++
	} else {
		m.ignored++
	}
}

func (m *fakeEventMetrics) RecordAuthRecovery(_ context.Context, ok bool) {
	m.recoveries = append(m.recoveries, ok)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type loopFixture struct {
	loop       *EventLoop
	refresher  *fakeRefresher
	source     *fakeSource
	dispatcher *fakeDispatcher
	poster     *fakePoster
	metrics    *fakeEventMetrics
	slept      []time.Duration
}

func newLoopFixture(events ...*entity.ChatEvent) *loopFixture {
	f := &loopFixture{
		refresher:  &fakeRefresher{},
		source:     &fakeSource{events: events},
		dispatcher: &fakeDispatcher{},
		poster:     &fakePoster{},
		metrics:    &fakeEventMetrics{},
	}
	f.loop = NewEventLoop(f.refresher, f.source, f.dispatcher, f.poster, authText{}, f.metrics, noopLogger{})
	f.loop.sleep = func(_ context.Context, d time.Duration) { f.slept = append(f.slept, d) }
	return f
}

func chatMessage(text string) *entity.ChatEvent {
	return &entity.ChatEvent{Type: entity.EventTypeMessage, ChannelID: "C1", SenderID: "U1", Text: text}
}

func TestEventLoop_DispatchesActionableEventsAndPaces(t *testing.T) {
	edit := chatMessage("~modque")
	edit.SubType = "message_changed"
	f := newLoopFixture(chatMessage("~modque"), edit, nil)
	f.loop.SetPacing(2 * time.Second)

	ctx := context.Background()
	for range 3 {
		f.loop.iterate(ctx)
	}

	assert.Len(t, f.dispatcher.dispatched, 1)
	assert.Equal(t, []time.Duration{2 * time.Second}, f.slept, "pacing follows dispatch only")
	assert.Equal(t, 1, f.metrics.actionable)
	assert.Equal(t, 1, f.metrics.ignored)
	assert.Equal(t, 3, f.refresher.calls, "refresh is checked every iteration")
}

func TestEventLoop_RefreshFailureDoesNotStopLoop(t *testing.T) {
	f := newLoopFixture(chatMessage("~modque"))
	f.refresher.results = []bool{false}

	f.loop.iterate(context.Background())
	assert.Len(t, f.dispatcher.dispatched, 1)
}

func TestEventLoop_AuthRecoverySucceeds(t *testing.T) {
	f := newLoopFixture(chatMessage("~modque"))
	f.dispatcher.err = fmt.Errorf("queue_count: %w", domainerrors.ErrCredentialRejected)
	f.refresher.results = []bool{true, true}

	f.loop.iterate(context.Background())

	assert.Equal(t, 1, f.refresher.invalidated)
	assert.Equal(t, 2, f.refresher.calls)
	assert.Empty(t, f.poster.messages, "no auth notice when the refresh recovers")
	assert.Equal(t, []bool{true}, f.metrics.recoveries)
	assert.Len(t, f.dispatcher.dispatched, 1, "the command is not retried")
}

func TestEventLoop_AuthRecoveryFails(t *testing.T) {
	f := newLoopFixture(chatMessage("~modque"))
	f.dispatcher.err = fmt.Errorf("queue_count: %w", domainerrors.ErrCredentialRejected)
	f.refresher.results = []bool{true, false}

	f.loop.iterate(context.Background())

	assert.Equal(t, []string{"C1:auth problem"}, f.poster.messages)
	assert.Equal(t, []bool{false}, f.metrics.recoveries)
	assert.Len(t, f.slept, 1)
}

func TestEventLoop_OtherDispatchErrorsAreLogged(t *testing.T) {
	f := newLoopFixture(chatMessage("~modque"))
	f.dispatcher.err = errors.New("unexpected")

	f.loop.iterate(context.Background())

	assert.Zero(t, f.refresher.invalidated)
	assert.Empty(t, f.poster.messages)
}

func TestEventLoop_ReadErrorSkipsIteration(t *testing.T) {
	f := newLoopFixture()
	f.source.err = errors.New("socket closed")

	f.loop.iterate(context.Background())
	assert.Empty(t, f.dispatcher.dispatched)
	assert.Empty(t, f.slept)
}

func TestEventLoop_RunStopsOnCancel(t *testing.T) {
	f := newLoopFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, f.loop.Run(ctx))
}

func TestEventLoop_SetPacing(t *testing.T) {
	f := newLoopFixture()
	assert.Equal(t, DefaultPacing, f.loop.Pacing())

	f.loop.SetPacing(-time.Second)
	assert.Zero(t, f.loop.Pacing())
}

func TestIdentityCache(t *testing.T) {
	cache := NewIdentityCache([]entity.Identity{
		{ID: "U1", DisplayName: "alice"},
		{ID: "U2", DisplayName: ""},
		{ID: "", DisplayName: "ghost"},
		{ID: "U1", DisplayName: "alice2"},
	})

	name, ok := cache.Lookup("U1")
	assert.True(t, ok)
	assert.Equal(t, "alice2", name)

	_, ok = cache.Lookup("U2")
	assert.False(t, ok)
	assert.Equal(t, 1, cache.Len())
}

func TestRetryablePoster(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond, Multiplier: 2}
	transient := domainerrors.NewTransientError("rate limited", errors.New("429"))

	t.Run("retries transient failures", func(t *testing.T) {
		inner := &fakePoster{errs: []error{transient, nil}}
		err := NewRetryablePoster(inner, policy, noopLogger{}).PostMessage(context.Background(), "C1", "hi")
		require.NoError(t, err)
		assert.Len(t, inner.messages, 2)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		inner := &fakePoster{errs: []error{transient, transient, transient, transient}}
		err := NewRetryablePoster(inner, policy, noopLogger{}).PostMessage(context.Background(), "C1", "hi")
		assert.True(t, domainerrors.IsTransientError(err))
		assert.Len(t, inner.messages, 3)
	})

	t.Run("permanent errors are not retried", func(t *testing.T) {
		inner := &fakePoster{errs: []error{domainerrors.NewPermanentError("channel_not_found", nil)}}
		err := NewRetryablePoster(inner, policy, noopLogger{}).PostMessage(context.Background(), "C1", "hi")
		assert.Error(t, err)
		assert.Len(t, inner.messages, 1)
	})
}

func TestCalculateBackoff_CapsAtMax(t *testing.T) {
	r := NewRetryablePoster(&fakePoster{}, RetryPolicy{
		MaxAttempts: 10, InitialInterval: time.Second, MaxInterval: 3 * time.Second, Multiplier: 2,
	}, noopLogger{})

	assert.Equal(t, time.Second, r.calculateBackoff(1))
	assert.Equal(t, 2*time.Second, r.calculateBackoff(2))
	assert.Equal(t, 3*time.Second, r.calculateBackoff(5))
}
