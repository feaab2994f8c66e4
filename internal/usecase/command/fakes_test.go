package command

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
)

type fakeForum struct {
	log         []entity.ModLogEntry
	logErr      error
	queue       []entity.QueueItem
	unmoderated []entity.QueueItem
	hot         []entity.Submission
	hotErr      error
	mods        []string
	modsErr     error
	recentMail  []entity.MailMessage
	recentErr   error
	sendErr     error

	mu       sync.Mutex
	consumed int
	hotLimit int
	sent     []string
	modsOf   string
}

func (f *fakeForum) ModLog(ctx context.Context) iter.Seq2[entity.ModLogEntry, error] {
	return func(yield func(entity.ModLogEntry, error) bool) {
		for _, e := range f.log {
			f.mu.Lock()
			f.consumed++
			f.mu.Unlock()
			if !yield(e, nil) {
				return
			}
		}
		if f.logErr != nil {
			yield(entity.ModLogEntry{}, f.logErr)
		}
	}
}

func (f *fakeForum) ModQueue(ctx context.Context) iter.Seq2[entity.QueueItem, error] {
	return sliceStream(f.queue, nil)
}

func (f *fakeForum) Unmoderated(ctx context.Context) iter.Seq2[entity.QueueItem, error] {
	return sliceStream(f.unmoderated, nil)
}

func (f *fakeForum) Hot(ctx context.Context, limit int) ([]entity.Submission, error) {
	f.hotLimit = limit
	return f.hot, f.hotErr
}

func (f *fakeForum) Moderators(ctx context.Context, community string) ([]string, error) {
	f.modsOf = community
	return f.mods, f.modsErr
}

func (f *fakeForum) SendModmail(ctx context.Context, subject, body string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, subject+"\n"+body)
	return nil
}

func (f *fakeForum) RecentModmail(ctx context.Context, limit int) ([]entity.MailMessage, error) {
	return f.recentMail, f.recentErr
}

func sliceStream[T any](items []T, tail error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, it := range items {
			if !yield(it, nil) {
				return
			}
		}
		if tail != nil {
			var zero T
			yield(zero, tail)
		}
	}
}

func entryAt(now time.Time, moderator, action, target string, age time.Duration) entity.ModLogEntry {
	return entity.ModLogEntry{Moderator: moderator, Action: action, TargetID: target, CreatedAt: now.Add(-age)}
}

type fakePoster struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (p *fakePoster) PostMessage(ctx context.Context, channelID, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, text)
	return p.err
}

func (p *fakePoster) Messages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.messages...)
}

type fakeIdentities map[string]string

func (f fakeIdentities) Lookup(id string) (string, bool) {
	name, ok := f[id]
	return name, ok
}

// fakeFormatter renders plain tokens so tests can assert on reply kinds.
type fakeFormatter struct{}

var _ Formatter = fakeFormatter{}

func (fakeFormatter) Working() string                          { return "working" }
func (fakeFormatter) Render(requester string, _ Result) string { return "result for " + requester }
func (fakeFormatter) Notice(requester, message string) string  { return "notice " + requester + ": " + message }
func (fakeFormatter) Failure(requester, command string) string { return "failure " + requester + " " + command }

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type ackCounter struct{ n int }

func (a *ackCounter) request(args Args) Request {
	return Request{
		RequesterID:   "U1",
		RequesterName: "Alice",
		ChannelID:     "C1",
		Args:          args,
		Ack:           func(context.Context) { a.n++ },
	}
}
