package audit

import (
	"context"
	"time"

	"github.com/nerrad567/sovd-sim/internal/event"
)

// DefaultBuffer is the journal queue size used when none is given.
const DefaultBuffer = 256

// flushTimeout bounds the final drain after Run's context is cancelled.
const flushTimeout = 2 * time.Second

// Logger defines the logging interface used by the journal.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// audited lists the channels that describe a state change worth keeping.
// Observations and progress ticks are too chatty.
var audited = map[string]bool{
	event.ChannelResourceWritten:    true,
	event.ChannelLockAcquired:       true,
	event.ChannelLockReleased:       true,
	event.ChannelLockRejected:       true,
	event.ChannelFaultInjected:      true,
	event.ChannelFaultCleared:       true,
	event.ChannelOperationStarted:   true,
	event.ChannelOperationCompleted: true,
	event.ChannelOperationStopped:   true,
	event.ChannelModeChanged:        true,
}

// Audited reports whether events on channel are journalled.
func Audited(channel string) bool {
	return audited[channel]
}

// Journal is an event.Notifier that writes audited events to a Repository.
// Broadcast never blocks: entries are queued and written by Run.
type Journal struct {
	repo   Repository
	queue  chan Entry
	logger Logger
	now    func() time.Time
}

// NewJournal creates a journal with a queue of buffer entries.
func NewJournal(repo Repository, buffer int) *Journal {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Journal{
		repo:   repo,
		queue:  make(chan Entry, buffer),
		logger: noopLogger{},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetLogger sets the logger for dropped or failed writes.
func (j *Journal) SetLogger(logger Logger) {
	if logger != nil {
		j.logger = logger
	}
}

// Broadcast implements event.Notifier.
func (j *Journal) Broadcast(channel string, payload any) {
	if !audited[channel] {
		return
	}
	entry := Entry{Action: channel, CreatedAt: j.now()}
	if m, ok := payload.(map[string]any); ok {
		entry.Details = make(map[string]any, len(m))
		for k, v := range m {
			if k == "entity_id" {
				entry.EntityID, _ = v.(string)
				continue
			}
			entry.Details[k] = v
		}
	}

	select {
	case j.queue <- entry:
	default:
		j.logger.Warn("audit queue full, dropping entry", "action", channel, "entity", entry.EntityID)
	}
}

// Run writes queued entries until ctx is cancelled, then flushes what is
// left in the queue.
func (j *Journal) Run(ctx context.Context) error {
	for {
		select {
		case entry := <-j.queue:
			j.write(ctx, entry)
		case <-ctx.Done():
			j.flush()
			return nil
		}
	}
}

func (j *Journal) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	for {
		select {
		case entry := <-j.queue:
			j.write(ctx, entry)
		default:
			return
		}
	}
}

func (j *Journal) write(ctx context.Context, entry Entry) {
	if err := j.repo.Create(ctx, &entry); err != nil {
		j.logger.Error("writing audit entry", "action", entry.Action, "error", err)
	}
}
