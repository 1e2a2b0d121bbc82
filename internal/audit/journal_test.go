package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/sovd-sim/internal/event"
	"github.com/nerrad567/sovd-sim/internal/vehicle"
)

type memRepo struct {
	mu      sync.Mutex
	entries []Entry
	err     error
}

func (m *memRepo) Create(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memRepo) List(context.Context, Filter) (*ListResult, error) {
	return &ListResult{}, nil
}

func (m *memRepo) snapshot() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

type recordingLogger struct {
	mu    sync.Mutex
	warns int
	errs  int
}

func (l *recordingLogger) Warn(string, ...any) {
	l.mu.Lock()
	l.warns++
	l.mu.Unlock()
}

func (l *recordingLogger) Error(string, ...any) {
	l.mu.Lock()
	l.errs++
	l.mu.Unlock()
}

// runToCompletion cancels first so Run drains the queue and returns.
func runToCompletion(t *testing.T, j *Journal) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := j.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestJournalRecordsMutations(t *testing.T) {
	repo := &memRepo{}
	j := NewJournal(repo, 0)

	payload := map[string]any{"entity_id": "engine", "lease_id": "abc"}
	j.Broadcast(event.ChannelLockAcquired, payload)
	j.Broadcast(event.ChannelVehicleObserved, vehicle.InitialState())
	j.Broadcast(event.ChannelOperationProgress, map[string]any{"entity_id": "engine", "progress": 40})
	j.Broadcast(event.ChannelModeChanged, map[string]any{"entity_id": "vehicle", "mode": "service"})

	runToCompletion(t, j)

	got := repo.snapshot()
	if len(got) != 2 {
		t.Fatalf("recorded %d entries, want 2: %+v", len(got), got)
	}
	if got[0].Action != event.ChannelLockAcquired || got[0].EntityID != "engine" {
		t.Errorf("first entry = %+v", got[0])
	}
	if _, ok := got[0].Details["entity_id"]; ok {
		t.Error("entity_id should be lifted out of details")
	}
	if got[0].Details["lease_id"] != "abc" {
		t.Errorf("details = %v", got[0].Details)
	}
	if _, ok := payload["entity_id"]; !ok {
		t.Error("Broadcast must not modify the shared payload")
	}
	if got[1].Action != event.ChannelModeChanged {
		t.Errorf("second entry action = %q", got[1].Action)
	}
}

func TestJournalDropsWhenFull(t *testing.T) {
	repo := &memRepo{}
	logger := &recordingLogger{}
	j := NewJournal(repo, 2)
	j.SetLogger(logger)

	for range 5 {
		j.Broadcast(event.ChannelFaultCleared, map[string]any{"entity_id": "engine"})
	}
	runToCompletion(t, j)

	if n := len(repo.snapshot()); n != 2 {
		t.Errorf("recorded %d entries, want 2", n)
	}
	if logger.warns != 3 {
		t.Errorf("warnings = %d, want 3", logger.warns)
	}
}

func TestJournalLogsWriteErrors(t *testing.T) {
	repo := &memRepo{err: errors.New("disk full")}
	logger := &recordingLogger{}
	j := NewJournal(repo, 4)
	j.SetLogger(logger)

	j.Broadcast(event.ChannelResourceWritten, map[string]any{"entity_id": "doors"})
	runToCompletion(t, j)

	if logger.errs != 1 {
		t.Errorf("errors logged = %d, want 1", logger.errs)
	}
}

func TestJournalWithSQLite(t *testing.T) {
	repo := openTestRepo(t)
	j := NewJournal(repo, 8)

	j.Broadcast(event.ChannelFaultInjected, map[string]any{"entity_id": "engine", "code": "P0420"})
	runToCompletion(t, j)

	res, err := repo.List(context.Background(), Filter{EntityID: "engine"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 1 || res.Entries[0].Details["code"] != "P0420" {
		t.Errorf("List() = %+v", res)
	}
}

func TestAudited(t *testing.T) {
	if Audited(event.ChannelVehicleObserved) {
		t.Error("observations should not be audited")
	}
	if !Audited(event.ChannelOperationStopped) {
		t.Error("operation.stopped should be audited")
	}
}
