package operation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"github.com/nerrad567/sovd-sim/internal/clock"
	"github.com/nerrad567/sovd-sim/internal/event"
	"github.com/nerrad567/sovd-sim/internal/resource"
)

// Progress defaults.
const (
	DefaultSteps     = 10
	DefaultStepDelay = 500 * time.Millisecond
)

// Logger defines the logging interface used by the Scheduler.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// EntityChecker validates entity ids.
type EntityChecker interface {
	Check(id string) error
}

// LockValidator checks lock tokens.
type LockValidator interface {
	Validate(entityID, token string) error
}

// Config controls progress pacing. Zero values use the defaults.
type Config struct {
	Steps     int
	StepDelay time.Duration
}

type tracked struct {
	op      Operation
	machine *fsm.FSM
	cancel  context.CancelFunc
}

// Scheduler creates and tracks operations.
//
// All public methods are thread-safe. Close must be called to stop
// background goroutines.
type Scheduler struct {
	mu       sync.Mutex
	nextID   int64
	defs     map[string]map[string]Definition
	defOrder map[string][]string
	ops      map[int64]*tracked
	byEntity map[string][]int64

	entities EntityChecker
	locks    LockValidator
	clock    clock.Clock
	cfg      Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	notifier event.Notifier
	logger   Logger
}

// NewScheduler creates a scheduler with no definitions.
func NewScheduler(entities EntityChecker, locks LockValidator, clk clock.Clock, cfg Config) *Scheduler {
	if clk == nil {
		clk = clock.Real{}
	}
	if cfg.Steps <= 0 {
		cfg.Steps = DefaultSteps
	}
	if cfg.StepDelay <= 0 {
		cfg.StepDelay = DefaultStepDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		defs:     make(map[string]map[string]Definition),
		defOrder: make(map[string][]string),
		ops:      make(map[int64]*tracked),
		byEntity: make(map[string][]int64),
		entities: entities,
		locks:    locks,
		clock:    clk,
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
		notifier: event.Nop{},
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the scheduler.
func (s *Scheduler) SetLogger(logger Logger) {
	s.logger = logger
}

// SetNotifier sets the receiver of operation events.
func (s *Scheduler) SetNotifier(n event.Notifier) {
	s.notifier = n
}

// Register adds a definition to an entity.
func (s *Scheduler) Register(entityID string, def Definition) error {
	if err := s.entities.Check(entityID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byName := s.defs[entityID]
	if byName == nil {
		byName = make(map[string]Definition)
		s.defs[entityID] = byName
	}
	if _, dup := byName[def.Name]; dup {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateDefinition, entityID, def.Name)
	}
	byName[def.Name] = def
	s.defOrder[entityID] = append(s.defOrder[entityID], def.Name)
	return nil
}

// Definitions lists the operations an entity offers, in registration order.
func (s *Scheduler) Definitions(entityID string) ([]Info, error) {
	if err := s.entities.Check(entityID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Info, 0, len(s.defOrder[entityID]))
	for _, name := range s.defOrder[entityID] {
		out = append(out, s.defs[entityID][name].info())
	}
	return out, nil
}

// Start launches an operation and returns it in the running state. The
// synchronous effect has already been applied when Start returns.
func (s *Scheduler) Start(entityID, name string, params map[string]any, token string) (Operation, error) {
	if err := s.entities.Check(entityID); err != nil {
		return Operation{}, err
	}

	s.mu.Lock()
	def, ok := s.defs[entityID][name]
	s.mu.Unlock()
	if !ok {
		return Operation{}, fmt.Errorf("%w: %s/%s", ErrUnknownOperation, entityID, name)
	}

	if def.Privileged {
		if err := s.locks.Validate(entityID, token); err != nil {
			return Operation{}, err
		}
	}

	normalized, err := normalizeParams(def, params)
	if err != nil {
		return Operation{}, err
	}

	if def.Apply != nil {
		def.Apply(normalized)
	}

	s.mu.Lock()
	s.nextID++
	t := &tracked{op: Operation{
		ID:         s.nextID,
		EntityID:   entityID,
		Name:       name,
		Parameters: normalized,
		Status:     StatusRunning,
		StartedAt:  s.clock.Now(),
	}}
	t.machine = newMachine(t)
	ctx, cancel := context.WithCancel(s.ctx)
	t.cancel = cancel
	s.ops[t.op.ID] = t
	s.byEntity[entityID] = append(s.byEntity[entityID], t.op.ID)
	snap := t.op.clone()

	s.wg.Add(1)
	go s.advance(ctx, t)
	if def.Background != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			def.Background(s.ctx)
		}()
	}
	s.mu.Unlock()

	s.logger.Info("operation started", "id", snap.ID, "entity", entityID, "name", name)
	s.notifier.Broadcast(event.ChannelOperationStarted, payload(snap))
	return snap, nil
}

// Get returns an operation by id.
func (s *Scheduler) Get(id int64) (Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.ops[id]
	if !ok {
		return Operation{}, fmt.Errorf("%w: %d", ErrOperationNotFound, id)
	}
	return t.op.clone(), nil
}

// List returns the entity's operations in start order, whatever their
// status.
func (s *Scheduler) List(entityID string) ([]Operation, error) {
	if err := s.entities.Check(entityID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.byEntity[entityID]
	out := make([]Operation, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.ops[id].op.clone())
	}
	return out, nil
}

// Stop halts a running operation. The token must hold a valid lock on the
// operation's entity. Stopping a completed or stopped operation succeeds
// without changing it.
func (s *Scheduler) Stop(id int64, token string) (Operation, error) {
	s.mu.Lock()
	t, ok := s.ops[id]
	var entityID string
	if ok {
		entityID = t.op.EntityID
	}
	s.mu.Unlock()
	if !ok {
		return Operation{}, fmt.Errorf("%w: %d", ErrOperationNotFound, id)
	}

	if err := s.locks.Validate(entityID, token); err != nil {
		return Operation{}, err
	}

	s.mu.Lock()
	if !t.machine.Can(eventStop) {
		snap := t.op.clone()
		s.mu.Unlock()
		return snap, nil
	}
	if err := t.machine.Event(context.Background(), eventStop); err != nil {
		s.mu.Unlock()
		return Operation{}, fmt.Errorf("stopping operation %d: %w", id, err)
	}
	now := s.clock.Now()
	t.op.FinishedAt = &now
	t.cancel()
	snap := t.op.clone()
	s.mu.Unlock()

	s.logger.Info("operation stopped", "id", id, "entity", entityID, "progress", snap.Progress)
	s.notifier.Broadcast(event.ChannelOperationStopped, payload(snap))
	return snap, nil
}

// Close cancels every background goroutine and waits for them to exit.
func (s *Scheduler) Close() {
	s.cancel()
	s.wg.Wait()
}

// advance is the progress task of one operation.
func (s *Scheduler) advance(ctx context.Context, t *tracked) {
	defer s.wg.Done()

	for step := 1; step <= s.cfg.Steps; step++ {
		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(s.cfg.StepDelay):
		}

		s.mu.Lock()
		if t.op.Status != StatusRunning {
			s.mu.Unlock()
			return
		}
		t.op.Progress = step * 100 / s.cfg.Steps
		channel := event.ChannelOperationProgress
		if step == s.cfg.Steps {
			if err := t.machine.Event(context.Background(), eventComplete); err != nil {
				s.mu.Unlock()
				s.logger.Error("completing operation", "id", t.op.ID, "error", err)
				return
			}
			now := s.clock.Now()
			t.op.FinishedAt = &now
			channel = event.ChannelOperationCompleted
		}
		snap := t.op.clone()
		s.mu.Unlock()

		s.notifier.Broadcast(channel, payload(snap))
	}

	s.logger.Debug("operation completed", "id", t.op.ID)
}

func normalizeParams(def Definition, params map[string]any) (map[string]any, error) {
	if len(def.Parameters) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(def.Parameters))
	for _, p := range def.Parameters {
		raw, ok := params[p.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s is required", ErrInvalidParameter, p.Name)
		}
		v, err := resource.Normalize(p, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
		}
		out[p.Name] = v
	}
	return out, nil
}

func payload(op Operation) map[string]any {
	return map[string]any{
		"id":        op.ID,
		"entity_id": op.EntityID,
		"name":      op.Name,
		"status":    string(op.Status),
		"progress":  op.Progress,
	}
}
