// Package fault provides the per-entity Fault Store.
//
// Faults are seeded at startup and may be appended by spontaneous
// injection: every List call on the injection entity has probability p of
// recording one new active fault drawn from a fixed code pool. Clearing is
// lock-gated and always empties the whole list.
package fault

import (
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/sovd-sim/internal/clock"
	"github.com/nerrad567/sovd-sim/internal/event"
	"github.com/nerrad567/sovd-sim/internal/vehicle"
)

// DefaultProbability is the per-listing injection chance.
const DefaultProbability = 0.05

// Status is the lifecycle state of a fault.
type Status string

// Fault statuses.
const (
	StatusStored Status = "stored"
	StatusActive Status = "active"
)

// Record is one diagnostic trouble code held against an entity.
type Record struct {
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	DetectedAt  time.Time `json:"detected_at"`
}

// Template is a code/description pair injection can draw from.
type Template struct {
	Code        string
	Description string
}

// DefaultPool is the set of spontaneous engine faults.
var DefaultPool = []Template{
	{Code: "P0300", Description: "Random/multiple cylinder misfire detected"},
	{Code: "P0217", Description: "Engine coolant over temperature condition"},
	{Code: "P0128", Description: "Coolant thermostat below regulating temperature"},
	{Code: "P0171", Description: "System too lean (bank 1)"},
	{Code: "P0562", Description: "System voltage low"},
}

// Injection configures spontaneous fault occurrence.
type Injection struct {
	EntityID    string
	Probability float64
	Pool        []Template
}

// EntityChecker validates entity ids.
type EntityChecker interface {
	Check(id string) error
}

// LockValidator checks lock tokens.
type LockValidator interface {
	Validate(entityID, token string) error
}

// Store holds fault records per entity.
//
// All public methods are thread-safe.
type Store struct {
	mu        sync.Mutex
	faults    map[string][]Record
	entities  EntityChecker
	locks     LockValidator
	src       vehicle.Source
	clock     clock.Clock
	injection Injection
	notifier  event.Notifier
}

// NewStore creates an empty fault store. An Injection with an empty pool
// uses DefaultPool.
func NewStore(entities EntityChecker, locks LockValidator, src vehicle.Source, clk clock.Clock, inj Injection) *Store {
	if clk == nil {
		clk = clock.Real{}
	}
	if len(inj.Pool) == 0 {
		inj.Pool = DefaultPool
	}
	return &Store{
		faults:    make(map[string][]Record),
		entities:  entities,
		locks:     locks,
		src:       src,
		clock:     clk,
		injection: inj,
		notifier:  event.Nop{},
	}
}

// SetNotifier sets the receiver of fault events.
func (s *Store) SetNotifier(n event.Notifier) {
	s.notifier = n
}

// Seed appends a record to an entity's list. Zero DetectedAt is set to now.
func (s *Store) Seed(entityID string, r Record) error {
	if err := s.entities.Check(entityID); err != nil {
		return err
	}
	if r.DetectedAt.IsZero() {
		r.DetectedAt = s.clock.Now()
	}
	s.mu.Lock()
	s.faults[entityID] = append(s.faults[entityID], r)
	s.mu.Unlock()
	return nil
}

// List returns the entity's faults in detection order, possibly after
// recording one injected fault.
func (s *Store) List(entityID string) ([]Record, error) {
	if err := s.entities.Check(entityID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	injected, ok := s.maybeInjectLocked(entityID)
	out := append([]Record(nil), s.faults[entityID]...)
	s.mu.Unlock()

	if ok {
		s.notifier.Broadcast(event.ChannelFaultInjected, map[string]any{
			"entity_id": entityID,
			"code":      injected.Code,
		})
	}
	if out == nil {
		out = []Record{}
	}
	return out, nil
}

// Clear empties the entity's fault list. A valid lock is required.
func (s *Store) Clear(entityID, token string) error {
	if err := s.entities.Check(entityID); err != nil {
		return err
	}
	if err := s.locks.Validate(entityID, token); err != nil {
		return err
	}

	s.mu.Lock()
	n := len(s.faults[entityID])
	delete(s.faults, entityID)
	s.mu.Unlock()

	s.notifier.Broadcast(event.ChannelFaultCleared, map[string]any{
		"entity_id": entityID,
		"cleared":   n,
	})
	return nil
}

// maybeInjectLocked performs one injection trial. Caller must hold s.mu.
func (s *Store) maybeInjectLocked(entityID string) (Record, bool) {
	inj := s.injection
	if entityID != inj.EntityID || inj.Probability <= 0 {
		return Record{}, false
	}
	if s.src.Float64() >= inj.Probability {
		return Record{}, false
	}
	t := inj.Pool[s.src.IntN(len(inj.Pool))]
	r := Record{
		Code:        t.Code,
		Description: t.Description,
		Status:      StatusActive,
		DetectedAt:  s.clock.Now(),
	}
	s.faults[entityID] = append(s.faults[entityID], r)
	return r, true
}

// String implements fmt.Stringer for log output.
func (r Record) String() string {
	return fmt.Sprintf("%s(%s)", r.Code, r.Status)
}
