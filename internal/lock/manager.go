// Package lock implements per-entity exclusive leases.
//
// Acquire always succeeds for a known entity: it mints a fresh token and
// replaces any previous lease, so the last valid token wins. Expiry is lazy;
// a lease past its deadline is treated as absent and removed on next touch.
package lock

import (
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/sovd-sim/internal/clock"
	"github.com/nerrad567/sovd-sim/internal/event"
)

// DefaultMaxTTL bounds lease duration when no maximum is configured.
const DefaultMaxTTL = time.Hour

// Logger defines the logging interface used by the Manager.
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

// Lease is a granted lock. Token is only ever handed to the acquirer.
type Lease struct {
	ID         string    `json:"id"`
	EntityID   string    `json:"entity_id"`
	Token      string    `json:"token"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Info describes a live lease without its token.
type Info struct {
	ID               string    `json:"id"`
	EntityID         string    `json:"entity_id"`
	AcquiredAt       time.Time `json:"acquired_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	RemainingSeconds int       `json:"remaining_seconds"`
}

// Manager holds at most one lease per entity.
//
// All public methods are thread-safe.
type Manager struct {
	mu       sync.Mutex
	leases   map[string]Lease
	entities EntityChecker
	clock    clock.Clock
	maxTTL   time.Duration
	notifier event.Notifier
	logger   Logger
}

// NewManager creates a lock manager. A nil clock uses wall time; a
// non-positive maxTTL uses DefaultMaxTTL.
func NewManager(entities EntityChecker, clk clock.Clock, maxTTL time.Duration) *Manager {
	if clk == nil {
		clk = clock.Real{}
	}
	if maxTTL <= 0 {
		maxTTL = DefaultMaxTTL
	}
	return &Manager{
		leases:   make(map[string]Lease),
		entities: entities,
		clock:    clk,
		maxTTL:   maxTTL,
		notifier: event.Nop{},
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// SetNotifier sets the receiver of lock events.
func (m *Manager) SetNotifier(n event.Notifier) {
	m.notifier = n
}

// MaxTTL returns the longest lease the manager will grant.
func (m *Manager) MaxTTL() time.Duration {
	return m.maxTTL
}

// AcquireSeconds is Acquire with a TTL in whole seconds. The range is
// checked before conversion so huge values cannot wrap into a valid Duration.
func (m *Manager) AcquireSeconds(entityID string, seconds int64) (Lease, error) {
	if seconds < 1 || seconds > int64(m.maxTTL/time.Second) {
		if err := m.entities.Check(entityID); err != nil {
			return Lease{}, err
		}
		return Lease{}, fmt.Errorf("%w: %ds not in [1s, %s]", ErrInvalidTTL, seconds, m.maxTTL)
	}
	return m.Acquire(entityID, time.Duration(seconds)*time.Second)
}

// Acquire grants a new lease on entityID valid for ttl, replacing any
// existing lease. The previous token stops validating immediately.
func (m *Manager) Acquire(entityID string, ttl time.Duration) (Lease, error) {
	if err := m.entities.Check(entityID); err != nil {
		return Lease{}, err
	}
	if ttl < time.Second || ttl > m.maxTTL {
		return Lease{}, fmt.Errorf("%w: %s not in [1s, %s]", ErrInvalidTTL, ttl, m.maxTTL)
	}

	now := m.clock.Now()
	lease := Lease{
		ID:         uuid.NewString(),
		EntityID:   entityID,
		Token:      uuid.NewString(),
		AcquiredAt: now,
		ExpiresAt:  now.Add(ttl),
	}

	m.mu.Lock()
	_, replaced := m.leases[entityID]
	m.leases[entityID] = lease
	m.mu.Unlock()

	m.logger.Info("lock acquired", "entity", entityID, "lease_id", lease.ID, "ttl", ttl, "replaced", replaced)
	m.notifier.Broadcast(event.ChannelLockAcquired, map[string]any{
		"entity_id":  entityID,
		"lease_id":   lease.ID,
		"expires_at": lease.ExpiresAt,
		"replaced":   replaced,
	})
	return lease, nil
}

// Validate checks that token holds a live lease on entityID.
// Returns ErrLockRequired otherwise.
func (m *Manager) Validate(entityID, token string) error {
	if err := m.entities.Check(entityID); err != nil {
		return err
	}

	m.mu.Lock()
	ok := m.validLocked(entityID, token)
	m.mu.Unlock()

	if !ok {
		m.logger.Debug("lock rejected", "entity", entityID, "token_present", token != "")
		m.notifier.Broadcast(event.ChannelLockRejected, map[string]any{"entity_id": entityID})
		return fmt.Errorf("%w: %s", ErrLockRequired, entityID)
	}
	return nil
}

// Release drops the lease on entityID if token is valid for it.
func (m *Manager) Release(entityID, token string) error {
	if err := m.entities.Check(entityID); err != nil {
		return err
	}

	m.mu.Lock()
	lease, ok := m.leases[entityID]
	valid := m.validLocked(entityID, token)
	if valid {
		delete(m.leases, entityID)
	}
	m.mu.Unlock()

	if !valid {
		m.notifier.Broadcast(event.ChannelLockRejected, map[string]any{"entity_id": entityID})
		return fmt.Errorf("%w: %s", ErrLockRequired, entityID)
	}

	if ok {
		m.logger.Info("lock released", "entity", entityID, "lease_id", lease.ID)
		m.notifier.Broadcast(event.ChannelLockReleased, map[string]any{
			"entity_id": entityID,
			"lease_id":  lease.ID,
		})
	}
	return nil
}

// Get returns the live lease on entityID, if any.
func (m *Manager) Get(entityID string) (Info, bool, error) {
	if err := m.entities.Check(entityID); err != nil {
		return Info{}, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	lease, ok := m.leases[entityID]
	if !ok {
		return Info{}, false, nil
	}
	now := m.clock.Now()
	if !now.Before(lease.ExpiresAt) {
		delete(m.leases, entityID)
		return Info{}, false, nil
	}
	return Info{
		ID:               lease.ID,
		EntityID:         lease.EntityID,
		AcquiredAt:       lease.AcquiredAt,
		ExpiresAt:        lease.ExpiresAt,
		RemainingSeconds: int(lease.ExpiresAt.Sub(now).Seconds()),
	}, true, nil
}

// validLocked reports whether token holds a live lease, dropping expired
// leases on the way. Caller must hold m.mu.
func (m *Manager) validLocked(entityID, token string) bool {
	lease, ok := m.leases[entityID]
	if !ok {
		return false
	}
	if !m.clock.Now().Before(lease.ExpiresAt) {
		delete(m.leases, entityID)
		return false
	}
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(lease.Token), []byte(token)) == 1
}
