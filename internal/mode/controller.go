// Package mode provides the vehicle Mode Controller.
//
// Only the root entity has a real mode (drive, service or transport).
// Every other entity reports a constant single-option default and rejects
// changes with ErrUnsupported.
package mode

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/nerrad567/sovd-sim/internal/event"
)

// Mode is a coarse operating state of the vehicle.
type Mode string

// Vehicle modes.
const (
	Drive     Mode = "drive"
	Service   Mode = "service"
	Transport Mode = "transport"

	// Default is the only mode of non-root entities.
	Default Mode = "default"
)

// Supported lists the root modes in presentation order.
var Supported = []Mode{Drive, Service, Transport}

// Domain errors for the mode package.
var (
	// ErrUnsupported is returned when setting the mode of a non-root entity.
	ErrUnsupported = errors.New("mode: unsupported for entity")

	// ErrInvalidMode is returned for a mode outside the supported set.
	ErrInvalidMode = errors.New("mode: invalid value")
)

// State is what Get reports for one entity.
type State struct {
	EntityID  string `json:"entity_id"`
	Current   Mode   `json:"current"`
	Supported []Mode `json:"supported"`
}

// EntityChecker validates entity ids.
type EntityChecker interface {
	Check(id string) error
}

// LockValidator checks lock tokens.
type LockValidator interface {
	Validate(entityID, token string) error
}

// Controller holds the single vehicle mode.
//
// All public methods are thread-safe.
type Controller struct {
	mu       sync.RWMutex
	current  Mode
	rootID   string
	entities EntityChecker
	locks    LockValidator
	notifier event.Notifier
}

// NewController creates a controller in Drive mode scoped to rootID.
func NewController(rootID string, entities EntityChecker, locks LockValidator) *Controller {
	return &Controller{
		current:  Drive,
		rootID:   rootID,
		entities: entities,
		locks:    locks,
		notifier: event.Nop{},
	}
}

// SetNotifier sets the receiver of mode.changed events.
func (c *Controller) SetNotifier(n event.Notifier) {
	c.notifier = n
}

// Current returns the vehicle mode.
func (c *Controller) Current() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Get reports the mode of an entity.
func (c *Controller) Get(entityID string) (State, error) {
	if err := c.entities.Check(entityID); err != nil {
		return State{}, err
	}
	if entityID != c.rootID {
		return State{EntityID: entityID, Current: Default, Supported: []Mode{Default}}, nil
	}
	return State{EntityID: entityID, Current: c.Current(), Supported: slices.Clone(Supported)}, nil
}

// Set changes the vehicle mode. Checks run in order: unknown entity,
// non-root entity, lock, mode value.
func (c *Controller) Set(entityID string, m Mode, token string) error {
	if err := c.entities.Check(entityID); err != nil {
		return err
	}
	if entityID != c.rootID {
		return fmt.Errorf("%w: %s", ErrUnsupported, entityID)
	}
	if err := c.locks.Validate(entityID, token); err != nil {
		return err
	}
	return c.Apply(m)
}

// Apply changes the mode without lock or entity checks. It is the write
// path for callers that have already authorised the change.
func (c *Controller) Apply(m Mode) error {
	if !slices.Contains(Supported, m) {
		return fmt.Errorf("%w: %q", ErrInvalidMode, m)
	}

	c.mu.Lock()
	previous := c.current
	c.current = m
	c.mu.Unlock()

	if previous != m {
		c.notifier.Broadcast(event.ChannelModeChanged, map[string]any{
			"entity_id": c.rootID,
			"previous":  string(previous),
			"mode":      string(m),
		})
	}
	return nil
}
