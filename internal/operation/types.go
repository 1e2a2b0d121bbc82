package operation

import (
	"context"
	"maps"
	"time"

	"github.com/nerrad567/sovd-sim/internal/resource"
)

// Status is the lifecycle state of an operation.
type Status string

// Operation statuses.
const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusStopped   Status = "stopped"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusStopped
}

// Operation is one execution of a definition.
type Operation struct {
	ID         int64          `json:"id"`
	EntityID   string         `json:"entity_id"`
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Status     Status         `json:"status"`
	Progress   int            `json:"progress"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

func (o Operation) clone() Operation {
	o.Parameters = maps.Clone(o.Parameters)
	if o.FinishedAt != nil {
		t := *o.FinishedAt
		o.FinishedAt = &t
	}
	return o
}

// Definition describes an operation an entity offers.
type Definition struct {
	Name        string
	Description string

	// Privileged operations need a valid lock on the entity to start.
	Privileged bool

	// Parameters lists the required start parameters. Each is validated
	// with resource.Normalize; keys not listed here are ignored.
	Parameters []resource.Descriptor

	// Apply is the synchronous effect, run before Start returns.
	Apply func(params map[string]any)

	// Background, if set, runs in its own goroutine for the lifetime of
	// the scheduler, independent of progress reporting and stop.
	Background func(ctx context.Context)
}

// Info is the public description of a definition.
type Info struct {
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Privileged  bool                  `json:"privileged"`
	Parameters  []resource.Descriptor `json:"parameters,omitempty"`
}

func (d Definition) info() Info {
	return Info{
		Name:        d.Name,
		Description: d.Description,
		Privileged:  d.Privileged,
		Parameters:  append([]resource.Descriptor(nil), d.Parameters...),
	}
}
