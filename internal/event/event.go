// Package event carries simulation notifications from the core components
// to the outer consumers (websocket hub, telemetry, metrics, audit journal).
//
// Components publish through a Notifier; consumers implement it. Payloads are
// plain JSON-friendly maps except for ChannelVehicleObserved, whose payload is
// a vehicle.State snapshot.
package event

import "sync"

// Channel names published by the simulation core.
const (
	ChannelVehicleObserved    = "vehicle.observed"
	ChannelResourceWritten    = "resource.written"
	ChannelLockAcquired       = "lock.acquired"
	ChannelLockReleased       = "lock.released"
	ChannelLockRejected       = "lock.rejected"
	ChannelFaultInjected      = "fault.injected"
	ChannelFaultCleared       = "fault.cleared"
	ChannelOperationStarted   = "operation.started"
	ChannelOperationProgress  = "operation.progress"
	ChannelOperationCompleted = "operation.completed"
	ChannelOperationStopped   = "operation.stopped"
	ChannelModeChanged        = "mode.changed"
)

// Notifier receives simulation events. Implementations must not block.
type Notifier interface {
	Broadcast(channel string, payload any)
}

// Nop discards every event.
type Nop struct{}

// Broadcast implements Notifier.
func (Nop) Broadcast(string, any) {}

// Fanout dispatches each event to every registered notifier in
// registration order.
type Fanout struct {
	mu        sync.RWMutex
	notifiers []Notifier
}

// NewFanout creates a Fanout with the given initial notifiers.
// Nil entries are skipped.
func NewFanout(notifiers ...Notifier) *Fanout {
	f := &Fanout{}
	for _, n := range notifiers {
		f.Add(n)
	}
	return f
}

// Add registers another notifier.
func (f *Fanout) Add(n Notifier) {
	if n == nil {
		return
	}
	f.mu.Lock()
	f.notifiers = append(f.notifiers, n)
	f.mu.Unlock()
}

// Broadcast implements Notifier.
func (f *Fanout) Broadcast(channel string, payload any) {
	f.mu.RLock()
	notifiers := f.notifiers
	f.mu.RUnlock()
	for _, n := range notifiers {
		n.Broadcast(channel, payload)
	}
}
