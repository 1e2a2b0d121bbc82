package telemetry

import (
	"time"

	"github.com/nerrad567/sovd-sim/internal/event"
	"github.com/nerrad567/sovd-sim/internal/vehicle"
)

// StateWriter is the subset of *influxdb.Client the recorder needs.
type StateWriter interface {
	WriteVehicleState(vehicleID string, metrics map[string]float64, ts time.Time)
}

// InfluxRecorder is an event.Notifier that writes every state observation
// as a time-series point. Other channels are ignored.
type InfluxRecorder struct {
	writer    StateWriter
	vehicleID string
	now       func() time.Time
}

// NewInfluxRecorder creates a recorder for vehicleID. now defaults to
// time.Now.
func NewInfluxRecorder(writer StateWriter, vehicleID string, now func() time.Time) *InfluxRecorder {
	if now == nil {
		now = time.Now
	}
	return &InfluxRecorder{writer: writer, vehicleID: vehicleID, now: now}
}

// Broadcast implements event.Notifier.
func (r *InfluxRecorder) Broadcast(channel string, payload any) {
	if channel != event.ChannelVehicleObserved {
		return
	}
	state, ok := payload.(vehicle.State)
	if !ok {
		return
	}
	r.writer.WriteVehicleState(r.vehicleID, state.Metrics(), r.now())
}
