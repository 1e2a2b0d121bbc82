package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementVehicleState holds one point per state observation.
const MeasurementVehicleState = "vehicle_state"

// WriteVehicleState records one observation of vehicleID. Each entry in
// metrics becomes a float field. Empty metrics are ignored.
func (c *Client) WriteVehicleState(vehicleID string, metrics map[string]float64, ts time.Time) {
	if !c.IsConnected() || len(metrics) == 0 {
		return
	}

	fields := make(map[string]any, len(metrics))
	for k, v := range metrics {
		fields[k] = v
	}
	c.writeAPI.WritePoint(write.NewPoint(
		MeasurementVehicleState,
		map[string]string{"vehicle_id": vehicleID},
		fields,
		ts,
	))
}

// WritePoint writes a custom point with full control over tags and fields.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, ts))
}
