// Package influxdb records simulated vehicle state as InfluxDB time series.
//
// It wraps the official influxdb-client-go v2 library: a ping on connect,
// a non-blocking batched write API, and an error callback for failed
// batches.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteVehicleState("democar", state.Metrics(), time.Now())
//
// Each observation becomes one point in the vehicle_state measurement,
// tagged with the vehicle id and carrying one numeric field per metric.
package influxdb
