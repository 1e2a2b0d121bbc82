// Package mqtt provides the MQTT connection used to publish simulator
// telemetry.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS and retained flags
//   - Last Will and Testament (LWT) so subscribers see the simulator go offline
//
// All topics live under <prefix>/<vehicle>/:
//
//	sovdsim/democar/status            online/offline (retained, LWT)
//	sovdsim/democar/state             latest physical state (retained)
//	sovdsim/democar/event/<channel>   every other simulation event
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, cfg.Vehicle.ID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishRetained(client.Topics().State(), payload)
package mqtt
