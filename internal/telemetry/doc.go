// Package telemetry forwards simulation events to external sinks.
//
// MQTTPublisher mirrors the event stream onto broker topics, with the latest
// physical state retained. InfluxRecorder stores each state observation as a
// time-series point. Both implement event.Notifier and are attached with
// Engine.Subscribe.
package telemetry
