package telemetry

import (
	"context"
	"encoding/json"

	"github.com/nerrad567/sovd-sim/internal/event"
	"github.com/nerrad567/sovd-sim/internal/infrastructure/mqtt"
)

// DefaultQueueSize is the MQTT publish queue length used when none is given.
const DefaultQueueSize = 512

// Logger defines the logging interface used by the telemetry sinks.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Publisher is the subset of *mqtt.Client the publisher needs.
type Publisher interface {
	PublishRetained(topic string, payload []byte) error
	PublishEvent(topic string, payload []byte) error
}

type message struct {
	topic    string
	payload  []byte
	retained bool
}

// MQTTPublisher is an event.Notifier that publishes every event to MQTT.
// Broadcast only enqueues; Run does the network I/O.
type MQTTPublisher struct {
	client Publisher
	topics mqtt.Topics
	queue  chan message
	logger Logger
}

// NewMQTTPublisher creates a publisher for topics.
func NewMQTTPublisher(client Publisher, topics mqtt.Topics, queueSize int) *MQTTPublisher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &MQTTPublisher{
		client: client,
		topics: topics,
		queue:  make(chan message, queueSize),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for dropped or failed publishes.
func (p *MQTTPublisher) SetLogger(logger Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// Broadcast implements event.Notifier.
func (p *MQTTPublisher) Broadcast(channel string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("encoding telemetry payload", "channel", channel, "error", err)
		return
	}

	msg := message{topic: p.topics.Event(channel), payload: body}
	if channel == event.ChannelVehicleObserved {
		msg = message{topic: p.topics.State(), payload: body, retained: true}
	}

	select {
	case p.queue <- msg:
	default:
		p.logger.Warn("mqtt telemetry queue full, dropping message", "topic", msg.topic)
	}
}

// Run publishes queued messages until ctx is cancelled. Messages still
// queued at that point are discarded.
func (p *MQTTPublisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-p.queue:
			p.publish(msg)
		}
	}
}

func (p *MQTTPublisher) publish(msg message) {
	var err error
	if msg.retained {
		err = p.client.PublishRetained(msg.topic, msg.payload)
	} else {
		err = p.client.PublishEvent(msg.topic, msg.payload)
	}
	if err != nil {
		p.logger.Warn("mqtt telemetry publish failed", "topic", msg.topic, "error", err)
	}
}
