//go:build integration

package mqtt

import (
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Integration tests against a live broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func TestIntegration_ConnectAnnouncesOnline(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "sovdsim-int-online"

	client, err := Connect(cfg, "int-car")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Fatal("IsConnected() = false after Connect")
	}

	got := make(chan []byte, 1)
	sub := subscriber(t, "sovdsim-int-online-sub")
	defer sub.Disconnect(100)
	sub.Subscribe(client.Topics().Status(), 1, func(_ pahomqtt.Client, m pahomqtt.Message) {
		select {
		case got <- m.Payload():
		default:
		}
	}).Wait()

	select {
	case p := <-got:
		if len(p) == 0 {
			t.Error("empty status payload")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no retained status received")
	}
}

func TestIntegration_PublishEvent(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "sovdsim-int-event"

	client, err := Connect(cfg, "int-car")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	var mu sync.Mutex
	var once sync.Once
	var topics []string
	done := make(chan struct{})
	sub := subscriber(t, "sovdsim-int-event-sub")
	defer sub.Disconnect(100)
	sub.Subscribe(client.Topics().AllEvents(), 1, func(_ pahomqtt.Client, m pahomqtt.Message) {
		mu.Lock()
		topics = append(topics, m.Topic())
		mu.Unlock()
		once.Do(func() { close(done) })
	}).Wait()

	if err := client.PublishEvent(client.Topics().Event("mode.changed"), []byte(`{}`)); err != nil {
		t.Fatalf("PublishEvent() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("event not received")
	}
	mu.Lock()
	defer mu.Unlock()
	if topics[0] != "sovdsim/int-car/event/mode.changed" {
		t.Errorf("topic = %q", topics[0])
	}
}

func subscriber(t *testing.T, clientID string) pahomqtt.Client {
	t.Helper()
	opts := pahomqtt.NewClientOptions().AddBroker("tcp://127.0.0.1:1883").SetClientID(clientID)
	c := pahomqtt.NewClient(opts)
	if tok := c.Connect(); !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		t.Fatalf("subscriber connect failed: %v", tok.Error())
	}
	return c
}
