package provisioning

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aldermoor/sentrycam-core/internal/infrastructure/mqtt"
)

const eventBuffer = 16

// MQTTBearer exposes the provisioning phase over the setup topics. It is
// the stand-in for the short-range pairing link: a setup client publishes
// its document on the payload topic, simple commands on the command topic,
// and watches the retained status topic.
type MQTTBearer struct {
	client   *mqtt.Client
	deviceID string
	logger   Logger

	mu      sync.Mutex
	events  chan Event
	started bool
}

// NewMQTTBearer builds a bearer for the given device identity. The client
// must already be connected.
func NewMQTTBearer(client *mqtt.Client, deviceID string, logger Logger) *MQTTBearer {
	if logger == nil {
		logger = noopLogger{}
	}
	return &MQTTBearer{
		client:   client,
		deviceID: deviceID,
		logger:   logger,
		events:   make(chan Event, eventBuffer),
	}
}

// Start subscribes the setup topics. Handlers only enqueue; a full event
// buffer drops the message with a warning rather than blocking paho.
func (b *MQTTBearer) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return nil
	}

	payloadTopic := mqtt.SetupPayloadTopic(b.deviceID)
	if err := b.client.Subscribe(payloadTopic, 1, func(_ string, payload []byte) error {
		b.enqueue(Event{Kind: EventPayload, Payload: payload})
		return nil
	}); err != nil {
		return fmt.Errorf("subscribe %s: %w", payloadTopic, err)
	}

	commandTopic := mqtt.SetupCommandTopic(b.deviceID)
	if err := b.client.Subscribe(commandTopic, 1, func(_ string, payload []byte) error {
		b.handleCommand(string(payload))
		return nil
	}); err != nil {
		return fmt.Errorf("subscribe %s: %w", commandTopic, err)
	}

	b.started = true
	return nil
}

// Stop unsubscribes and closes the event stream.
func (b *MQTTBearer) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return nil
	}
	b.started = false

	_ = b.client.Unsubscribe(mqtt.SetupPayloadTopic(b.deviceID))
	_ = b.client.Unsubscribe(mqtt.SetupCommandTopic(b.deviceID))
	close(b.events)
	return nil
}

// Events returns the inbound event stream.
func (b *MQTTBearer) Events() <-chan Event {
	return b.events
}

// NotifyStatus publishes the status (retained) so a client that connects
// mid-phase still sees the current state.
func (b *MQTTBearer) NotifyStatus(status Status, detail string) error {
	msg := struct {
		Status string `json:"status"`
		Detail string `json:"detail,omitempty"`
	}{Status: string(status), Detail: detail}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	return b.client.Publish(mqtt.SetupStatusTopic(b.deviceID), payload, 1, true)
}

func (b *MQTTBearer) handleCommand(cmd string) {
	switch cmd {
	case "hello":
		b.enqueue(Event{Kind: EventClientConnected})
	default:
		b.logger.Warn("unknown setup command", "command", cmd)
	}
}

func (b *MQTTBearer) enqueue(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return
	}
	select {
	case b.events <- ev:
	default:
		b.logger.Warn("setup event dropped, buffer full", "kind", ev.Kind)
	}
}
