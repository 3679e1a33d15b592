// Package chat receives inbound chat traffic for the device. Like the
// provisioning bearer, the MQTT source only enqueues typed events; the
// lifecycle loop is the sole consumer.
package chat

import (
	"fmt"
	"sync"

	"github.com/aldermoor/sentrycam-core/internal/infrastructure/mqtt"
)

const eventBuffer = 32

// Event is one inbound chat message.
type Event struct {
	Endpoint string
	Text     string
}

// Source delivers inbound chat messages as events.
type Source interface {
	Start() error
	Stop() error
	Events() <-chan Event
}

// Logger is the narrow logging surface the source needs.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// MQTTSource subscribes the chat inbound wildcard and surfaces each
// message with the endpoint extracted from its topic.
type MQTTSource struct {
	client *mqtt.Client
	logger Logger

	mu      sync.Mutex
	events  chan Event
	started bool
}

// NewMQTTSource builds a source over an already connected client.
func NewMQTTSource(client *mqtt.Client, logger Logger) *MQTTSource {
	if logger == nil {
		logger = noopLogger{}
	}
	return &MQTTSource{
		client: client,
		logger: logger,
		events: make(chan Event, eventBuffer),
	}
}

// Start subscribes the inbound wildcard.
func (s *MQTTSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	topic := mqtt.AllChatInbound()
	err := s.client.Subscribe(topic, 1, func(msgTopic string, payload []byte) error {
		endpoint := mqtt.EndpointFromChatTopic(msgTopic)
		if endpoint == "" {
			s.logger.Warn("chat message with unparseable topic", "topic", msgTopic)
			return nil
		}
		s.enqueue(Event{Endpoint: endpoint, Text: string(payload)})
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}

	s.started = true
	return nil
}

// Stop unsubscribes and closes the event stream.
func (s *MQTTSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false

	_ = s.client.Unsubscribe(mqtt.AllChatInbound())
	close(s.events)
	return nil
}

// Events returns the inbound event stream. Closed by Stop.
func (s *MQTTSource) Events() <-chan Event {
	return s.events
}

func (s *MQTTSource) enqueue(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("chat event dropped, buffer full", "endpoint", ev.Endpoint)
	}
}
