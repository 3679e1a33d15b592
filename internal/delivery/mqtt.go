package delivery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aldermoor/sentrycam-core/internal/infrastructure/mqtt"
)

// chatMessage is the wire format published to an endpoint's out topic.
type chatMessage struct {
	DeviceID string          `json:"device_id"`
	Text     string          `json:"text"`
	Markup   json.RawMessage `json:"markup,omitempty"`
}

// MQTTTransport adapts the broker client to the one-shot Transport
// contract: one Publish, one error. The Sender owns all retrying.
type MQTTTransport struct {
	client   *mqtt.Client
	deviceID string
}

// NewMQTTTransport creates a chat transport publishing as the given device.
func NewMQTTTransport(client *mqtt.Client, deviceID string) *MQTTTransport {
	return &MQTTTransport{client: client, deviceID: deviceID}
}

// Send publishes one message to the endpoint's out topic.
func (t *MQTTTransport) Send(_ context.Context, msg Message) error {
	payload, err := json.Marshal(chatMessage{
		DeviceID: t.deviceID,
		Text:     msg.Content,
		Markup:   msg.Markup,
	})
	if err != nil {
		return fmt.Errorf("encoding chat message: %w", err)
	}
	return t.client.PublishString(mqtt.ChatOutTopic(msg.Endpoint), string(payload))
}
