package mqtt

import "fmt"

// maxPayloadSize bounds outbound messages (256KB). Chat replies and setup
// statuses are tiny; captured frames are the only large payloads and typical
// broker limits sit well above this.
const maxPayloadSize = 256 << 10

// Publish sends a message to the given topic and waits for acknowledgment
// up to the publish timeout.
//
// Retained should be true only for state topics (system status); replies and
// commands must not be retained or late subscribers replay them.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishString publishes a string payload with the configured default QoS.
func (c *Client) PublishString(topic, payload string) error {
	return c.Publish(topic, []byte(payload), byte(c.cfg.QoS), false)
}
