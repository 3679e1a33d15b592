package mqtt

import "fmt"

// Topic layout for the appliance.
//
// Chat bearer (normal operation):
//
//	sentrycam/chat/{endpoint}/in    — command messages from a chat endpoint
//	sentrycam/chat/{endpoint}/out   — replies and alerts to a chat endpoint
//
// Setup bearer (provisioning phase, local setup broker):
//
//	sentrycam/setup/{device}/payload — provisioning payload from the client
//	sentrycam/setup/{device}/command — out-of-band setup command
//	sentrycam/setup/{device}/status  — status notifications to the client
//
// System:
//
//	sentrycam/system/status — online/offline (retained, LWT)
const (
	topicPrefixChat   = "sentrycam/chat"
	topicPrefixSetup  = "sentrycam/setup"
	topicPrefixSystem = "sentrycam/system"
)

// ChatInTopic returns the inbound command topic for a chat endpoint.
func ChatInTopic(endpoint string) string {
	return fmt.Sprintf("%s/%s/in", topicPrefixChat, endpoint)
}

// ChatOutTopic returns the outbound reply topic for a chat endpoint.
func ChatOutTopic(endpoint string) string {
	return fmt.Sprintf("%s/%s/out", topicPrefixChat, endpoint)
}

// AllChatInbound returns a pattern matching inbound messages from any
// endpoint: sentrycam/chat/+/in.
func AllChatInbound() string {
	return topicPrefixChat + "/+/in"
}

// EndpointFromChatTopic extracts the endpoint identifier from an inbound
// chat topic. Returns "" if the topic does not match the chat layout.
func EndpointFromChatTopic(topic string) string {
	var endpoint, direction string
	if _, err := fmt.Sscanf(topic, "sentrycam/chat/%s", &endpoint); err != nil {
		return ""
	}
	// Sscanf with %s grabs the remainder; split off the direction segment.
	for i := 0; i < len(endpoint); i++ {
		if endpoint[i] == '/' {
			direction = endpoint[i+1:]
			endpoint = endpoint[:i]
			break
		}
	}
	if direction != "in" && direction != "out" {
		return ""
	}
	return endpoint
}

// SetupPayloadTopic returns the provisioning payload topic for a device.
func SetupPayloadTopic(deviceID string) string {
	return fmt.Sprintf("%s/%s/payload", topicPrefixSetup, deviceID)
}

// SetupCommandTopic returns the out-of-band setup command topic for a device.
func SetupCommandTopic(deviceID string) string {
	return fmt.Sprintf("%s/%s/command", topicPrefixSetup, deviceID)
}

// SetupStatusTopic returns the setup status notification topic for a device.
func SetupStatusTopic(deviceID string) string {
	return fmt.Sprintf("%s/%s/status", topicPrefixSetup, deviceID)
}

// SystemStatusTopic returns the retained online/offline status topic.
func SystemStatusTopic() string {
	return topicPrefixSystem + "/status"
}
