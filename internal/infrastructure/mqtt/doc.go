// Package mqtt provides the broker connection shared by the appliance's two
// bearers: the chat bearer (inbound commands, outbound replies, per-endpoint
// topics) and the setup bearer (provisioning payload, out-of-band command,
// status notifications).
//
// The client handles reconnects and re-subscription itself. Handlers run on
// the paho library's goroutines — per the core's concurrency model they must
// only enqueue typed events for the main loop and never mutate device
// configuration or session state directly.
//
// This package knows nothing about commands, roles or provisioning; it moves
// bytes between topics. The delivery and provisioning packages adapt it to
// their interfaces.
package mqtt
