package provisioning

// Status is a value emitted on the setup status channel so the provisioning
// client can follow the device's progress.
//
// The literal strings are wire format shared with the setup clients; do not
// rename them.
type Status string

const (
	// StatusWaiting: provisioning phase active, no client connected yet.
	StatusWaiting Status = "waiting_for_connection"

	// StatusConnectedPINReady: a setup client connected and a fresh PIN
	// has been generated for it.
	StatusConnectedPINReady Status = "connected_pin_ready"

	// StatusErrInvalidPayload: the payload could not be parsed.
	StatusErrInvalidPayload Status = "config_error_invalid_json"

	// StatusErrMissingFields: the payload parsed but lacks required keys.
	StatusErrMissingFields Status = "config_error_missing_fields"

	// StatusConfigReceived: intake succeeded; restarting shortly.
	StatusConfigReceived Status = "config_received_restarting"

	// StatusChatOpened: the owner opened the chat channel, claiming the
	// owner endpoint; restarting shortly.
	StatusChatOpened Status = "telegram_opened_restarting"
)
