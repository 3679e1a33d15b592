package provisioning

// EventKind distinguishes the inputs a setup bearer can deliver.
type EventKind int

const (
	// EventClientConnected: a setup client announced itself. The
	// controller responds by generating a fresh PIN.
	EventClientConnected EventKind = iota

	// EventPayload: a raw provisioning document arrived.
	EventPayload

	// EventChatOpened: the owner opened the chat channel; Endpoint
	// carries the claiming endpoint identifier.
	EventChatOpened
)

// Event is a single input from the setup bearer. Bearer callbacks build
// these and enqueue them; all interpretation happens on the controller's
// loop, never on the bearer's goroutines.
type Event struct {
	Kind     EventKind
	Payload  []byte
	Endpoint string
}

// Transport is the setup-side bearer the provisioning phase talks through.
// Implementations must deliver inbound traffic as Events on a channel and
// never call back into the controller directly.
type Transport interface {
	// Start begins accepting setup traffic.
	Start() error

	// Stop tears the bearer down. Safe to call more than once.
	Stop() error

	// Events returns the inbound event stream. The channel is closed by
	// Stop.
	Events() <-chan Event

	// NotifyStatus reports progress to the setup client. The detail
	// string is appended for statuses that carry one (the PIN for
	// StatusConnectedPINReady); pass "" otherwise.
	NotifyStatus(status Status, detail string) error
}
