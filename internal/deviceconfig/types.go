package deviceconfig

// Configuration shape constants.
const (
	// NetworkSlots is the number of network credential slots. Credentials
	// are tried in slot order; empty slots are valid placeholders.
	NetworkSlots = 3

	// PINLength is the required length of the numeric provisioning PIN.
	PINLength = 6

	// MinAuthTokenLength is the minimum length of the messaging
	// authorization token for a config to be operation-valid.
	MinAuthTokenLength = 40
)

// NetworkCredential is one (name, secret) pair for the long-range network.
// An all-empty credential is a placeholder, not an error.
type NetworkCredential struct {
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

// IsEmpty reports whether the slot is an unused placeholder.
func (n NetworkCredential) IsEmpty() bool {
	return n.Name == ""
}

// DeviceConfig is the persisted configuration snapshot for the appliance.
//
// It is a singleton owned by the Store: the provisioning validator and the
// editing session mutate it only through the Store's update path, which is
// what increments ConfigVersion and persists.
type DeviceConfig struct {
	// DeviceID is the short technical identity, generated once and stable
	// across restarts. Commands addressed to a different identity on a
	// shared channel are silently ignored.
	DeviceID string

	// DisplayName is the human-friendly, mutable name.
	DisplayName string

	// PIN is the short numeric provisioning PIN, regenerated on every
	// provisioning connection.
	PIN string

	// AuthToken authorizes the remote messaging transport.
	AuthToken string

	// Networks are the ordered network credentials, tried in slot order.
	Networks [NetworkSlots]NetworkCredential

	// OwnerEndpoint, FamilyEndpoint and NeighborhoodEndpoint map the fixed
	// notification roles to chat endpoint identifiers. Owner is mandatory
	// for operation; the others are optional.
	OwnerEndpoint        string
	FamilyEndpoint       string
	NeighborhoodEndpoint string

	// AlertTemplate is the free-text message sent on startup and alerts.
	AlertTemplate string

	// ConfigVersion increments on every successful mutation. It never
	// decreases and resets only on a full default reload.
	ConfigVersion uint64

	// Provisioned is set after a successful provisioning intake.
	Provisioned bool

	// PINConfigured is set once a PIN has been generated.
	PINConfigured bool
}

// Clone returns a deep copy. Callers may freely modify the result.
func (c *DeviceConfig) Clone() *DeviceConfig {
	cp := *c
	return &cp
}

// HasNetwork reports whether at least one network credential slot is
// populated.
func (c *DeviceConfig) HasNetwork() bool {
	for _, n := range c.Networks {
		if !n.IsEmpty() {
			return true
		}
	}
	return false
}

// CredentialList returns the populated network credentials in slot order,
// ready to hand to the connectivity manager.
func (c *DeviceConfig) CredentialList() []NetworkCredential {
	out := make([]NetworkCredential, 0, NetworkSlots)
	for _, n := range c.Networks {
		if !n.IsEmpty() {
			out = append(out, n)
		}
	}
	return out
}
