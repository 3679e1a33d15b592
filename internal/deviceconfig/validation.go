package deviceconfig

// IsOperationValid reports whether the config may drive normal operation.
//
// A config is operation-valid iff:
//   - the device identity is non-empty
//   - the PIN has the expected fixed length
//   - at least one network credential slot is populated
//   - the messaging authorization token meets the minimum length
//   - the owner endpoint is non-empty
//
// The lifecycle controller evaluates this at boot: an invalid config routes
// the appliance into provisioning instead of normal operation.
func (c *DeviceConfig) IsOperationValid() bool {
	if c.DeviceID == "" {
		return false
	}
	if len(c.PIN) != PINLength {
		return false
	}
	if !c.HasNetwork() {
		return false
	}
	if len(c.AuthToken) < MinAuthTokenLength {
		return false
	}
	if c.OwnerEndpoint == "" {
		return false
	}
	return true
}
