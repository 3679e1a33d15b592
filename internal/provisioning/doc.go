// Package provisioning handles first-time device setup: it validates the
// configuration document a setup client submits, merges it into the device
// configuration, and reports progress back over the setup bearer.
//
// Required document keys are networkName, networkSecret and authToken.
// Secondary network slots, a display name, an alert template and the owner
// endpoint are optional; unknown keys are ignored so newer clients can talk
// to older firmware.
//
// Bearers (MQTTBearer here) deliver inbound traffic as typed Events on a
// buffered channel. They never mutate state themselves; the lifecycle
// controller drains the channel on its own loop.
package provisioning
