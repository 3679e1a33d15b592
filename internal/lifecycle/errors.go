package lifecycle

import "errors"

var (
	// ErrProvisioningTimeout: the provisioning window closed with no
	// valid intake. Resolved by restart, never by continuing.
	ErrProvisioningTimeout = errors.New("lifecycle: provisioning timed out without a valid config")

	// ErrUnreachableState: the controller was asked to run a state no
	// transition should ever reach.
	ErrUnreachableState = errors.New("lifecycle: unreachable state dispatched")
)
