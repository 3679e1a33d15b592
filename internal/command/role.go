package command

import "github.com/aldermoor/sentrycam-core/internal/deviceconfig"

// Role is the caller's standing, derived per message from the configured
// notification endpoints. Roles are never stored; changing an endpoint in
// the config changes who holds the role on their next message.
type Role int

const (
	// RoleUnknown: the endpoint matches no configured role.
	RoleUnknown Role = iota

	// RoleOwner may do everything, including configuration edits.
	RoleOwner

	// RoleFamily gets the day-to-day commands but no configuration.
	RoleFamily

	// RoleNeighborhood is the most restricted named role.
	RoleNeighborhood
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleFamily:
		return "family"
	case RoleNeighborhood:
		return "neighborhood"
	default:
		return "unknown"
	}
}

// DeriveRole matches endpoint against the configured role endpoints. The
// match is exact; an empty configured endpoint never matches anything.
func DeriveRole(cfg *deviceconfig.DeviceConfig, endpoint string) Role {
	if endpoint == "" {
		return RoleUnknown
	}
	switch endpoint {
	case cfg.OwnerEndpoint:
		return RoleOwner
	case cfg.FamilyEndpoint:
		return RoleFamily
	case cfg.NeighborhoodEndpoint:
		return RoleNeighborhood
	default:
		return RoleUnknown
	}
}
