package lifecycle

import "fmt"

// State is the device's top-level operating phase.
type State int

const (
	// StateNeedConfig: boot-time evaluation found no operation-valid
	// config. Transitions straight into provisioning.
	StateNeedConfig State = iota

	// StateProvisioning: the setup bearer is live and waiting for a
	// valid configuration document. Timed; expires into a restart.
	StateProvisioning

	// StateNormalOperation: chat transport up, commands served. No
	// self-timeout; left only by restart.
	StateNormalOperation

	// StatePinConfigPhase is reserved. It appears in the state space but
	// no transition enters it; dispatching it is a fatal condition.
	StatePinConfigPhase

	// StateGroupWaitPhase is reserved, same as StatePinConfigPhase.
	StateGroupWaitPhase
)

func (s State) String() string {
	switch s {
	case StateNeedConfig:
		return "need_config"
	case StateProvisioning:
		return "provisioning"
	case StateNormalOperation:
		return "normal_operation"
	case StatePinConfigPhase:
		return "pin_config_phase"
	case StateGroupWaitPhase:
		return "group_wait_phase"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Decision is what the controller asks of its caller when Run returns.
type Decision int

const (
	// DecisionShutdown: the context was cancelled; exit cleanly.
	DecisionShutdown Decision = iota

	// DecisionRestart: tear everything down and boot again.
	DecisionRestart
)

func (d Decision) String() string {
	if d == DecisionRestart {
		return "restart"
	}
	return "shutdown"
}
