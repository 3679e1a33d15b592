// Package lifecycle drives the device's top-level state machine:
// NEED_CONFIG when the stored configuration cannot support operation,
// PROVISIONING while the timed setup phase waits for a valid document,
// NORMAL_OPERATION once the chat transport is serving commands.
//
// The controller's loop is the sole mutator of device state. Bearers
// enqueue events from their own goroutines; the loop drains them once per
// tick. Every exit from Run is either a clean shutdown or a restart
// decision handed back to the caller — the controller never restarts the
// process itself.
//
// Two states, PIN_CONFIG_PHASE and GROUP_WAIT_PHASE, are declared but
// reserved: nothing transitions into them, and dispatching one is treated
// as fatal.
package lifecycle
