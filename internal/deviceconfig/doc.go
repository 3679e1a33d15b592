// Package deviceconfig owns the persisted DeviceConfig snapshot: the device
// identity, provisioning PIN, network credentials, notification endpoints,
// alert template and validity flags.
//
// The Store is the single mutation path. Both the provisioning intake and
// the editing session change configuration through Store.Update, which is
// where ConfigVersion is incremented and the snapshot persisted. Nothing
// else writes the device_config table.
//
// Operation validity (IsOperationValid) is the gate the lifecycle controller
// uses at boot to decide between provisioning and normal operation.
package deviceconfig
