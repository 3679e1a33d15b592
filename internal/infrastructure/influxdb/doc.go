// Package influxdb is the appliance's time-series telemetry sink, wrapping
// the official influxdb-client-go v2 library. The telemetry reporter feeds
// it delivery counters and lifecycle gauges; writes are batched and
// non-blocking so telemetry can never stall the main loop.
//
// The sink is optional: when disabled in config, Connect returns
// ErrDisabled and the rest of the system runs without it.
package influxdb
