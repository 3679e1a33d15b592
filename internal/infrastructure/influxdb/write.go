package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteGauge records a single named value tagged with the device identity.
// Non-blocking; dropped silently when disconnected.
func (c *Client) WriteGauge(deviceID, measurement string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		measurement,
		map[string]string{"device_id": deviceID},
		map[string]interface{}{"value": value},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// WritePoint records a custom measurement with full control over tags and
// fields.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
