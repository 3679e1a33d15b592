package influxdb

import (
	"context"
	"errors"
	"testing"

	"github.com/aldermoor/sentrycam-core/internal/infrastructure/config"
)

// Connect against a live server is covered by integration runs; these
// tests exercise the paths that must work without one.

func TestConnectDisabled(t *testing.T) {
	client, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("Connect() error = %v, want ErrDisabled", err)
	}
	if client != nil {
		t.Fatal("Connect() returned a client for disabled config")
	}
}

func TestConnectUnreachable(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{
		Enabled: true,
		URL:     "http://127.0.0.1:1", // nothing listens here
	})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestDisconnectedClientDropsWrites(t *testing.T) {
	c := &Client{} // never connected

	// Writes must be silent no-ops, not panics: telemetry is optional.
	c.WriteGauge("SC-1234", "uptime", 1.0)
	c.WritePoint("delivery", map[string]string{"device_id": "SC-1234"},
		map[string]interface{}{"sent_total": 3})

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
	if c.IsConnected() {
		t.Fatal("IsConnected() = true for zero-value client")
	}
}

func TestCloseNilClient(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
