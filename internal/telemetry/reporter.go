// Package telemetry periodically publishes the appliance's operational
// counters to the time-series sink: delivery statistics plus any gauges
// other components register (capture helper restarts, session state).
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/aldermoor/sentrycam-core/internal/delivery"
)

// DefaultInterval between reports.
const DefaultInterval = 30 * time.Second

// Sink receives measurements. Satisfied by *influxdb.Client.
type Sink interface {
	WriteGauge(deviceID, measurement string, value float64)
	WritePoint(measurement string, tags map[string]string, fields map[string]interface{})
}

// Logger is the narrow logging surface the reporter needs.
type Logger interface {
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}

// Reporter snapshots counters on an interval and writes them out. It runs
// on its own goroutine; the sink's writes are non-blocking so the reporter
// can never hold up the main loop.
type Reporter struct {
	sink     Sink
	stats    *delivery.Stats
	deviceID string
	interval time.Duration
	logger   Logger

	mu     sync.Mutex
	gauges map[string]func() float64
}

// NewReporter builds a Reporter. A zero interval uses DefaultInterval.
func NewReporter(sink Sink, stats *delivery.Stats, deviceID string, interval time.Duration, logger Logger) *Reporter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Reporter{
		sink:     sink,
		stats:    stats,
		deviceID: deviceID,
		interval: interval,
		logger:   logger,
		gauges:   make(map[string]func() float64),
	}
}

// AddGauge registers a named gauge sampled on every report.
func (r *Reporter) AddGauge(name string, fn func() float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gauges[name] = fn
}

// Run reports until the context is cancelled. A final report is written on
// the way out so shutdown counters are not lost.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Report()
			return
		case <-ticker.C:
			r.Report()
		}
	}
}

// Report writes one snapshot immediately.
func (r *Reporter) Report() {
	if r.stats != nil {
		snap := r.stats.Snapshot()
		r.sink.WritePoint("delivery",
			map[string]string{"device_id": r.deviceID},
			map[string]interface{}{
				"sent_total":         snap.SentTotal,
				"failed_total":       snap.FailedTotal,
				"poll_count":         snap.PollCount,
				"commands_processed": snap.CommandsProcessed,
			},
		)
	}

	r.mu.Lock()
	names := make([]string, 0, len(r.gauges))
	fns := make([]func() float64, 0, len(r.gauges))
	for name, fn := range r.gauges {
		names = append(names, name)
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for i, fn := range fns {
		r.sink.WriteGauge(r.deviceID, names[i], fn())
	}
	r.logger.Debug("telemetry reported", "gauges", len(fns))
}
