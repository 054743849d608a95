package workers

import (
	"context"
	"time"

	"github.com/cbodonnell/codeword/pkg/metrics"
)

type MetricsCleanupWorker struct {
	collector *metrics.Collector
	interval  time.Duration
}

type NewMetricsCleanupWorkerOptions struct {
	Collector *metrics.Collector
	Interval  time.Duration
}

// NewMetricsCleanupWorker creates a new MetricsCleanupWorker.
// The worker periodically drops telemetry samples that have aged out of
// the collector's window and forgets sessions with no samples left.
func NewMetricsCleanupWorker(opts NewMetricsCleanupWorkerOptions) *MetricsCleanupWorker {
	return &MetricsCleanupWorker{
		collector: opts.Collector,
		interval:  opts.Interval,
	}
}

func (w *MetricsCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.collector.Cleanup()
		}
	}
}
