package monitoring

import (
	"context"
	"time"

	"content-orchestrator/core/models"

	"github.com/sirupsen/logrus"
)

// Monitor periodically logs job-state counts and queue depth so operators
// can spot a stalled executor without scraping metrics.
type Monitor struct {
	collector *Collector
	interval  time.Duration
	log       *logrus.Logger
}

// NewMonitor creates a new monitor
func NewMonitor(collector *Collector, interval time.Duration, log *logrus.Logger) *Monitor {
	return &Monitor{
		collector: collector,
		interval:  interval,
		log:       log,
	}
}

// Start starts the monitoring loop
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := m.collector.Collect(ctx)
			m.log.WithFields(logrus.Fields{
				"pending":     stats.Jobs[models.JobStatusPending],
				"running":     stats.Jobs[models.JobStatusRunning],
				"completed":   stats.Jobs[models.JobStatusCompleted],
				"failed":      stats.Jobs[models.JobStatusFailed],
				"cancelled":   stats.Jobs[models.JobStatusCancelled],
				"queue_depth": stats.QueueDepth,
				"cpu_load":    stats.System.CPULoad,
			}).Info("Job monitor sweep")
		}
	}
}
