package monitoring

import (
	"context"
	"os"
	"runtime"
	"time"

	"content-orchestrator/core/models"
	"content-orchestrator/core/tracker"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// SystemStats holds host-level metrics sampled via gopsutil.
type SystemStats struct {
	CPULoad        float64 `json:"cpu_load"`
	CPUProcessors  int     `json:"cpu_processors"`
	MemTotalGB     float64 `json:"mem_total_gb"`
	MemUsedRatio   float64 `json:"mem_used_ratio"`
	DiskUsageRatio float64 `json:"disk_usage_ratio"`
	ProcUsedMemGB  float64 `json:"proc_used_mem_gb"`
}

// Stats combines job-state counts with host metrics for the dashboard.
type Stats struct {
	Jobs       map[models.JobStatus]int `json:"jobs"`
	QueueDepth int                      `json:"queue_depth"`
	System     SystemStats              `json:"system"`
	SampledAt  time.Time                `json:"sampled_at"`
}

// Collector samples tracker and host state on demand.
type Collector struct {
	tracker    *tracker.Tracker
	queueDepth func() int
}

// NewCollector creates a collector. queueDepth reports the executor's
// dispatch backlog.
func NewCollector(tr *tracker.Tracker, queueDepth func() int) *Collector {
	return &Collector{tracker: tr, queueDepth: queueDepth}
}

// Collect samples current stats. gopsutil failures leave the affected field
// at zero rather than failing the whole sample.
func (c *Collector) Collect(ctx context.Context) Stats {
	stats := Stats{
		Jobs:      c.tracker.Counts(),
		SampledAt: time.Now().UTC(),
	}
	if c.queueDepth != nil {
		stats.QueueDepth = c.queueDepth()
	}

	stats.System.CPUProcessors = runtime.NumCPU()
	if avg, err := load.AvgWithContext(ctx); err == nil {
		stats.System.CPULoad = avg.Load1
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm.Total > 0 {
		stats.System.MemTotalGB = float64(vm.Total) / (1024 * 1024 * 1024)
		stats.System.MemUsedRatio = vm.UsedPercent / 100.0
	}
	if du, err := disk.UsageWithContext(ctx, "/"); err == nil && du.Total > 0 {
		stats.System.DiskUsageRatio = du.UsedPercent / 100.0
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if pm, err := p.MemoryInfoWithContext(ctx); err == nil && pm != nil {
			stats.System.ProcUsedMemGB = float64(pm.RSS) / (1024 * 1024 * 1024)
		}
	}

	return stats
}
