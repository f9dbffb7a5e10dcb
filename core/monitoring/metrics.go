package monitoring

import (
	"fmt"
	"sort"

	"content-orchestrator/core/models"
)

// PrometheusMetrics renders stats in Prometheus text exposition format.
func PrometheusMetrics(stats Stats) string {
	var metrics string

	metrics += "# HELP contentops_jobs Number of jobs by status\n"
	metrics += "# TYPE contentops_jobs gauge\n"
	statuses := make([]string, 0, len(stats.Jobs))
	for status := range stats.Jobs {
		statuses = append(statuses, string(status))
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		metrics += fmt.Sprintf("contentops_jobs{status=\"%s\"} %d\n", status, stats.Jobs[models.JobStatus(status)])
	}

	metrics += "# HELP contentops_queue_depth Jobs waiting for a worker\n"
	metrics += "# TYPE contentops_queue_depth gauge\n"
	metrics += fmt.Sprintf("contentops_queue_depth %d\n", stats.QueueDepth)

	metrics += "# HELP contentops_cpu_load Host 1-minute load average\n"
	metrics += "# TYPE contentops_cpu_load gauge\n"
	metrics += fmt.Sprintf("contentops_cpu_load %.4f\n", stats.System.CPULoad)

	metrics += "# HELP contentops_mem_used_ratio Host memory usage ratio\n"
	metrics += "# TYPE contentops_mem_used_ratio gauge\n"
	metrics += fmt.Sprintf("contentops_mem_used_ratio %.4f\n", stats.System.MemUsedRatio)

	return metrics
}
