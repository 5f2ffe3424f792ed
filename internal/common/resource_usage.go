package common

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// ResourceUsage represents current process and system resource usage
type ResourceUsage struct {
	AllocMB              int64   `json:"alloc_mb"`
	SysMB                int64   `json:"sys_mb"`
	Goroutines           int     `json:"goroutines"`
	GCCount              int64   `json:"gc_count"`
	ProcessRSSMB         int64   `json:"process_rss_mb"`
	ProcessCPUPercent    float64 `json:"process_cpu_percent"`
	SystemMemUsedPercent float64 `json:"system_mem_used_percent"`
}

// GetResourceUsage returns current resource usage statistics. System figures
// that cannot be read are left at zero.
func GetResourceUsage() ResourceUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	usage := ResourceUsage{
		AllocMB:    int64(m.Alloc / 1024 / 1024),
		SysMB:      int64(m.Sys / 1024 / 1024),
		Goroutines: runtime.NumGoroutine(),
		GCCount:    int64(m.NumGC),
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		usage.SystemMemUsedPercent = vmStat.UsedPercent
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfo(); err == nil {
			usage.ProcessRSSMB = int64(info.RSS / 1024 / 1024)
		}
		if pct, err := proc.CPUPercent(); err == nil {
			usage.ProcessCPUPercent = pct
		}
	}

	return usage
}
