package system

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStats is a snapshot of the machine a render runs on.
type HostStats struct {
	LogicalCPUs     int
	TotalMemory     uint64
	AvailableMemory uint64
}

// Host collects HostStats. Fields that cannot be read stay zero.
func Host() HostStats {
	var hs HostStats
	if n, err := cpu.Counts(true); err == nil {
		hs.LogicalCPUs = n
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		hs.TotalMemory = vm.Total
		hs.AvailableMemory = vm.Available
	}
	return hs
}

// DefaultWorkers sizes the frame worker pool: one per logical CPU, reduced
// when available memory cannot hold two in-flight frames per worker.
func DefaultWorkers(frameBytes int) int {
	hs := Host()
	workers := hs.LogicalCPUs
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if hs.AvailableMemory > 0 && frameBytes > 0 {
		// Keep in-flight frames under a quarter of free memory.
		limit := int(hs.AvailableMemory / 4 / uint64(frameBytes) / 2)
		if limit < workers {
			workers = limit
		}
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}
