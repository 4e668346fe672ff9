package types

import "time"

// DefaultTopK controls how many top processes a snapshot keeps.
const DefaultTopK = 10

// CounterPair holds cumulative CPU ticks since an unspecified epoch.
type CounterPair struct {
	Total uint64
	Idle  uint64
}

// MemoryStats is an instantaneous view of host memory in KB.
type MemoryStats struct {
	TotalKB     uint64
	AvailableKB uint64
	UsedKB      uint64
}

// ProcessSample describes one process as seen during a single sampling cycle.
// Priority is the niceness of the process: higher values are less favorable.
type ProcessSample struct {
	PID      int
	Name     string
	CPUUsage float64
	MemoryKB uint64
	Priority int
}

// MetricsSnapshot is the normalized result of one sampling cycle.
type MetricsSnapshot struct {
	CollectedAt     time.Time
	CPUUsagePercent float64
	TotalMemKB      uint64
	UsedMemKB       uint64
	AvailableMemKB  uint64
	MemUsagePercent float64
	TopProcesses    []ProcessSample
}

// Baseline is the warm-up average used as a comparison reference.
type Baseline struct {
	SampleCount int
	AvgCPU      float64
	AvgMem      float64
}

// CPUStat holds information about how much CPU time a PID consumed during a window.
type CPUStat struct {
	PID  uint32
	Comm string
	Ns   uint64
}

// Frame is everything one presentation cycle shows.
type Frame struct {
	Snapshot     MetricsSnapshot
	Baseline     Baseline
	CPUHistory   []float64
	MemHistory   []float64
	Optimized    []ProcessSample
	AutoOptimize bool
	Threshold    int
	Interval     time.Duration
}
