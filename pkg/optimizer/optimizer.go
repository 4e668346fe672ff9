// Package optimizer demotes the scheduling priority of processes that exceed
// a CPU threshold.
package optimizer

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/srodi/sysmonitor/pkg/platform"
	"github.com/srodi/sysmonitor/pkg/types"
)

const (
	// DefaultCPUThreshold is the CPU percentage above which a process is demoted.
	DefaultCPUThreshold = 80
	// NiceIncrement is the niceness added to each demoted process.
	NiceIncrement = 10
	// PriorityFloor is the niceness at or above which a process counts as
	// already demoted and is left alone.
	PriorityFloor = 10
)

// Optimizer applies the demotion policy. The threshold is the only state and
// may be changed from another goroutine.
type Optimizer struct {
	ctl       platform.PriorityController
	threshold atomic.Int64
	logger    zerolog.Logger
}

// New returns an Optimizer acting through ctl.
func New(ctl platform.PriorityController, threshold int, logger zerolog.Logger) *Optimizer {
	o := &Optimizer{
		ctl:    ctl,
		logger: logger.With().Str("component", "optimizer").Logger(),
	}
	o.threshold.Store(int64(threshold))
	return o
}

// SetCPUThreshold replaces the CPU threshold percentage.
func (o *Optimizer) SetCPUThreshold(threshold int) {
	o.threshold.Store(int64(threshold))
}

// CPUThreshold returns the current CPU threshold percentage.
func (o *Optimizer) CPUThreshold() int {
	return int(o.threshold.Load())
}

// Qualifies reports whether p should be demoted under threshold.
func Qualifies(p types.ProcessSample, threshold int) bool {
	return p.CPUUsage > float64(threshold) && p.Priority < PriorityFloor
}

// OptimizeProcesses demotes every qualifying process and returns those whose
// priority change succeeded, in input order. Denied changes are skipped.
func (o *Optimizer) OptimizeProcesses(procs []types.ProcessSample) []types.ProcessSample {
	threshold := o.CPUThreshold()
	var optimized []types.ProcessSample
	for _, p := range procs {
		if !Qualifies(p, threshold) {
			continue
		}
		if !o.OptimizeProcess(p.PID, NiceIncrement) {
			o.logger.Debug().
				Int("pid", p.PID).
				Str("name", p.Name).
				Float64("cpu", p.CPUUsage).
				Msg("Priority change denied")
			continue
		}
		optimized = append(optimized, p)
	}
	return optimized
}

// OptimizeProcess adds niceIncrement to the niceness of pid.
func (o *Optimizer) OptimizeProcess(pid, niceIncrement int) bool {
	return o.ctl.SetPriority(pid, niceIncrement)
}
