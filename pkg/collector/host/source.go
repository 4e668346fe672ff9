// Package host implements the counter source on top of gopsutil, with
// per-OS bindings for reading and changing process niceness.
package host

import (
	"math"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/srodi/sysmonitor/pkg/types"
)

const (
	// ticksPerSecond converts gopsutil's CPU seconds back into USER_HZ ticks.
	ticksPerSecond = 100

	minNice = -20
	maxNice = 19

	priorTTL = 2 * time.Minute
)

// Stubbed by tests.
var (
	cpuTimes      = cpu.Times
	virtualMemory = mem.VirtualMemory
	getNice       = processNice
	setNice       = applyNice
	isElevated    = elevated
)

// SchedSampler reports per-PID on-CPU time accumulated since its last reset.
type SchedSampler interface {
	Snapshot(limit int) ([]types.CPUStat, error)
	Reset() error
}

// Source reads host counters. ListProcesses keeps the previous CPU time of
// each PID so process CPU usage can be reported over the sampling window.
type Source struct {
	logger    zerolog.Logger
	sched     SchedSampler
	lastSched time.Time
	prior     *ttlcache.Cache[int32, cpuMark]
	now       func() time.Time
}

// Option customizes a Source.
type Option func(*Source)

// WithScheduler takes process CPU usage from an eBPF scheduler sampler
// instead of procfs CPU times.
func WithScheduler(s SchedSampler) Option {
	return func(src *Source) { src.sched = s }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(src *Source) { src.now = now }
}

// New returns a Source.
func New(logger zerolog.Logger, opts ...Option) *Source {
	s := &Source{
		logger: logger.With().Str("component", "host").Logger(),
		prior: ttlcache.New[int32, cpuMark](
			ttlcache.WithTTL[int32, cpuMark](priorTTL),
		),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastSched = s.now()
	return s
}

// ReadCPUCounters returns aggregate busy and idle ticks.
func (s *Source) ReadCPUCounters() types.CounterPair {
	times, err := cpuTimes(false)
	if err != nil || len(times) == 0 {
		s.logger.Debug().Err(err).Msg("reading cpu times")
		return types.CounterPair{}
	}
	t := times[0]
	idle := t.Idle + t.Iowait
	total := t.User + t.Nice + t.System + t.Idle + t.Iowait + t.Irq + t.Softirq + t.Steal
	return types.CounterPair{Total: toTicks(total), Idle: toTicks(idle)}
}

// ReadMemoryStats returns host memory in KB.
func (s *Source) ReadMemoryStats() types.MemoryStats {
	vm, err := virtualMemory()
	if err != nil || vm == nil {
		s.logger.Debug().Err(err).Msg("reading virtual memory")
		return types.MemoryStats{}
	}
	return types.MemoryStats{
		TotalKB:     vm.Total / 1024,
		AvailableKB: vm.Available / 1024,
		UsedKB:      vm.Used / 1024,
	}
}

// IsElevated reports whether the process runs with administrative rights.
func (s *Source) IsElevated() bool {
	return isElevated()
}

// SetPriority adds niceDelta to the niceness of pid, clamped to the valid
// range. Making a priority more favorable requires elevation.
func (s *Source) SetPriority(pid, niceDelta int) bool {
	if pid <= 0 {
		return false
	}
	if niceDelta < 0 && !isElevated() {
		s.logger.Debug().Int("pid", pid).Int("delta", niceDelta).Msg("raising priority requires elevation")
		return false
	}
	current, err := getNice(pid)
	if err != nil {
		s.logger.Debug().Err(err).Int("pid", pid).Msg("reading niceness")
		return false
	}
	target := clampNice(current + niceDelta)
	if err := setNice(pid, target); err != nil {
		s.logger.Debug().Err(err).Int("pid", pid).Int("nice", target).Msg("setting niceness")
		return false
	}
	s.logger.Debug().Int("pid", pid).Int("from", current).Int("to", target).Msg("niceness changed")
	return true
}

func toTicks(seconds float64) uint64 {
	if seconds <= 0 {
		return 0
	}
	return uint64(math.Round(seconds * ticksPerSecond))
}

func clampNice(n int) int {
	return max(minNice, min(maxNice, n))
}
