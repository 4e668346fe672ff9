// Package monitor turns raw counters into normalized metric snapshots and keeps
// the rolling history and warm-up baseline that presentation compares against.
package monitor

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/srodi/sysmonitor/pkg/platform"
	"github.com/srodi/sysmonitor/pkg/types"
)

// Monitor owns the previous CPU counters, both histories, and the baseline.
// It is not safe for concurrent use.
type Monitor struct {
	source     platform.CounterReader
	logger     zerolog.Logger
	topK       int
	prev       types.CounterPair
	cpuHistory *History
	memHistory *History
	baseline   types.Baseline
	pause      time.Duration
	wait       waitFunc
	now        func() time.Time
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithTopK overrides how many processes a snapshot keeps.
func WithTopK(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.topK = n
		}
	}
}

// WithBaselinePause overrides the pause between baseline samples.
func WithBaselinePause(d time.Duration) Option {
	return func(m *Monitor) {
		if d >= 0 {
			m.pause = d
		}
	}
}

// New returns a Monitor reading from source.
func New(source platform.CounterReader, logger zerolog.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		source:     source,
		logger:     logger.With().Str("component", "monitor").Logger(),
		topK:       types.DefaultTopK,
		cpuHistory: NewHistory(HistoryCapacity),
		memHistory: NewHistory(HistoryCapacity),
		pause:      defaultBaselinePause,
		wait:       sleepContext,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CollectSnapshot samples the source once, updating the stored counters and
// both histories.
func (m *Monitor) CollectSnapshot() types.MetricsSnapshot {
	curr := m.source.ReadCPUCounters()
	cpuPercent := ComputeCPUUsage(m.prev, curr)
	m.prev = curr

	mem := m.source.ReadMemoryStats()
	if mem.TotalKB == 0 {
		m.logger.Debug().Msg("counter source reported zero total memory")
	}

	snapshot := types.MetricsSnapshot{
		CollectedAt:     m.now(),
		CPUUsagePercent: cpuPercent,
		TotalMemKB:      mem.TotalKB,
		UsedMemKB:       mem.UsedKB,
		AvailableMemKB:  mem.AvailableKB,
		MemUsagePercent: MemoryPercent(mem),
		TopProcesses:    RankProcesses(m.source.ListProcesses(), m.topK),
	}

	m.cpuHistory.Push(snapshot.CPUUsagePercent)
	m.memHistory.Push(snapshot.MemUsagePercent)
	return snapshot
}

// CPUHistory returns recent CPU percentages, oldest first.
func (m *Monitor) CPUHistory() []float64 { return m.cpuHistory.Values() }

// MemHistory returns recent memory percentages, oldest first.
func (m *Monitor) MemHistory() []float64 { return m.memHistory.Values() }

// ComputeCPUUsage derives the busy percentage between two counter readings.
// The first reading (prev.Total == 0) and a zero total delta both yield 0.
// The result is not clamped: idle regressions can produce negative values.
func ComputeCPUUsage(prev, curr types.CounterPair) float64 {
	if prev.Total == 0 {
		return 0
	}
	totalDiff := int64(curr.Total - prev.Total)
	if totalDiff == 0 {
		return 0
	}
	idleDiff := int64(curr.Idle - prev.Idle)
	return 100 * (1 - float64(idleDiff)/float64(totalDiff))
}

// MemoryPercent returns used/total as a percentage, or 0 when total is 0.
func MemoryPercent(stats types.MemoryStats) float64 {
	if stats.TotalKB == 0 {
		return 0
	}
	return 100 * float64(stats.UsedKB) / float64(stats.TotalKB)
}

// RankProcesses returns up to limit processes ordered by CPU usage, highest
// first. Ties keep the order the source returned them in. The input slice is
// not modified.
func RankProcesses(procs []types.ProcessSample, limit int) []types.ProcessSample {
	ranked := make([]types.ProcessSample, len(procs))
	copy(ranked, procs)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].CPUUsage > ranked[j].CPUUsage })
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
