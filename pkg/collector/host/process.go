package host

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/srodi/sysmonitor/pkg/collector/memory"
	"github.com/srodi/sysmonitor/pkg/types"
)

// Stubbed by tests.
var (
	readProcesses = readGopsutilProcesses
	rssForPIDs    = memory.RSSKBForPIDs
)

// procReading is what one pass over the process table yields per PID.
type procReading struct {
	PID        int32
	Name       string
	CPUSeconds float64
	CreatedMs  int64
	RSSBytes   uint64
}

// cpuMark is the CPU time of a PID observed at a point in time.
type cpuMark struct {
	cpuSeconds float64
	createdMs  int64
	at         time.Time
}

// ListProcesses returns every user process with a resident footprint.
// CPUUsage is the percentage of one CPU used since the previous call, or the
// lifetime average for PIDs seen for the first time.
func (s *Source) ListProcesses() []types.ProcessSample {
	if s.sched != nil {
		return s.schedProcesses()
	}

	readings, err := readProcesses()
	if err != nil {
		s.logger.Debug().Err(err).Msg("listing processes")
		return nil
	}

	now := s.now()
	s.prior.DeleteExpired()
	samples := make([]types.ProcessSample, 0, len(readings))
	for _, r := range readings {
		if r.RSSBytes == 0 {
			continue
		}
		samples = append(samples, types.ProcessSample{
			PID:      int(r.PID),
			Name:     r.Name,
			CPUUsage: s.processCPU(r, now),
			MemoryKB: r.RSSBytes / 1024,
			Priority: s.niceOf(int(r.PID)),
		})
	}
	return samples
}

func (s *Source) processCPU(r procReading, now time.Time) float64 {
	mark := cpuMark{cpuSeconds: r.CPUSeconds, createdMs: r.CreatedMs, at: now}
	defer s.prior.Set(r.PID, mark, ttlcache.DefaultTTL)

	if item := s.prior.Get(r.PID); item != nil {
		if pct, ok := windowedPercent(item.Value(), mark); ok {
			return pct
		}
	}
	return lifetimePercent(mark)
}

// schedProcesses converts the scheduler window into samples and starts a new window.
func (s *Source) schedProcesses() []types.ProcessSample {
	now := s.now()
	window := now.Sub(s.lastSched)

	stats, err := s.sched.Snapshot(0)
	if err != nil {
		s.logger.Debug().Err(err).Msg("reading scheduler stats")
		return nil
	}
	if err := s.sched.Reset(); err != nil {
		s.logger.Debug().Err(err).Msg("resetting scheduler stats")
	}
	s.lastSched = now
	stats = mergeByPID(stats)

	pids := make([]int, 0, len(stats))
	for _, st := range stats {
		pids = append(pids, int(st.PID))
	}
	rss := rssForPIDs(pids)

	samples := make([]types.ProcessSample, 0, len(stats))
	for _, st := range stats {
		pid := int(st.PID)
		kb := rss[pid]
		if kb == 0 {
			continue
		}
		samples = append(samples, types.ProcessSample{
			PID:      pid,
			Name:     st.Comm,
			CPUUsage: schedPercent(st.Ns, window),
			MemoryKB: kb,
			Priority: s.niceOf(pid),
		})
	}
	return samples
}

// mergeByPID sums rows that share a process id, keeping first-seen order and
// the first name. CPU usage is reported per process, never per thread.
func mergeByPID(stats []types.CPUStat) []types.CPUStat {
	index := make(map[uint32]int, len(stats))
	merged := make([]types.CPUStat, 0, len(stats))
	for _, st := range stats {
		if i, ok := index[st.PID]; ok {
			merged[i].Ns += st.Ns
			continue
		}
		index[st.PID] = len(merged)
		merged = append(merged, st)
	}
	return merged
}

func (s *Source) niceOf(pid int) int {
	nice, err := getNice(pid)
	if err != nil {
		return 0
	}
	return nice
}

// windowedPercent compares two marks of the same process. It fails when the
// PID was reused or no time has passed.
func windowedPercent(prev, curr cpuMark) (float64, bool) {
	if prev.createdMs != curr.createdMs {
		return 0, false
	}
	elapsed := curr.at.Sub(prev.at).Seconds()
	if elapsed <= 0 {
		return 0, false
	}
	used := curr.cpuSeconds - prev.cpuSeconds
	if used < 0 {
		used = 0
	}
	return 100 * used / elapsed, true
}

func lifetimePercent(m cpuMark) float64 {
	if m.createdMs <= 0 {
		return 0
	}
	alive := m.at.Sub(time.UnixMilli(m.createdMs)).Seconds()
	if alive <= 0 {
		return 0
	}
	return 100 * m.cpuSeconds / alive
}

func schedPercent(ns uint64, window time.Duration) float64 {
	if window <= 0 {
		return 0
	}
	return 100 * float64(ns) / float64(window.Nanoseconds())
}

func readGopsutilProcesses() ([]procReading, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}
	readings := make([]procReading, 0, len(procs))
	for _, p := range procs {
		mi, err := p.MemoryInfo()
		if err != nil || mi == nil {
			continue
		}
		r := procReading{PID: p.Pid, RSSBytes: mi.RSS}
		if name, err := p.Name(); err == nil {
			r.Name = name
		}
		if times, err := p.Times(); err == nil && times != nil {
			r.CPUSeconds = times.User + times.System
		}
		if created, err := p.CreateTime(); err == nil {
			r.CreatedMs = created
		}
		readings = append(readings, r)
	}
	return readings, nil
}
