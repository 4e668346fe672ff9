//go:build linux && bpf

package cpu

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"golang.org/x/sys/unix"

	"github.com/srodi/sysmonitor/pkg/types"
)

// Collector owns the eBPF program and map that account on-CPU time per PID.
type Collector struct {
	objs sched_bpfObjects
	tp   link.Link
}

const resetSweepRetries = 3

// NewCollector loads the compiled eBPF program and attaches it to sched/sched_switch.
func NewCollector() (*Collector, error) {
	// Locked memory must be unlimited for map creation on older kernels.
	if err := unix.Setrlimit(unix.RLIMIT_MEMLOCK, &unix.Rlimit{
		Cur: unix.RLIM_INFINITY,
		Max: unix.RLIM_INFINITY,
	}); err != nil {
		return nil, fmt.Errorf("raising rlimit memlock: %w", err)
	}

	var objs sched_bpfObjects
	if err := loadSched_bpfObjects(&objs, nil); err != nil {
		return nil, fmt.Errorf("loading bpf objects: %w", err)
	}

	tp, err := link.Tracepoint("sched", "sched_switch", objs.HandleSchedSwitch, nil)
	if err != nil {
		objs.Close()
		return nil, fmt.Errorf("attaching tracepoint: %w", err)
	}

	return &Collector{objs: objs, tp: tp}, nil
}

// Close releases the BPF resources and detaches the tracepoint.
func (c *Collector) Close() error {
	var err error
	if c.tp != nil {
		err = errors.Join(err, c.tp.Close())
	}
	return errors.Join(err, c.objs.Close())
}

// Snapshot returns the top N processes by on-CPU time accumulated since the
// previous reset. Rows are keyed by process id, with all threads summed.
func (c *Collector) Snapshot(limit int) ([]types.CPUStat, error) {
	stats := make([]types.CPUStat, 0, limit)
	cache := make(map[uint32]string)

	iter := c.objs.PidStats.Iterate()
	var pid uint32
	var stat pidStat
	for iter.Next(&pid, &stat) {
		if stat.CPUTimeNS == 0 || pid == 0 {
			continue
		}
		stats = append(stats, types.CPUStat{
			PID:  pid,
			Comm: processName(pid, cStr(stat.Comm[:]), cache),
			Ns:   stat.CPUTimeNS,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("iterating cpu stats: %w", err)
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].Ns > stats[j].Ns })
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}

	return stats, nil
}

// Reset clears the per-PID map so the next window accumulates fresh values.
func (c *Collector) Reset() error {
	for attempt := 1; attempt <= resetSweepRetries; attempt++ {
		iter := c.objs.PidStats.Iterate()
		var pid uint32
		var stat pidStat
		for iter.Next(&pid, &stat) {
			if err := c.objs.PidStats.Delete(&pid); err != nil && !errors.Is(err, ebpf.ErrKeyNotExist) {
				return fmt.Errorf("clearing pid %d: %w", pid, err)
			}
		}
		if err := iter.Err(); err != nil {
			if errors.Is(err, ebpf.ErrIterationAborted) && attempt < resetSweepRetries {
				continue
			}
			return err
		}
		break
	}
	return nil
}

type pidStat struct {
	CPUTimeNS uint64
	Comm      [16]byte
}
