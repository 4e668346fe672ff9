package optimizer

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srodi/sysmonitor/pkg/types"
)

type priorityCall struct {
	pid   int
	delta int
}

type fakeController struct {
	deny  map[int]bool
	calls []priorityCall
}

func (f *fakeController) SetPriority(pid, niceDelta int) bool {
	f.calls = append(f.calls, priorityCall{pid: pid, delta: niceDelta})
	return !f.deny[pid]
}

func (f *fakeController) IsElevated() bool { return false }

func TestOptimizeProcessesFilters(t *testing.T) {
	ctl := &fakeController{}
	o := New(ctl, 80, zerolog.Nop())

	procs := []types.ProcessSample{
		{PID: 1, Name: "hot", CPUUsage: 90, Priority: 5},
		{PID: 2, Name: "demoted", CPUUsage: 90, Priority: 15},
		{PID: 3, Name: "cool", CPUUsage: 50, Priority: 2},
	}
	optimized := o.OptimizeProcesses(procs)

	require.Len(t, optimized, 1)
	assert.Equal(t, 1, optimized[0].PID)
	assert.Equal(t, []priorityCall{{pid: 1, delta: NiceIncrement}}, ctl.calls)
}

func TestOptimizeProcessesSkipsDenied(t *testing.T) {
	ctl := &fakeController{deny: map[int]bool{2: true}}
	o := New(ctl, 50, zerolog.Nop())

	procs := []types.ProcessSample{
		{PID: 1, CPUUsage: 70},
		{PID: 2, CPUUsage: 99},
		{PID: 3, CPUUsage: 60, Priority: -5},
	}
	optimized := o.OptimizeProcesses(procs)

	require.Len(t, optimized, 2)
	assert.Equal(t, 1, optimized[0].PID)
	assert.Equal(t, 3, optimized[1].PID)
	assert.Len(t, ctl.calls, 3, "denied process was still attempted")
}

func TestOptimizeProcessesBoundaries(t *testing.T) {
	ctl := &fakeController{}
	o := New(ctl, 80, zerolog.Nop())

	procs := []types.ProcessSample{
		{PID: 1, CPUUsage: 80, Priority: 0},
		{PID: 2, CPUUsage: 80.5, Priority: PriorityFloor},
		{PID: 3, CPUUsage: 80.5, Priority: PriorityFloor - 1},
	}
	optimized := o.OptimizeProcesses(procs)

	require.Len(t, optimized, 1)
	assert.Equal(t, 3, optimized[0].PID)
}

func TestOptimizeProcessesEmpty(t *testing.T) {
	ctl := &fakeController{}
	o := New(ctl, 80, zerolog.Nop())
	assert.Empty(t, o.OptimizeProcesses(nil))
	assert.Empty(t, ctl.calls)
}

func TestSetCPUThreshold(t *testing.T) {
	ctl := &fakeController{}
	o := New(ctl, DefaultCPUThreshold, zerolog.Nop())
	assert.Equal(t, DefaultCPUThreshold, o.CPUThreshold())

	procs := []types.ProcessSample{{PID: 9, CPUUsage: 40}}
	assert.Empty(t, o.OptimizeProcesses(procs))

	o.SetCPUThreshold(30)
	assert.Equal(t, 30, o.CPUThreshold())
	assert.Len(t, o.OptimizeProcesses(procs), 1)
}

func TestSetCPUThresholdConcurrent(t *testing.T) {
	o := New(&fakeController{}, 10, zerolog.Nop())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			o.SetCPUThreshold(v)
			_ = o.CPUThreshold()
		}(i)
	}
	wg.Wait()
	assert.GreaterOrEqual(t, o.CPUThreshold(), 0)
}

func TestOptimizeProcess(t *testing.T) {
	ctl := &fakeController{deny: map[int]bool{5: true}}
	o := New(ctl, 80, zerolog.Nop())
	assert.True(t, o.OptimizeProcess(4, 3))
	assert.False(t, o.OptimizeProcess(5, 10))
	assert.Equal(t, []priorityCall{{4, 3}, {5, 10}}, ctl.calls)
}
