package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srodi/sysmonitor/pkg/types"
)

type fakeSampler struct {
	calls int
	snap  types.MetricsSnapshot
}

func (f *fakeSampler) CollectSnapshot() types.MetricsSnapshot {
	f.calls++
	return f.snap
}
func (f *fakeSampler) Baseline() types.Baseline { return types.Baseline{SampleCount: 5, AvgCPU: 30} }
func (f *fakeSampler) CPUHistory() []float64    { return []float64{10, 20} }
func (f *fakeSampler) MemHistory() []float64    { return []float64{40} }

type fakePolicy struct {
	threshold int
	seen      [][]types.ProcessSample
}

func (f *fakePolicy) OptimizeProcesses(procs []types.ProcessSample) []types.ProcessSample {
	f.seen = append(f.seen, procs)
	var out []types.ProcessSample
	for _, p := range procs {
		if p.CPUUsage > float64(f.threshold) {
			out = append(out, p)
		}
	}
	return out
}
func (f *fakePolicy) CPUThreshold() int { return f.threshold }

type recordingPresenter struct {
	frames []types.Frame
	err    error
}

func (r *recordingPresenter) Present(frame types.Frame) error {
	r.frames = append(r.frames, frame)
	return r.err
}

// countdownWait lets n waits succeed, then cancels.
func countdownWait(n int, cancel context.CancelFunc) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		n--
		if n < 0 {
			cancel()
			return ctx.Err()
		}
		return nil
	}
}

func TestRunOptimizesAndLogs(t *testing.T) {
	sampler := &fakeSampler{snap: types.MetricsSnapshot{
		CPUUsagePercent: 91,
		TopProcesses: []types.ProcessSample{
			{PID: 1, Name: "a", CPUUsage: 95},
			{PID: 2, Name: "b", CPUUsage: 20},
		},
	}}
	policy := &fakePolicy{threshold: 80}
	presenter := &recordingPresenter{}
	var logs bytes.Buffer

	r := New(sampler, policy, presenter, Options{Interval: time.Second, AutoOptimize: true}, zerolog.New(&logs))
	ctx, cancel := context.WithCancel(context.Background())
	r.wait = countdownWait(2, cancel)

	require.NoError(t, r.Run(ctx))
	assert.Equal(t, 3, sampler.calls)
	require.Len(t, presenter.frames, 3)

	frame := presenter.frames[0]
	assert.True(t, frame.AutoOptimize)
	assert.Equal(t, 80, frame.Threshold)
	assert.Equal(t, time.Second, frame.Interval)
	assert.Equal(t, []float64{10, 20}, frame.CPUHistory)
	assert.Equal(t, 30.0, frame.Baseline.AvgCPU)
	require.Len(t, frame.Optimized, 1)
	assert.Equal(t, 1, frame.Optimized[0].PID)

	var optimized []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["message"] == "Optimized process" {
			optimized = append(optimized, entry)
		}
	}
	require.Len(t, optimized, 3)
	assert.Equal(t, float64(1), optimized[0]["pid"])
	assert.Equal(t, "a", optimized[0]["name"])
	assert.Equal(t, float64(95), optimized[0]["cpu"])
}

func TestRunWithoutOptimize(t *testing.T) {
	sampler := &fakeSampler{snap: types.MetricsSnapshot{TopProcesses: []types.ProcessSample{{PID: 1, CPUUsage: 99}}}}
	policy := &fakePolicy{threshold: 80}
	presenter := &recordingPresenter{}

	r := New(sampler, policy, presenter, Options{}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	r.wait = countdownWait(0, cancel)

	require.NoError(t, r.Run(ctx))
	assert.Empty(t, policy.seen)
	require.Len(t, presenter.frames, 1)
	assert.False(t, presenter.frames[0].AutoOptimize)
	assert.Empty(t, presenter.frames[0].Optimized)
	assert.Equal(t, DefaultInterval, presenter.frames[0].Interval)
}

func TestRunPresenterErrorIsNotFatal(t *testing.T) {
	sampler := &fakeSampler{}
	presenter := &recordingPresenter{err: errors.New("broken pipe")}

	r := New(sampler, nil, presenter, Options{AutoOptimize: true}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	r.wait = countdownWait(1, cancel)

	require.NoError(t, r.Run(ctx))
	assert.Len(t, presenter.frames, 2)
	assert.False(t, presenter.frames[0].AutoOptimize, "no policy means nothing to apply")
}

func TestRunAlreadyCancelled(t *testing.T) {
	sampler := &fakeSampler{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, New(sampler, nil, nil, Options{}, zerolog.Nop()).Run(ctx))
	assert.Zero(t, sampler.calls)
}

func TestRunStopsPromptlyDuringWait(t *testing.T) {
	sampler := &fakeSampler{}
	r := New(sampler, nil, nil, Options{Interval: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}
