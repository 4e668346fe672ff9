package monitor

import (
	"context"
	"time"

	"github.com/srodi/sysmonitor/pkg/types"
)

const (
	// DefaultBaselineSamples is the warm-up sample count used when none is given.
	DefaultBaselineSamples = 5

	defaultBaselinePause = time.Second
)

type waitFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// EstablishBaseline collects samples snapshots one pause apart and stores
// their mean CPU and memory percentages. The first sample always reports 0%
// CPU on a fresh Monitor, which biases the average low; that skew is kept.
// If ctx is cancelled the previous baseline is left in place.
func (m *Monitor) EstablishBaseline(ctx context.Context, samples int) error {
	if samples <= 0 {
		samples = DefaultBaselineSamples
	}

	var totalCPU, totalMem float64
	for i := 0; i < samples; i++ {
		if i > 0 {
			if err := m.wait(ctx, m.pause); err != nil {
				return err
			}
		}
		snapshot := m.CollectSnapshot()
		totalCPU += snapshot.CPUUsagePercent
		totalMem += snapshot.MemUsagePercent
		m.logger.Debug().
			Int("sample", i+1).
			Float64("cpu_percent", snapshot.CPUUsagePercent).
			Float64("mem_percent", snapshot.MemUsagePercent).
			Msg("Baseline sample")
	}

	m.baseline = types.Baseline{
		SampleCount: samples,
		AvgCPU:      totalCPU / float64(samples),
		AvgMem:      totalMem / float64(samples),
	}
	m.logger.Info().
		Int("samples", samples).
		Float64("avg_cpu", m.baseline.AvgCPU).
		Float64("avg_mem", m.baseline.AvgMem).
		Msg("Baseline established")
	return nil
}

// Baseline returns the stored warm-up averages.
func (m *Monitor) Baseline() types.Baseline { return m.baseline }

// BaselineCPU returns the warm-up CPU average.
func (m *Monitor) BaselineCPU() float64 { return m.baseline.AvgCPU }

// BaselineMem returns the warm-up memory average.
func (m *Monitor) BaselineMem() float64 { return m.baseline.AvgMem }
