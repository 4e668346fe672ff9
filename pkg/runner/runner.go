// Package runner drives the sample, optimize, present cycle.
package runner

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/srodi/sysmonitor/pkg/types"
)

// DefaultInterval is used when Options.Interval is not positive.
const DefaultInterval = 2 * time.Second

// Sampler produces one snapshot per cycle and exposes the retained state.
type Sampler interface {
	CollectSnapshot() types.MetricsSnapshot
	Baseline() types.Baseline
	CPUHistory() []float64
	MemHistory() []float64
}

// Policy lowers the priority of heavy processes.
type Policy interface {
	OptimizeProcesses(procs []types.ProcessSample) []types.ProcessSample
	CPUThreshold() int
}

// Presenter shows a frame to the operator.
type Presenter interface {
	Present(frame types.Frame) error
}

// Options tune a Runner.
type Options struct {
	Interval     time.Duration
	AutoOptimize bool
}

// Runner owns the loop. It is not safe for concurrent Run calls.
type Runner struct {
	sampler   Sampler
	policy    Policy
	presenter Presenter
	opts      Options
	logger    zerolog.Logger
	wait      func(ctx context.Context, d time.Duration) error
}

// New wires a runner. policy may be nil when auto-optimize is off.
func New(sampler Sampler, policy Policy, presenter Presenter, opts Options, logger zerolog.Logger) *Runner {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Runner{
		sampler:   sampler,
		policy:    policy,
		presenter: presenter,
		opts:      opts,
		logger:    logger,
		wait:      sleep,
	}
}

// Run repeats cycles until ctx is cancelled, then returns nil.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info().
		Dur("interval", r.opts.Interval).
		Bool("auto_optimize", r.opts.AutoOptimize).
		Msg("Monitoring started")

	for {
		if ctx.Err() != nil {
			break
		}
		r.cycle()
		if err := r.wait(ctx, r.opts.Interval); err != nil {
			break
		}
	}

	r.logger.Info().Msg("Monitoring stopped")
	return nil
}

func (r *Runner) cycle() {
	snap := r.sampler.CollectSnapshot()
	frame := types.Frame{
		Snapshot:     snap,
		Baseline:     r.sampler.Baseline(),
		CPUHistory:   r.sampler.CPUHistory(),
		MemHistory:   r.sampler.MemHistory(),
		AutoOptimize: r.opts.AutoOptimize && r.policy != nil,
		Interval:     r.opts.Interval,
	}
	if r.policy != nil {
		frame.Threshold = r.policy.CPUThreshold()
	}

	if frame.AutoOptimize {
		frame.Optimized = r.policy.OptimizeProcesses(snap.TopProcesses)
		for _, p := range frame.Optimized {
			r.logger.Info().
				Int("pid", p.PID).
				Str("name", p.Name).
				Float64("cpu", p.CPUUsage).
				Msg("Optimized process")
		}
	}

	if r.presenter == nil {
		return
	}
	if err := r.presenter.Present(frame); err != nil {
		r.logger.Warn().Err(err).Msg("Presenting frame failed")
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
