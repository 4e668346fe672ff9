package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/srodi/sysmonitor/pkg/collector/cpu"
	"github.com/srodi/sysmonitor/pkg/collector/host"
	"github.com/srodi/sysmonitor/pkg/config"
	"github.com/srodi/sysmonitor/pkg/logging"
	"github.com/srodi/sysmonitor/pkg/monitor"
	"github.com/srodi/sysmonitor/pkg/optimizer"
	"github.com/srodi/sysmonitor/pkg/report"
	"github.com/srodi/sysmonitor/pkg/runner"
	"github.com/srodi/sysmonitor/pkg/ui"
)

type startOptions struct {
	configPath      string
	optimize        bool
	interval        string
	threshold       int
	quiet           bool
	baselineSamples int
	schedBPF        bool
	hideKernel      bool
	logFile         string
	logLevel        string
	logFormat       string
}

func newStartCmd() *cobra.Command {
	opts := &startOptions{}
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start monitoring",
		Example: `  sysmonitor start
  sysmonitor start -o -i 5
  sysmonitor start --optimize --interval 3s --threshold 70`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runStart(cmd.Context(), cmd.OutOrStdout(), cfg, path)
		},
	}

	opts.bind(cmd.Flags())
	return cmd
}

func (opts *startOptions) bind(f *pflag.FlagSet) {
	defaults := config.Default()
	f.StringVarP(&opts.configPath, "config", "c", "", "config file (default $"+config.EnvConfigPath+" or ~/.config/sysmonitor/config.yaml)")
	f.BoolVarP(&opts.optimize, "optimize", "o", defaults.Optimize, "lower the priority of processes above the CPU threshold")
	f.StringVarP(&opts.interval, "interval", "i", defaults.Interval.String(), "update interval (seconds or a duration such as 1500ms)")
	f.IntVarP(&opts.threshold, "threshold", "t", defaults.Threshold, "CPU threshold in percent of one CPU (may exceed 100 for multi-threaded processes)")
	f.BoolVarP(&opts.quiet, "quiet", "q", defaults.Quiet, "no live view, log only")
	f.IntVar(&opts.baselineSamples, "baseline-samples", defaults.BaselineSamples, "samples taken to establish the baseline")
	f.BoolVar(&opts.schedBPF, "sched-bpf", defaults.SchedBPF, "measure process CPU with the eBPF sched_switch collector (linux, bpf builds)")
	f.BoolVar(&opts.hideKernel, "hide-kernel", defaults.HideKernel, "hide kernel threads such as kworker, ksoftirqd, etc")
	f.StringVar(&opts.logFile, "log-file", defaults.Log.File, "write logs to this file, rotated")
	f.StringVar(&opts.logLevel, "log-level", defaults.Log.Level, "log level (debug, info, warn, error)")
	f.StringVar(&opts.logFormat, "log-format", defaults.Log.Format, "log format (console, json, text)")
}

// resolveConfig loads the config file, if any, and applies the flags the
// user set explicitly on top of it.
func resolveConfig(cmd *cobra.Command, opts *startOptions) (config.Config, string, error) {
	path := config.ResolvePath(opts.configPath)
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, "", err
	}

	changed := cmd.Flags().Changed
	if changed("interval") {
		d, err := config.ParseInterval(opts.interval)
		if err != nil {
			return config.Config{}, "", err
		}
		cfg.Interval = d
	}
	if changed("optimize") {
		cfg.Optimize = opts.optimize
	}
	if changed("threshold") {
		cfg.Threshold = opts.threshold
	}
	if changed("quiet") {
		cfg.Quiet = opts.quiet
	}
	if changed("baseline-samples") {
		cfg.BaselineSamples = opts.baselineSamples
	}
	if changed("sched-bpf") {
		cfg.SchedBPF = opts.schedBPF
	}
	if changed("hide-kernel") {
		cfg.HideKernel = opts.hideKernel
	}
	if changed("log-file") {
		cfg.Log.File = opts.logFile
	}
	if changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = opts.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, "", err
	}
	return cfg, path, nil
}

func runStart(parent context.Context, out io.Writer, cfg config.Config, path string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	interactive := !cfg.Quiet && isTerminal(out)

	// The live view owns the terminal, so console logs only go out in quiet mode.
	var console io.Writer
	if cfg.Quiet {
		console = os.Stderr
	}
	logger, closer, err := logging.NewBuilder(cfg.Log).
		WithConsole(console).
		WithRunID(uuid.NewString()).
		Build()
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer closer.Close()

	var srcOpts []host.Option
	if cfg.SchedBPF {
		collector, err := cpu.NewCollector()
		if err != nil {
			return fmt.Errorf("initializing CPU collector: %w", err)
		}
		defer collector.Close()
		srcOpts = append(srcOpts, host.WithScheduler(collector))
	}
	src := host.New(logger, srcOpts...)
	mon := monitor.New(src, logger)
	opt := optimizer.New(src, cfg.Threshold, logger)

	logger.Info().
		Str("config", path).
		Dur("interval", cfg.Interval).
		Bool("optimize", cfg.Optimize).
		Int("threshold", cfg.Threshold).
		Bool("sched_bpf", cfg.SchedBPF).
		Msg("Starting sysmonitor")

	if !cfg.Quiet {
		fmt.Fprint(out, ui.Startup(version, settingsOf(cfg, path)))
	}
	if cfg.Optimize && !src.IsElevated() {
		logger.Warn().Msg("Auto-optimize without elevated privileges can only lower priorities of processes you own")
		if !cfg.Quiet {
			fmt.Fprintln(out, "Auto-optimization: ENABLED")
			fmt.Fprintln(out, "Note: run as root or Administrator for best results")
			fmt.Fprintln(out)
		}
	}

	if err := establishBaseline(ctx, mon, cfg, out); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	if path != "" {
		go watchThreshold(ctx, path, logger, opt)
	}

	var presenter runner.Presenter
	if !cfg.Quiet {
		presenter = report.NewRenderer(out,
			report.WithFilter(report.FilterConfig{HideKernel: &cfg.HideKernel}),
			report.WithClearScreen(interactive),
		)
	}
	restore := func() {}
	if interactive {
		restore = enableSingleView(out, logger)
	}

	r := runner.New(mon, opt, presenter, runner.Options{
		Interval:     cfg.Interval,
		AutoOptimize: cfg.Optimize,
	}, logger)
	err = r.Run(ctx)
	restore()

	if !cfg.Quiet {
		fmt.Fprintln(out, "\nMonitoring stopped successfully")
	}
	return err
}

// establishBaseline runs the warm-up samples. The monitor logs the result.
func establishBaseline(ctx context.Context, mon *monitor.Monitor, cfg config.Config, out io.Writer) error {
	if !cfg.Quiet {
		fmt.Fprintln(out, "Establishing baseline metrics...")
	}
	if err := mon.EstablishBaseline(ctx, cfg.BaselineSamples); err != nil {
		return fmt.Errorf("establishing baseline: %w", err)
	}
	return nil
}

func watchThreshold(ctx context.Context, path string, logger zerolog.Logger, opt *optimizer.Optimizer) {
	err := config.Watch(ctx, path, logger, func(cfg config.Config) {
		if cfg.Threshold != opt.CPUThreshold() {
			logger.Info().Int("threshold", cfg.Threshold).Msg("CPU threshold updated")
			opt.SetCPUThreshold(cfg.Threshold)
		}
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Config reload disabled")
	}
}

func settingsOf(cfg config.Config, path string) [][2]string {
	enabled := func(b bool) string {
		if b {
			return "Enabled"
		}
		return "Disabled"
	}
	source := path
	if source == "" {
		source = "built-in defaults"
	}
	return [][2]string{
		{"Config", source},
		{"Update Interval", cfg.Interval.String()},
		{"Auto-Optimize", enabled(cfg.Optimize)},
		{"CPU Threshold", strconv.Itoa(cfg.Threshold) + "%"},
		{"Baseline Samples", strconv.Itoa(cfg.BaselineSamples)},
		{"Scheduler CPU (eBPF)", enabled(cfg.SchedBPF)},
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
