package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/srodi/sysmonitor/pkg/types"
	"github.com/srodi/sysmonitor/pkg/ui"
)

const (
	barWidth   = 60
	sparkWidth = 60
	nameWidth  = 19
)

// FilterConfig controls which processes appear in the process table.
type FilterConfig struct {
	HideKernel *bool // nil defaults to true so kernel threads stay hidden unless explicitly shown
}

func (cfg FilterConfig) hideKernelEnabled() bool {
	if cfg.HideKernel == nil {
		return true
	}
	return *cfg.HideKernel
}

// FilterProcesses drops rows hidden by cfg, keeping order.
func FilterProcesses(rows []types.ProcessSample, cfg FilterConfig) []types.ProcessSample {
	filtered := make([]types.ProcessSample, 0, len(rows))
	for _, row := range rows {
		if cfg.hideKernelEnabled() && isKernelThread(row) {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}

// Improvement compares current CPU usage with the baseline. It returns the
// relative change in percent (positive means lower than baseline) and false
// when there is no baseline to compare against.
func Improvement(baselineCPU, currentCPU float64) (float64, bool) {
	if baselineCPU <= 0 {
		return 0, false
	}
	return (baselineCPU - currentCPU) / baselineCPU * 100, true
}

// Renderer draws frames as a full-screen text view.
type Renderer struct {
	out    io.Writer
	filter FilterConfig
	clear  bool
	now    func() time.Time
}

// RendererOption tunes a Renderer.
type RendererOption func(*Renderer)

// WithFilter sets the process table filter.
func WithFilter(cfg FilterConfig) RendererOption {
	return func(r *Renderer) { r.filter = cfg }
}

// WithClearScreen makes each frame start by clearing the terminal.
func WithClearScreen(clear bool) RendererOption {
	return func(r *Renderer) { r.clear = clear }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) RendererOption {
	return func(r *Renderer) { r.now = now }
}

// NewRenderer returns a Renderer writing to out.
func NewRenderer(out io.Writer, opts ...RendererOption) *Renderer {
	r := &Renderer{out: out, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Present writes one frame in a single write so the screen never shows a
// half-drawn view.
func (r *Renderer) Present(frame types.Frame) error {
	var buf bytes.Buffer
	if r.clear {
		buf.WriteString("\033[H\033[2J")
	}
	r.render(&buf, frame)
	_, err := r.out.Write(buf.Bytes())
	return err
}

func (r *Renderer) render(buf *bytes.Buffer, frame types.Frame) {
	snap := frame.Snapshot
	at := snap.CollectedAt
	if at.IsZero() {
		at = r.now()
	}

	buf.WriteString(ui.Banner())
	fmt.Fprintf(buf, "Time: %s | Interval: %v\n\n", at.Format("2006-01-02 15:04:05"), frame.Interval)

	buf.WriteString(ui.Section("CPU USAGE", ui.AccentCPU))
	fmt.Fprintf(buf, "│ Current: %.2f%%  ", snap.CPUUsagePercent)
	if change, ok := Improvement(frame.Baseline.AvgCPU, snap.CPUUsagePercent); ok {
		if change > 0 {
			fmt.Fprintf(buf, "(%s improvement)", ui.Good(fmt.Sprintf("↓ %.2f%%", change)))
		} else {
			fmt.Fprintf(buf, "(%s from baseline)", ui.Bad(fmt.Sprintf("↑ %.2f%%", -change)))
		}
	}
	buf.WriteString("\n│\n")
	fmt.Fprintf(buf, "│ %s %.1f%%\n", ui.Bar(snap.CPUUsagePercent, barWidth), snap.CPUUsagePercent)
	fmt.Fprintf(buf, "│ %s\n", ui.Sparkline(frame.CPUHistory, sparkWidth))
	buf.WriteString(ui.SectionEnd(ui.AccentCPU) + "\n")

	buf.WriteString(ui.Section("MEMORY USAGE", ui.AccentMemory))
	fmt.Fprintf(buf, "│ Total: %d MB  |  Used: %d MB  |  Available: %d MB\n",
		snap.TotalMemKB/1024, snap.UsedMemKB/1024, snap.AvailableMemKB/1024)
	buf.WriteString("│\n")
	fmt.Fprintf(buf, "│ %s %.1f%%\n", ui.Bar(snap.MemUsagePercent, barWidth), snap.MemUsagePercent)
	fmt.Fprintf(buf, "│ %s\n", ui.Sparkline(frame.MemHistory, sparkWidth))
	buf.WriteString(ui.SectionEnd(ui.AccentMemory) + "\n")

	buf.WriteString(ui.Section("TOP PROCESSES (by CPU)", ui.AccentProcess))
	rows := FilterProcesses(snap.TopProcesses, r.filter)
	if len(rows) == 0 {
		buf.WriteString("│ No processes sampled in this window\n")
	} else {
		tw := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "│ PID\tName\tCPU %\tMemory (MB)\tPriority")
		for _, p := range rows {
			fmt.Fprintf(tw, "│ %d\t%s\t%.1f\t%d\t%d\n", p.PID, truncate(p.Name, nameWidth), p.CPUUsage, p.MemoryKB/1024, p.Priority)
		}
		tw.Flush()
	}
	buf.WriteString(ui.SectionEnd(ui.AccentProcess) + "\n")

	if frame.AutoOptimize {
		writeOptimization(buf, frame)
	}

	buf.WriteString("\n" + ui.Hint("Press Ctrl+C to exit"))
}

func writeOptimization(buf *bytes.Buffer, frame types.Frame) {
	buf.WriteString(ui.Section("OPTIMIZATION STATUS", ui.AccentAlert))
	lowered := make(map[int]bool, len(frame.Optimized))
	for _, p := range frame.Optimized {
		lowered[p.PID] = true
		fmt.Fprintf(buf, "│ ⚡ Optimized: %s (PID: %d, CPU %.1f%%)\n", p.Name, p.PID, p.CPUUsage)
	}
	over := 0
	for _, p := range frame.Snapshot.TopProcesses {
		if p.CPUUsage <= float64(frame.Threshold) || lowered[p.PID] {
			continue
		}
		over++
		fmt.Fprintf(buf, "│ • Over threshold: %s (PID: %d, priority %d)\n", p.Name, p.PID, p.Priority)
	}
	if len(frame.Optimized) == 0 && over == 0 {
		buf.WriteString("│ ✓ System performing optimally\n")
	}
	buf.WriteString(ui.SectionEnd(ui.AccentAlert))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func isKernelThread(row types.ProcessSample) bool {
	if row.PID == 0 {
		return true
	}
	name := strings.ToLower(row.Name)
	switch {
	case strings.HasPrefix(name, "kworker"), strings.HasPrefix(name, "ksoftirqd"), strings.HasPrefix(name, "kthreadd"),
		strings.HasPrefix(name, "migration"), strings.HasPrefix(name, "watchdog"), strings.HasPrefix(name, "rcu"),
		strings.HasPrefix(name, "irq/"):
		return true
	}
	return false
}
