// Package logging builds the zerolog logger used by a monitoring run.
package logging

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/srodi/sysmonitor/pkg/config"
)

// Output formats accepted in LogConfig.Format.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatText    = "text"
)

// Builder assembles a logger from a LogConfig, an optional console writer,
// and a run identifier.
type Builder struct {
	cfg     config.LogConfig
	console io.Writer
	runID   string
}

// NewBuilder starts a builder for cfg. Console output goes to stderr until
// WithConsole says otherwise.
func NewBuilder(cfg config.LogConfig) *Builder {
	return &Builder{cfg: cfg, console: os.Stderr}
}

// WithConsole sets the console writer. nil disables console output, which the
// CLI does while the full-screen view owns the terminal.
func (b *Builder) WithConsole(w io.Writer) *Builder {
	b.console = w
	return b
}

// WithRunID tags every entry with run_id.
func (b *Builder) WithRunID(id string) *Builder {
	b.runID = id
	return b
}

// Build returns the logger and a Closer for its file output. With no writer
// configured the logger discards everything.
func (b *Builder) Build() (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(b.cfg.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	var (
		writers []io.Writer
		closer  io.Closer = nopCloser{}
	)
	if b.console != nil {
		writers = append(writers, formatWriter(b.cfg.Format, b.console, false))
	}
	if b.cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(b.cfg.File), 0o755); err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("creating log directory: %w", err)
		}
		lj := &lumberjack.Logger{
			Filename:   b.cfg.File,
			MaxSize:    b.cfg.MaxSizeMB,
			MaxBackups: b.cfg.MaxBackups,
			LocalTime:  true,
		}
		writers = append(writers, formatWriter(b.cfg.Format, lj, true))
		closer = lj
	}
	if len(writers) == 0 {
		return zerolog.Nop(), closer, nil
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp()
	if b.runID != "" {
		ctx = ctx.Str("run_id", b.runID)
	}
	logger := ctx.Logger()

	stdlog.SetOutput(logger)
	stdlog.SetFlags(0)
	return logger, closer, nil
}

// ParseLevel maps a level name to a zerolog level. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// formatWriter wraps out for the given format. Files never get color.
func formatWriter(format string, out io.Writer, file bool) io.Writer {
	switch strings.ToLower(format) {
	case FormatJSON:
		return out
	case FormatText:
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	default:
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: file}
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
