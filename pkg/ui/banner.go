package ui

import (
	"fmt"
	"strings"
)

const (
	reset      = "\033[0m"
	bold       = "\033[1m"
	dim        = "\033[90m"
	frameCyan  = "\033[1;36m"
	cpuAmber   = "\033[1;33m"
	memViolet  = "\033[1;35m"
	procGreen  = "\033[1;32m"
	alertRed   = "\033[1;31m"
	fgRed      = "\033[31m"
	fgYellow   = "\033[33m"
	fgGreen    = "\033[32m"
	bgRed      = "\033[41m"
	bgYellow   = "\033[43m"
	bgGreen    = "\033[42m"
	bgGray     = "\033[47m"
	titleWidth = 72
)

// Banner renders the boxed title shown at the top of every frame.
func Banner() string {
	title := "SYSTEM PERFORMANCE MONITOR & OPTIMIZER"
	pad := titleWidth - len(title)
	left := pad / 2

	var b strings.Builder
	b.WriteString(frameCyan + "╔" + strings.Repeat("═", titleWidth) + "╗" + reset + "\n")
	b.WriteString(frameCyan + "║" + strings.Repeat(" ", left) + title + strings.Repeat(" ", pad-left) + "║" + reset + "\n")
	b.WriteString(frameCyan + "╚" + strings.Repeat("═", titleWidth) + "╝" + reset + "\n")
	return b.String()
}

// Startup renders the start-up notice with the effective settings.
func Startup(version string, settings [][2]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%sSysMonitor %s%s starting...\n\n", bold, version, reset)
	b.WriteString("Configuration:\n")
	for _, kv := range settings {
		fmt.Fprintf(&b, "  %s: %s\n", kv[0], kv[1])
	}
	b.WriteString("\n")
	return b.String()
}

// Section opens a titled panel in the given accent.
func Section(title, accent string) string {
	head := "┌─ " + title + " "
	fill := titleWidth + 2 - len([]rune(head)) - 1
	if fill < 0 {
		fill = 0
	}
	return accent + head + strings.Repeat("─", fill) + "┐" + reset + "\n"
}

// SectionEnd closes a panel opened by Section.
func SectionEnd(accent string) string {
	return accent + "└" + strings.Repeat("─", titleWidth) + "┘" + reset + "\n"
}

// Panel accents.
const (
	AccentCPU     = cpuAmber
	AccentMemory  = memViolet
	AccentProcess = procGreen
	AccentAlert   = alertRed
)

// Hint renders a dimmed footer line.
func Hint(text string) string {
	return dim + text + reset + "\n"
}

// Good and Bad color short inline values.
func Good(s string) string { return fgGreen + s + reset }
func Bad(s string) string  { return fgRed + s + reset }
