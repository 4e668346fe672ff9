package ui

import (
	"regexp"
	"strings"
)

// Usage above HighLoad is red, above MediumLoad yellow, otherwise green.
const (
	HighLoad   = 80.0
	MediumLoad = 60.0
)

var sparkRunes = []string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// ColorFor returns the foreground color for a usage percentage.
func ColorFor(v float64) string {
	switch {
	case v > HighLoad:
		return fgRed
	case v > MediumLoad:
		return fgYellow
	default:
		return fgGreen
	}
}

func backgroundFor(v float64) string {
	switch {
	case v > HighLoad:
		return bgRed
	case v > MediumLoad:
		return bgYellow
	default:
		return bgGreen
	}
}

// Bar draws a bracketed gauge width cells wide. Filled cells take the load
// color and the rest are gray. Percentages outside 0..100 are clamped.
func Bar(pct float64, width int) string {
	if width <= 0 {
		return "[]"
	}
	filled := int(pct / 100 * float64(width))
	filled = min(max(filled, 0), width)

	var b strings.Builder
	b.WriteString("[")
	fill := backgroundFor(pct)
	for i := 0; i < width; i++ {
		if i < filled {
			b.WriteString(fill + " " + reset)
		} else {
			b.WriteString(bgGray + " " + reset)
		}
	}
	b.WriteString("]")
	return b.String()
}

// Sparkline draws the last width values scaled to the largest one, each
// glyph colored by its own value. An empty series is width spaces.
func Sparkline(values []float64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(values) == 0 {
		return strings.Repeat(" ", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var b strings.Builder
	top := len(sparkRunes) - 1
	for _, v := range values {
		idx := min(max(int(v/peak*float64(top)), 0), top)
		b.WriteString(ColorFor(v) + sparkRunes[idx] + reset)
	}
	return b.String()
}

var ansiPattern = regexp.MustCompile("\033\\[[0-9;?]*[a-zA-Z]")

// StripANSI removes terminal escape sequences, for logs and tests.
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}
