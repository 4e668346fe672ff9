package ui

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestColorFor(t *testing.T) {
	assert.Equal(t, fgGreen, ColorFor(0))
	assert.Equal(t, fgGreen, ColorFor(60))
	assert.Equal(t, fgYellow, ColorFor(60.1))
	assert.Equal(t, fgYellow, ColorFor(80))
	assert.Equal(t, fgRed, ColorFor(80.1))
}

func TestBarWidthAndFill(t *testing.T) {
	cases := []struct {
		pct    float64
		filled int
		color  string
	}{
		{0, 0, bgGreen},
		{50, 10, bgGreen},
		{75, 15, bgYellow},
		{99, 19, bgRed},
		{140, 20, bgRed},
		{-5, 0, bgGreen},
	}
	for _, tc := range cases {
		bar := Bar(tc.pct, 20)
		plain := StripANSI(bar)
		assert.Equal(t, "["+strings.Repeat(" ", 20)+"]", plain, "pct %v", tc.pct)
		assert.Equal(t, tc.filled, strings.Count(bar, tc.color+" "), "pct %v", tc.pct)
		assert.Equal(t, 20-tc.filled, strings.Count(bar, bgGray+" "), "pct %v", tc.pct)
	}
	assert.Equal(t, "[]", Bar(50, 0))
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "     ", Sparkline(nil, 5))
	assert.Equal(t, "", Sparkline([]float64{1}, 0))

	line := Sparkline([]float64{0, 50, 100}, 10)
	assert.Equal(t, "▁▄█", StripANSI(line))
	assert.Contains(t, line, fgGreen+"▁")
	assert.Contains(t, line, fgRed+"█")

	long := make([]float64, 120)
	for i := range long {
		long[i] = float64(i)
	}
	plain := StripANSI(Sparkline(long, 30))
	assert.Equal(t, 30, utf8.RuneCountInString(plain), "only the newest values are drawn")
	assert.True(t, strings.HasSuffix(plain, "█"))

	assert.Equal(t, "▁▁", StripANSI(Sparkline([]float64{0, 0}, 4)), "all-zero series stays flat")
}
