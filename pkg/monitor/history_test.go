package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(HistoryCapacity)
	for i := 1; i <= HistoryCapacity+1; i++ {
		h.Push(float64(i))
	}

	values := h.Values()
	require.Len(t, values, HistoryCapacity)
	assert.Equal(t, 2.0, values[0], "first inserted value must be evicted")
	assert.NotContains(t, values, 1.0)
	assert.Equal(t, float64(HistoryCapacity+1), values[len(values)-1])
}

func TestHistoryPartialFill(t *testing.T) {
	h := NewHistory(4)
	_, ok := h.Last()
	assert.False(t, ok)
	assert.Empty(t, h.Values())

	h.Push(1)
	h.Push(2)
	assert.Equal(t, []float64{1, 2}, h.Values())
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 4, h.Cap())

	last, ok := h.Last()
	assert.True(t, ok)
	assert.Equal(t, 2.0, last)
}

func TestHistoryWrapsRepeatedly(t *testing.T) {
	h := NewHistory(3)
	for i := 1; i <= 10; i++ {
		h.Push(float64(i))
		assert.LessOrEqual(t, h.Len(), 3)
	}
	assert.Equal(t, []float64{8, 9, 10}, h.Values())
}

func TestHistoryValuesIsCopy(t *testing.T) {
	h := NewHistory(2)
	h.Push(5)
	values := h.Values()
	values[0] = 99
	assert.Equal(t, []float64{5}, h.Values())
}

func TestNewHistoryDefaultsCapacity(t *testing.T) {
	assert.Equal(t, HistoryCapacity, NewHistory(0).Cap())
}
