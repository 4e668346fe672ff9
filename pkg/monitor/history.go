package monitor

// HistoryCapacity is the number of samples each rolling history keeps.
const HistoryCapacity = 120

// History is a fixed-capacity ring buffer of samples. Once full, each push
// overwrites the oldest value.
type History struct {
	buf  []float64
	next int
	size int
}

// NewHistory allocates a history holding at most capacity samples.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = HistoryCapacity
	}
	return &History{buf: make([]float64, capacity)}
}

// Push appends v, evicting the oldest sample when the buffer is full.
func (h *History) Push(v float64) {
	h.buf[h.next] = v
	h.next = (h.next + 1) % len(h.buf)
	if h.size < len(h.buf) {
		h.size++
	}
}

// Len returns the number of stored samples.
func (h *History) Len() int { return h.size }

// Cap returns the fixed capacity.
func (h *History) Cap() int { return len(h.buf) }

// Values returns a copy of the samples, oldest first.
func (h *History) Values() []float64 {
	out := make([]float64, h.size)
	start := (h.next - h.size + len(h.buf)) % len(h.buf)
	for i := range out {
		out[i] = h.buf[(start+i)%len(h.buf)]
	}
	return out
}

// Last returns the most recent sample.
func (h *History) Last() (float64, bool) {
	if h.size == 0 {
		return 0, false
	}
	return h.buf[(h.next-1+len(h.buf))%len(h.buf)], true
}
