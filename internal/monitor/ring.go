package monitor

import (
	"sync"

	"procwatch/internal/model"
)

// Ring is a fixed-capacity FIFO of metric samples in chronological order.
// A single writer appends; Snapshot returns a copy so readers never alias
// live storage.
type Ring struct {
	mu   sync.Mutex
	buf  []model.MetricSample
	head int
	size int
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &Ring{buf: make([]model.MetricSample, capacity)}
}

func (r *Ring) Append(s model.MetricSample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.size < len(r.buf) {
		r.buf[(r.head+r.size)%len(r.buf)] = s
		r.size++
		return
	}
	// Full: overwrite the oldest slot and advance.
	r.buf[r.head] = s
	r.head = (r.head + 1) % len(r.buf)
}

// Snapshot returns the ring contents oldest-first as a defensive copy.
func (r *Ring) Snapshot() []model.MetricSample {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.MetricSample, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

func (r *Ring) Capacity() int { return len(r.buf) }

func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.head, r.size = 0, 0
}
