package monitor

import (
	"sync"

	"procwatch/internal/model"
)

// DeliveryQueue decouples the sampling cadence from the consumer's refresh
// cadence. Bounded and intentionally short: when full, the oldest envelope
// is dropped so the newest always lands. A live display wants freshness
// over completeness.
type DeliveryQueue struct {
	mu      sync.Mutex
	items   []model.Envelope
	limit   int
	dropped uint64
}

func NewDeliveryQueue(depth int) *DeliveryQueue {
	if depth <= 0 {
		depth = DefaultDeliveryDepth
	}
	return &DeliveryQueue{limit: depth}
}

// Push never blocks and never fails; overflow silently evicts the oldest
// queued envelope.
func (q *DeliveryQueue) Push(e model.Envelope) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == q.limit {
		copy(q.items, q.items[1:])
		q.items = q.items[:len(q.items)-1]
		q.dropped++
	}
	q.items = append(q.items, e)
}

// Poll returns the oldest queued envelope, or ok=false immediately when
// nothing new has arrived.
func (q *DeliveryQueue) Poll() (model.Envelope, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return model.Envelope{}, false
	}
	e := q.items[0]
	copy(q.items, q.items[1:])
	q.items = q.items[:len(q.items)-1]
	return e, true
}

func (q *DeliveryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped reports how many envelopes overflow has evicted since creation.
func (q *DeliveryQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
