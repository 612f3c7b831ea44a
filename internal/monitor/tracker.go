package monitor

import (
	"sort"
	"sync"

	"procwatch/internal/model"
)

// failureLimit is the number of consecutive capture failures after which
// an entity is dropped from tracking.
const failureLimit = 3

type entityState struct {
	ring     *Ring
	failures int
}

// tracker owns the per-entity history rings and consecutive-failure
// counts. The tracked set survives Start/Stop; ring contents do not.
type tracker struct {
	mu       sync.Mutex
	capacity int
	entities map[model.EntityID]*entityState
}

func newTracker(capacity int) *tracker {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &tracker{
		capacity: capacity,
		entities: make(map[model.EntityID]*entityState),
	}
}

func (t *tracker) add(entity model.EntityID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entities[entity]; ok {
		return false
	}
	t.entities[entity] = &entityState{ring: NewRing(t.capacity)}
	return true
}

func (t *tracker) remove(entity model.EntityID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entities[entity]; !ok {
		return false
	}
	delete(t.entities, entity)
	return true
}

func (t *tracker) ring(entity model.EntityID) (*Ring, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.entities[entity]
	if !ok {
		return nil, false
	}
	return st.ring, true
}

// list returns the tracked entities in a stable order so sampling cycles
// visit them deterministically.
func (t *tracker) list() []model.EntityID {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.EntityID, 0, len(t.entities))
	for e := range t.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// recordFailure counts a capture failure and removes the entity once the
// limit is reached.
func (t *tracker) recordFailure(entity model.EntityID) (removed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.entities[entity]
	if !ok {
		return false
	}
	st.failures++
	if st.failures < failureLimit {
		return false
	}
	delete(t.entities, entity)
	return true
}

func (t *tracker) recordSuccess(entity model.EntityID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.entities[entity]; ok {
		st.failures = 0
	}
}

// reset rebuilds every ring at the given capacity, keeping the tracked
// set. Used on Start so a restart begins with empty history.
func (t *tracker) reset(capacity int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if capacity > 0 {
		t.capacity = capacity
	}
	for entity := range t.entities {
		t.entities[entity] = &entityState{ring: NewRing(t.capacity)}
	}
}

func (t *tracker) clearRings() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, st := range t.entities {
		st.ring.Clear()
	}
}
