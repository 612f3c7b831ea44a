package monitor

import (
	"sync"
	"time"

	"procwatch/internal/model"
)

// minElapsed guards rate computation against divide-by-near-zero spikes
// from back-to-back captures.
const minElapsed = time.Millisecond

// DeltaEngine turns successive raw counter snapshots into rate metrics.
// One baseline per entity. A shrinking cumulative counter (reset or PID
// reuse) yields a zero rate for that field and re-bases on the current
// value instead of emitting a negative rate.
type DeltaEngine struct {
	mu    sync.Mutex
	cores int
	prev  map[model.EntityID]model.RawCounterSnapshot
	last  map[model.EntityID]model.MetricSample
}

func NewDeltaEngine(cores int) *DeltaEngine {
	if cores <= 0 {
		cores = 1
	}
	return &DeltaEngine{
		cores: cores,
		prev:  make(map[model.EntityID]model.RawCounterSnapshot),
		last:  make(map[model.EntityID]model.MetricSample),
	}
}

// Compute derives one MetricSample from the entity's previous and current
// snapshots and advances the baseline. The first observation of an entity
// reports zero rates; only memory is meaningful.
func (e *DeltaEngine) Compute(entity model.EntityID, cur model.RawCounterSnapshot) model.MetricSample {
	e.mu.Lock()
	defer e.mu.Unlock()

	prevSnap, exists := e.prev[entity]
	if exists && cur.Timestamp.Sub(prevSnap.Timestamp) < minElapsed {
		// Interval too short to derive a rate; keep the baseline and
		// reuse the previous sample verbatim.
		return e.last[entity]
	}
	e.prev[entity] = cur

	sample := model.MetricSample{
		Timestamp:   cur.Timestamp,
		MemoryBytes: cur.MemoryBytes,
	}
	if exists {
		seconds := cur.Timestamp.Sub(prevSnap.Timestamp).Seconds()
		cpuDelta := cur.CPUTimeSeconds - prevSnap.CPUTimeSeconds
		if cpuDelta < 0 {
			cpuDelta = 0
		}
		sample.CPUPercent = clampPercent(cpuDelta/seconds*100, float64(e.cores)*100)
		sample.NetRxBytesPerSec = counterRate(cur.NetRxBytes, prevSnap.NetRxBytes, seconds)
		sample.NetTxBytesPerSec = counterRate(cur.NetTxBytes, prevSnap.NetTxBytes, seconds)
		sample.DiskReadBytesPerSec = counterRate(cur.DiskReadBytes, prevSnap.DiskReadBytes, seconds)
		sample.DiskWriteBytesPerSec = counterRate(cur.DiskWriteBytes, prevSnap.DiskWriteBytes, seconds)
	}
	e.last[entity] = sample
	return sample
}

// Reset drops the entity's baseline, forcing the next Compute to behave
// like a first observation. Used on entity removal and restart.
func (e *DeltaEngine) Reset(entity model.EntityID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.prev, entity)
	delete(e.last, entity)
}

func (e *DeltaEngine) ResetAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prev = make(map[model.EntityID]model.RawCounterSnapshot)
	e.last = make(map[model.EntityID]model.MetricSample)
}

func counterRate(cur, prev uint64, seconds float64) float64 {
	if cur < prev || seconds <= 0 {
		return 0
	}
	return float64(cur-prev) / seconds
}

func clampPercent(value, max float64) float64 {
	if value < 0 {
		return 0
	}
	if value > max {
		return max
	}
	return value
}
