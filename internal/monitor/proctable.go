package monitor

import (
	"sort"
	"sync"
	"time"

	"procwatch/internal/model"
)

// missedScanLimit is how many consecutive scans a PID may be absent from
// before its record drops. One missed scan keeps the last-known record,
// debouncing transient disappearance during a racy listing.
const missedScanLimit = 2

type processTable struct {
	mu      sync.Mutex
	at      time.Time
	current map[int32]model.ProcessRecord
	missed  map[int32]int
}

func newProcessTable() *processTable {
	return &processTable{
		current: make(map[int32]model.ProcessRecord),
		missed:  make(map[int32]int),
	}
}

func (pt *processTable) update(at time.Time, records []model.ProcessRecord) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.at = at

	seen := make(map[int32]bool, len(records))
	for _, rec := range records {
		seen[rec.PID] = true
		pt.current[rec.PID] = rec
		delete(pt.missed, rec.PID)
	}
	for pid := range pt.current {
		if seen[pid] {
			continue
		}
		pt.missed[pid]++
		if pt.missed[pid] >= missedScanLimit {
			delete(pt.current, pid)
			delete(pt.missed, pid)
		}
	}
}

func (pt *processTable) snapshot() model.ProcessTable {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	out := model.ProcessTable{Timestamp: pt.at}
	out.Processes = make([]model.ProcessRecord, 0, len(pt.current))
	for _, rec := range pt.current {
		out.Processes = append(out.Processes, rec)
	}
	sort.Slice(out.Processes, func(i, j int) bool { return out.Processes[i].PID < out.Processes[j].PID })
	return out
}

func (pt *processTable) clear() {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.at = time.Time{}
	pt.current = make(map[int32]model.ProcessRecord)
	pt.missed = make(map[int32]int)
}
