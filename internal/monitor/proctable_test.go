package monitor

import (
	"testing"
	"time"

	"procwatch/internal/model"
)

func rec(pid int32, name string) model.ProcessRecord {
	return model.ProcessRecord{PID: pid, Name: name, Status: "sleeping"}
}

func TestProcessTableSortedSnapshot(t *testing.T) {
	pt := newProcessTable()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	pt.update(at, []model.ProcessRecord{rec(30, "c"), rec(10, "a"), rec(20, "b")})
	got := pt.snapshot()
	if !got.Timestamp.Equal(at) {
		t.Errorf("timestamp: got %v, want %v", got.Timestamp, at)
	}
	if len(got.Processes) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got.Processes))
	}
	for i, want := range []int32{10, 20, 30} {
		if got.Processes[i].PID != want {
			t.Errorf("record %d: got pid %d, want %d", i, got.Processes[i].PID, want)
		}
	}
}

func TestProcessTableDebouncesOneMissedScan(t *testing.T) {
	pt := newProcessTable()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	pt.update(at, []model.ProcessRecord{rec(10, "a"), rec(20, "b")})

	// PID 20 absent once: last-known record is retained.
	pt.update(at.Add(2*time.Second), []model.ProcessRecord{rec(10, "a")})
	if got := pt.snapshot(); len(got.Processes) != 2 {
		t.Fatalf("one missed scan must retain the record, got %d records", len(got.Processes))
	}

	// Absent a second consecutive time: gone.
	pt.update(at.Add(4*time.Second), []model.ProcessRecord{rec(10, "a")})
	got := pt.snapshot()
	if len(got.Processes) != 1 || got.Processes[0].PID != 10 {
		t.Fatalf("two missed scans must drop the record, got %+v", got.Processes)
	}
}

func TestProcessTableReappearanceResetsMissCount(t *testing.T) {
	pt := newProcessTable()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	pt.update(at, []model.ProcessRecord{rec(10, "a")})
	pt.update(at.Add(2*time.Second), nil)                                 // missed once
	pt.update(at.Add(4*time.Second), []model.ProcessRecord{rec(10, "a")}) // back
	pt.update(at.Add(6*time.Second), nil)                                 // missed once again

	if got := pt.snapshot(); len(got.Processes) != 1 {
		t.Fatalf("reappearance must reset the miss count, got %d records", len(got.Processes))
	}
}

func TestProcessTableClear(t *testing.T) {
	pt := newProcessTable()
	pt.update(time.Now().UTC(), []model.ProcessRecord{rec(10, "a")})
	pt.clear()
	got := pt.snapshot()
	if len(got.Processes) != 0 || !got.Timestamp.IsZero() {
		t.Errorf("expected empty table after clear, got %+v", got)
	}
}
