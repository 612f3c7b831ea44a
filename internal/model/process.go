package model

import "time"

// ProcessRecord is one row of the process table. Records are replaced
// wholesale each scan, never mutated in place. Platform-specific fields
// stay zero-valued where the OS does not expose them.
type ProcessRecord struct {
	PID         int32   `json:"pid"`
	Name        string  `json:"name"`
	Owner       string  `json:"owner"`
	Status      string  `json:"status"`
	Priority    int32   `json:"priority"`
	ThreadCount int32   `json:"thread_count"`
	MemoryBytes uint64  `json:"memory_bytes"`
	CPUPercent  float64 `json:"cpu_percent"`
}

type ProcessTable struct {
	Timestamp time.Time       `json:"timestamp"`
	Processes []ProcessRecord `json:"processes"`
}
