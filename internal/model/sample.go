package model

import "time"

// RawCounterSnapshot is one read of the OS cumulative counters for an
// entity. Cumulative fields only grow while the entity lives; a decrease
// signals a counter reset or PID reuse. Never exposed to consumers.
type RawCounterSnapshot struct {
	Timestamp      time.Time
	CPUTimeSeconds float64
	MemoryBytes    uint64
	NetRxBytes     uint64
	NetTxBytes     uint64
	DiskReadBytes  uint64
	DiskWriteBytes uint64
}

// MetricSample is one aggregated point of the rolling history. Immutable
// once produced.
type MetricSample struct {
	Timestamp            time.Time `json:"timestamp"`
	CPUPercent           float64   `json:"cpu_percent"`
	MemoryBytes          uint64    `json:"memory_bytes"`
	NetRxBytesPerSec     float64   `json:"net_rx_bytes_per_sec"`
	NetTxBytesPerSec     float64   `json:"net_tx_bytes_per_sec"`
	DiskReadBytesPerSec  float64   `json:"disk_read_bytes_per_sec"`
	DiskWriteBytesPerSec float64   `json:"disk_write_bytes_per_sec"`
}
