package agent

import (
	"sync/atomic"
	"time"
)

type HealthStatus struct {
	samplerRunning    atomic.Bool
	streamConnected   atomic.Bool
	lastSampleAt      atomic.Int64
	lastTableScanAt   atomic.Int64
	droppedDeliveries atomic.Uint64
}

func NewHealthStatus() *HealthStatus {
	return &HealthStatus{}
}

func (h *HealthStatus) SetSamplerRunning(ok bool) {
	h.samplerRunning.Store(ok)
}

func (h *HealthStatus) SetStreamConnected(ok bool) {
	h.streamConnected.Store(ok)
}

func (h *HealthStatus) MarkSample(ts time.Time) {
	h.lastSampleAt.Store(ts.UnixNano())
}

func (h *HealthStatus) MarkTableScan(ts time.Time) {
	h.lastTableScanAt.Store(ts.UnixNano())
}

func (h *HealthStatus) SetDroppedDeliveries(n uint64) {
	h.droppedDeliveries.Store(n)
}

func (h *HealthStatus) Snapshot() map[string]any {
	out := map[string]any{
		"sampler_running":    h.samplerRunning.Load(),
		"stream_connected":   h.streamConnected.Load(),
		"dropped_deliveries": h.droppedDeliveries.Load(),
	}
	if v := h.lastSampleAt.Load(); v > 0 {
		out["last_sample_at"] = time.Unix(0, v).UTC()
	}
	if v := h.lastTableScanAt.Load(); v > 0 {
		out["last_table_scan_at"] = time.Unix(0, v).UTC()
	}
	return out
}
