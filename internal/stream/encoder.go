package stream

import (
	"time"

	"procwatch/internal/model"
)

// Sink receives sampled data for delivery to a remote collector.
type Sink interface {
	SendSamples(ctx Context, frames []SampleFrame) error
	SendProcessTable(ctx Context, frame ProcessTableFrame) error
	Close(ctx Context) error
}

type Context interface {
	Done() <-chan struct{}
	Err() error
	Deadline() (time.Time, bool)
	Value(key any) any
}

type SampleFrame struct {
	AgentID       string             `json:"agent_id"`
	Kind          string             `json:"kind"`
	EntityID      string             `json:"entity_id"`
	TimestampUnix int64              `json:"timestamp_unix"`
	Sample        model.MetricSample `json:"sample"`
}

type ProcessTableFrame struct {
	AgentID       string                `json:"agent_id"`
	TimestampUnix int64                 `json:"timestamp_unix"`
	Processes     []model.ProcessRecord `json:"processes"`
}

func NewSampleFrame(agentID string, e model.Envelope) SampleFrame {
	return SampleFrame{
		AgentID:       agentID,
		Kind:          string(e.Kind),
		EntityID:      string(e.EntityID),
		TimestampUnix: e.Timestamp.Unix(),
		Sample:        e.Sample,
	}
}

func NewProcessTableFrame(agentID string, t model.ProcessTable) ProcessTableFrame {
	return ProcessTableFrame{
		AgentID:       agentID,
		TimestampUnix: t.Timestamp.Unix(),
		Processes:     append([]model.ProcessRecord(nil), t.Processes...),
	}
}
