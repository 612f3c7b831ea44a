package model

import "time"

type EnvelopeKind string

const (
	EnvelopeSample        EnvelopeKind = "sample"
	EnvelopeEntityRemoved EnvelopeKind = "entity_removed"
)

// Envelope is the unit handed from the sampler to consumers through the
// delivery queue.
type Envelope struct {
	Kind      EnvelopeKind `json:"kind"`
	EntityID  EntityID     `json:"entity_id"`
	Timestamp time.Time    `json:"timestamp"`
	Sample    MetricSample `json:"sample,omitempty"`
}
