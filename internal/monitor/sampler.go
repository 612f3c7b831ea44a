package monitor

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"procwatch/internal/model"
)

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return m.runSampleLoop(gctx)
	})
	g.Go(func() error {
		return m.runTableLoop(gctx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Error("monitor loop failed", "error", err)
	}
}

// runSampleLoop drives one sampling cycle per tick. Best-effort cadence:
// a late tick drifts, it is never compensated with a catch-up burst.
func (m *Monitor) runSampleLoop(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Prime baselines right away so the first tick already yields rates.
	m.sampleCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if m.paused.Load() {
				continue
			}
			m.sampleCycle(ctx)
		}
	}
}

func (m *Monitor) sampleCycle(ctx context.Context) {
	for _, entity := range m.tracker.list() {
		if ctx.Err() != nil {
			return
		}
		m.sampleEntity(ctx, entity)
	}
}

// sampleEntity runs one capture->delta->append->deliver step. A failure
// leaves the entity's ring unappended for this cycle; no phantom zero is
// recorded. Repeated failures remove the entity from tracking.
func (m *Monitor) sampleEntity(ctx context.Context, entity model.EntityID) {
	captureCtx, cancel := context.WithTimeout(ctx, m.captureTimeout)
	snap, err := m.src.Capture(captureCtx, entity)
	cancel()
	if err != nil {
		if removed := m.tracker.recordFailure(entity); removed {
			m.delta.Reset(entity)
			m.queue.Push(model.Envelope{
				Kind:      model.EnvelopeEntityRemoved,
				EntityID:  entity,
				Timestamp: time.Now().UTC(),
			})
			m.logger.Warn("entity removed after repeated capture failures", "entity", entity, "error", err)
			return
		}
		m.logger.Debug("capture failed, cycle skipped for entity", "entity", entity, "error", err)
		return
	}
	m.tracker.recordSuccess(entity)

	sample := m.delta.Compute(entity, snap)
	if ring, ok := m.tracker.ring(entity); ok {
		ring.Append(sample)
	}
	m.queue.Push(model.Envelope{
		Kind:      model.EnvelopeSample,
		EntityID:  entity,
		Timestamp: sample.Timestamp,
		Sample:    sample,
	})
}

func (m *Monitor) runTableLoop(ctx context.Context) error {
	interval := m.opts.ProcessTableInterval
	if interval <= 0 {
		interval = DefaultProcessTableInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.scanProcesses(ctx, interval)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if m.paused.Load() {
				continue
			}
			m.scanProcesses(ctx, interval)
		}
	}
}

func (m *Monitor) scanProcesses(ctx context.Context, timeout time.Duration) {
	scanCtx, cancel := context.WithTimeout(ctx, timeout)
	records, err := m.src.Processes(scanCtx)
	cancel()
	if err != nil {
		if ctx.Err() == nil {
			m.logger.Debug("process scan failed", "error", err)
		}
		return
	}
	m.table.update(time.Now().UTC(), records)
}
