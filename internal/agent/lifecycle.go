package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"procwatch/internal/stream"
)

func (a *Agent) run(ctx context.Context) error {
	if err := a.monitor.Start(a.cfg.SampleInterval, a.cfg.HistoryCapacity); err != nil {
		return fmt.Errorf("start monitor: %w", err)
	}
	a.health.SetSamplerRunning(true)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.runForwarder(gctx)
	})
	g.Go(func() error {
		return a.runAPI(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runForwarder is the in-process consumer: it drains the delivery queue at
// its own cadence and pushes frames to the stream sink. The sampler never
// waits on it.
func (a *Agent) runForwarder(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.SampleInterval)
	defer ticker.Stop()

	var lastTableAt time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.forwardPending(ctx)
			a.forwardTable(ctx, &lastTableAt)
		}
	}
}

func (a *Agent) forwardPending(ctx context.Context) {
	var frames []stream.SampleFrame
	for {
		env, ok := a.monitor.PollDelivery()
		if !ok {
			break
		}
		frames = append(frames, stream.NewSampleFrame(a.cfg.AgentID, env))
		a.health.MarkSample(env.Timestamp)
	}
	a.health.SetDroppedDeliveries(a.monitor.DroppedDeliveries())
	if len(frames) == 0 {
		return
	}
	if err := a.sink.SendSamples(ctx, frames); err != nil {
		a.health.SetStreamConnected(false)
		a.logger.Warn("sample stream send failed", "error", err, "frames", len(frames))
		return
	}
	a.health.SetStreamConnected(true)
}

func (a *Agent) forwardTable(ctx context.Context, lastTableAt *time.Time) {
	table := a.monitor.Processes()
	if table.Timestamp.IsZero() || !table.Timestamp.After(*lastTableAt) {
		return
	}
	*lastTableAt = table.Timestamp
	a.health.MarkTableScan(table.Timestamp)
	if err := a.sink.SendProcessTable(ctx, stream.NewProcessTableFrame(a.cfg.AgentID, table)); err != nil {
		a.health.SetStreamConnected(false)
		a.logger.Warn("process table send failed", "error", err)
		return
	}
	a.health.SetStreamConnected(true)
}

func (a *Agent) shutdown(ctx context.Context) {
	a.monitor.Stop()
	a.health.SetSamplerRunning(false)
	if err := a.sink.Close(ctx); err != nil {
		a.logger.Warn("stream sink close failed", "error", err)
	}
	a.health.SetStreamConnected(false)
}
