package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"procwatch/internal/model"
	"procwatch/internal/source"
)

const (
	DefaultInterval             = 500 * time.Millisecond
	DefaultHistoryCapacity      = 50
	DefaultDeliveryDepth        = 4
	DefaultProcessTableInterval = 2 * time.Second
)

var (
	ErrAlreadyRunning = errors.New("monitor already running")
	ErrNotRunning     = errors.New("monitor not running")
	ErrUnknownEntity  = errors.New("entity not tracked")
)

// State is the sampler lifecycle: Idle -> Running -> (Paused | back to
// Idle via Stop). A stopped monitor can be started again.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	default:
		return "idle"
	}
}

// Options carries the settings that do not change between Start calls.
// Zero values fall back to the package defaults.
type Options struct {
	DeliveryDepth        int
	ProcessTableInterval time.Duration
	// CaptureTimeout bounds one Snapshot Source call; zero means twice
	// the sampling interval.
	CaptureTimeout  time.Duration
	TrackedEntities []model.EntityID
}

// Monitor owns the background sampling cycle and all state shared with
// consumers. Construct as many instances as needed; there is no package
// singleton.
type Monitor struct {
	logger *slog.Logger
	src    source.Source
	opts   Options

	mu             sync.Mutex
	state          State
	interval       time.Duration
	captureTimeout time.Duration
	cancel         context.CancelFunc
	done           chan struct{}

	paused  atomic.Bool
	delta   *DeltaEngine
	tracker *tracker
	queue   *DeliveryQueue
	table   *processTable
}

func New(src source.Source, opts Options, logger *slog.Logger) *Monitor {
	m := &Monitor{
		logger:  logger,
		src:     src,
		opts:    opts,
		delta:   NewDeltaEngine(src.CoreCount()),
		tracker: newTracker(DefaultHistoryCapacity),
		queue:   NewDeliveryQueue(opts.DeliveryDepth),
		table:   newProcessTable(),
	}
	entities := opts.TrackedEntities
	if len(entities) == 0 {
		entities = []model.EntityID{model.SystemEntity}
	}
	for _, e := range entities {
		m.tracker.add(e)
	}
	return m
}

// Start begins the background sampling cycle. interval and historyCapacity
// fall back to the defaults (500ms, 50) when non-positive. Fails with
// ErrAlreadyRunning unless the monitor is idle.
func (m *Monitor) Start(interval time.Duration, historyCapacity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateIdle {
		return ErrAlreadyRunning
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if historyCapacity <= 0 {
		historyCapacity = DefaultHistoryCapacity
	}
	m.interval = interval
	m.captureTimeout = m.opts.CaptureTimeout
	if m.captureTimeout <= 0 {
		m.captureTimeout = 2 * interval
	}

	m.tracker.reset(historyCapacity)
	m.delta.ResetAll()
	m.table.clear()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.paused.Store(false)
	m.state = StateRunning
	go m.run(ctx)

	m.logger.Info("sampler started", "interval", interval, "history_capacity", historyCapacity, "entities", len(m.tracker.list()))
	return nil
}

// Stop halts sampling, clears history, and waits until the background
// cycle has fully exited, so no capture is still in flight when it
// returns. Idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.state == StateIdle {
		m.mu.Unlock()
		return
	}
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	cancel()
	<-done

	m.mu.Lock()
	m.tracker.clearRings()
	m.delta.ResetAll()
	m.table.clear()
	m.state = StateIdle
	m.mu.Unlock()
	m.logger.Info("sampler stopped")
}

// Pause suspends sampling while retaining history. Pausing a paused
// monitor is a no-op.
func (m *Monitor) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateRunning:
		m.state = StatePaused
		m.paused.Store(true)
		return nil
	case StatePaused:
		return nil
	default:
		return ErrNotRunning
	}
}

func (m *Monitor) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StatePaused:
		m.state = StateRunning
		m.paused.Store(false)
		return nil
	case StateRunning:
		return nil
	default:
		return ErrNotRunning
	}
}

func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Track adds an entity to the sampling cycle, starting with an empty ring.
// Used while a process is selected for detailed history.
func (m *Monitor) Track(entity model.EntityID) {
	if m.tracker.add(entity) {
		m.logger.Debug("entity tracked", "entity", entity)
	}
}

func (m *Monitor) Untrack(entity model.EntityID) {
	if m.tracker.remove(entity) {
		m.delta.Reset(entity)
		m.logger.Debug("entity untracked", "entity", entity)
	}
}

// LatestSamples returns a read-only snapshot of the entity's history ring,
// oldest first.
func (m *Monitor) LatestSamples(entity model.EntityID) ([]model.MetricSample, error) {
	ring, ok := m.tracker.ring(entity)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	return ring.Snapshot(), nil
}

// PollDelivery is the non-blocking consumption primitive: ok=false means
// no new data since the last poll.
func (m *Monitor) PollDelivery() (model.Envelope, bool) {
	return m.queue.Poll()
}

// Processes returns the latest process table snapshot.
func (m *Monitor) Processes() model.ProcessTable {
	return m.table.snapshot()
}

// ClearHistory empties every ring without touching delta baselines or the
// tracked set.
func (m *Monitor) ClearHistory() {
	m.tracker.clearRings()
}

// DroppedDeliveries reports queue overflow evictions; gaps in delivered
// data, never an error.
func (m *Monitor) DroppedDeliveries() uint64 {
	return m.queue.Dropped()
}
