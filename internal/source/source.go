package source

import (
	"context"
	"errors"

	"procwatch/internal/model"
)

// ErrSourceUnavailable marks a transient OS query failure: permission
// denied, entity vanished mid-read, or a counter the platform does not
// expose. Callers skip the cycle rather than abort.
var ErrSourceUnavailable = errors.New("source unavailable")

// Source reads raw OS counters. Capture must be safe to call at sub-second
// cadence without leaking handles.
type Source interface {
	Capture(ctx context.Context, entity model.EntityID) (model.RawCounterSnapshot, error)
	Processes(ctx context.Context) ([]model.ProcessRecord, error)
	CoreCount() int
}
