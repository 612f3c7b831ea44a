package source

import (
	"context"
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v4/cpu"

	"procwatch/internal/model"
)

func TestBusySeconds(t *testing.T) {
	got := busySeconds(cpu.TimesStat{
		User:    10,
		System:  5,
		Nice:    1,
		Irq:     0.5,
		Softirq: 0.25,
		Steal:   0.25,
		Idle:    100,
		Iowait:  20,
		Guest:   3,
	})
	if got != 17 {
		t.Errorf("busySeconds = %v, want 17 (idle, iowait and guest excluded)", got)
	}
}

func TestCaptureUnknownEntity(t *testing.T) {
	s := NewSystemSource()
	_, err := s.Capture(context.Background(), model.EntityID("bogus"))
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("got %v, want ErrSourceUnavailable", err)
	}
}

func TestCoreCountPositive(t *testing.T) {
	if got := NewSystemSource().CoreCount(); got < 1 {
		t.Errorf("core count %d", got)
	}
}
