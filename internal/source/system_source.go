package source

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	gopsnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"

	"procwatch/internal/model"
)

// SystemSource reads counters from the local OS via gopsutil. Process
// handles are cached between scans so per-process CPU percentages are
// computed against the previous scan rather than process start.
type SystemSource struct {
	cores int

	mu        sync.Mutex
	procCache map[int32]*process.Process
}

func NewSystemSource() *SystemSource {
	cores, err := cpu.Counts(true)
	if err != nil || cores <= 0 {
		cores = 1
	}
	return &SystemSource{
		cores:     cores,
		procCache: make(map[int32]*process.Process),
	}
}

func (s *SystemSource) CoreCount() int { return s.cores }

func (s *SystemSource) Capture(ctx context.Context, entity model.EntityID) (model.RawCounterSnapshot, error) {
	if pid, ok := entity.PID(); ok {
		return s.captureProcess(ctx, pid)
	}
	if !entity.IsSystem() {
		return model.RawCounterSnapshot{}, fmt.Errorf("%w: unknown entity %q", ErrSourceUnavailable, entity)
	}
	return s.captureSystem(ctx)
}

func (s *SystemSource) captureSystem(ctx context.Context) (model.RawCounterSnapshot, error) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil || len(times) == 0 {
		return model.RawCounterSnapshot{}, fmt.Errorf("%w: cpu times: %v", ErrSourceUnavailable, err)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return model.RawCounterSnapshot{}, fmt.Errorf("%w: virtual memory: %v", ErrSourceUnavailable, err)
	}
	netCounters, err := gopsnet.IOCountersWithContext(ctx, false)
	if err != nil || len(netCounters) == 0 {
		return model.RawCounterSnapshot{}, fmt.Errorf("%w: net counters: %v", ErrSourceUnavailable, err)
	}

	snap := model.RawCounterSnapshot{
		Timestamp:      time.Now().UTC(),
		CPUTimeSeconds: busySeconds(times[0]),
		MemoryBytes:    vm.Used,
		NetRxBytes:     netCounters[0].BytesRecv,
		NetTxBytes:     netCounters[0].BytesSent,
	}

	// Disk counters need extra privileges on some platforms; the snapshot
	// stays usable with those fields at zero.
	if diskCounters, diskErr := disk.IOCountersWithContext(ctx); diskErr == nil {
		for _, d := range diskCounters {
			snap.DiskReadBytes += d.ReadBytes
			snap.DiskWriteBytes += d.WriteBytes
		}
	}
	return snap, nil
}

func (s *SystemSource) captureProcess(ctx context.Context, pid int32) (model.RawCounterSnapshot, error) {
	proc, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return model.RawCounterSnapshot{}, fmt.Errorf("%w: pid %d: %v", ErrSourceUnavailable, pid, err)
	}
	times, err := proc.TimesWithContext(ctx)
	if err != nil {
		return model.RawCounterSnapshot{}, fmt.Errorf("%w: pid %d cpu times: %v", ErrSourceUnavailable, pid, err)
	}
	memInfo, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return model.RawCounterSnapshot{}, fmt.Errorf("%w: pid %d memory: %v", ErrSourceUnavailable, pid, err)
	}

	snap := model.RawCounterSnapshot{
		Timestamp:      time.Now().UTC(),
		CPUTimeSeconds: times.User + times.System,
		MemoryBytes:    memInfo.RSS,
	}
	// Per-process I/O counters are privileged on several platforms and
	// per-process network counters do not exist at all; those rates stay
	// zero when unreadable.
	if io, ioErr := proc.IOCountersWithContext(ctx); ioErr == nil && io != nil {
		snap.DiskReadBytes = io.ReadBytes
		snap.DiskWriteBytes = io.WriteBytes
	}
	return snap, nil
}

func (s *SystemSource) Processes(ctx context.Context) ([]model.ProcessRecord, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list processes: %v", ErrSourceUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	alive := make(map[int32]bool, len(procs))
	for _, p := range procs {
		alive[p.Pid] = true
		if _, ok := s.procCache[p.Pid]; !ok {
			s.procCache[p.Pid] = p
		}
	}
	for pid := range s.procCache {
		if !alive[pid] {
			delete(s.procCache, pid)
		}
	}

	records := make([]model.ProcessRecord, 0, len(s.procCache))
	for _, p := range s.procCache {
		cpuPct, pctErr := p.PercentWithContext(ctx, 0)
		if pctErr != nil {
			// Died between the listing and the read.
			continue
		}
		rec := model.ProcessRecord{PID: p.Pid, CPUPercent: cpuPct}
		if name, e := p.NameWithContext(ctx); e == nil {
			rec.Name = name
		}
		if owner, e := p.UsernameWithContext(ctx); e == nil {
			rec.Owner = owner
		}
		if status, e := p.StatusWithContext(ctx); e == nil && len(status) > 0 {
			rec.Status = status[0]
		}
		if nice, e := p.NiceWithContext(ctx); e == nil {
			rec.Priority = nice
		}
		if threads, e := p.NumThreadsWithContext(ctx); e == nil {
			rec.ThreadCount = threads
		}
		if memInfo, e := p.MemoryInfoWithContext(ctx); e == nil && memInfo != nil {
			rec.MemoryBytes = memInfo.RSS
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].PID < records[j].PID })
	return records, nil
}

// busySeconds folds the non-idle CPU states into a single cumulative
// counter. Guest time is excluded because Linux already accounts it
// inside user time.
func busySeconds(t cpu.TimesStat) float64 {
	return t.User + t.System + t.Nice + t.Irq + t.Softirq + t.Steal
}
