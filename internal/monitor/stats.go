package monitor

import "procwatch/internal/model"

// Stats summarizes ring contents for overview panels: averages and peaks
// over whatever history the ring currently holds.
type Stats struct {
	Samples             int     `json:"samples"`
	CPUAvgPercent       float64 `json:"cpu_avg_percent"`
	CPUPeakPercent      float64 `json:"cpu_peak_percent"`
	MemoryAvgBytes      uint64  `json:"memory_avg_bytes"`
	MemoryPeakBytes     uint64  `json:"memory_peak_bytes"`
	NetAvgBytesPerSec   float64 `json:"net_avg_bytes_per_sec"`
	NetPeakBytesPerSec  float64 `json:"net_peak_bytes_per_sec"`
	DiskAvgBytesPerSec  float64 `json:"disk_avg_bytes_per_sec"`
	DiskPeakBytesPerSec float64 `json:"disk_peak_bytes_per_sec"`
}

func ComputeStats(samples []model.MetricSample) Stats {
	st := Stats{Samples: len(samples)}
	if len(samples) == 0 {
		return st
	}
	var cpuSum, netSum, diskSum float64
	var memSum uint64
	for _, s := range samples {
		cpuSum += s.CPUPercent
		if s.CPUPercent > st.CPUPeakPercent {
			st.CPUPeakPercent = s.CPUPercent
		}
		memSum += s.MemoryBytes
		if s.MemoryBytes > st.MemoryPeakBytes {
			st.MemoryPeakBytes = s.MemoryBytes
		}
		net := s.NetRxBytesPerSec + s.NetTxBytesPerSec
		netSum += net
		if net > st.NetPeakBytesPerSec {
			st.NetPeakBytesPerSec = net
		}
		diskTotal := s.DiskReadBytesPerSec + s.DiskWriteBytesPerSec
		diskSum += diskTotal
		if diskTotal > st.DiskPeakBytesPerSec {
			st.DiskPeakBytesPerSec = diskTotal
		}
	}
	n := float64(len(samples))
	st.CPUAvgPercent = cpuSum / n
	st.MemoryAvgBytes = memSum / uint64(len(samples))
	st.NetAvgBytesPerSec = netSum / n
	st.DiskAvgBytesPerSec = diskSum / n
	return st
}
