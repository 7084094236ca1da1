package fileindex

import (
	"log"

	"github.com/shirou/gopsutil/v3/mem"
)

// MemorySnapshot is a point-in-time read of system memory, used as a
// diagnostic when the raw essence reader's growable sample buffer crosses
// a high-water mark. Mirrors deepch-vdk's format/nvr/muxer.go call into
// gopsutil/v3/disk before deciding whether to keep writing; this module
// reads rather than writes, so the resource under pressure is heap, not
// disk.
type MemorySnapshot struct {
	TotalBytes     uint64
	AvailableBytes uint64
	UsedPercent    float64
}

// CriticalMemoryPercent is the used-memory threshold at or above which
// TakeMemorySnapshot logs a warning.
const CriticalMemoryPercent = 90.0

// TakeMemorySnapshot reads current system memory via gopsutil. Errors
// are non-fatal: a failed read just means the diagnostic is skipped, not
// that the caller's real work should fail.
func TakeMemorySnapshot(logger *log.Logger) (MemorySnapshot, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		if logger != nil {
			logger.Printf("fileindex: WARN: failed to read system memory: %v", err)
		}
		return MemorySnapshot{}, err
	}
	snap := MemorySnapshot{
		TotalBytes:     v.Total,
		AvailableBytes: v.Available,
		UsedPercent:    v.UsedPercent,
	}
	if logger != nil && snap.UsedPercent >= CriticalMemoryPercent {
		logger.Printf("fileindex: WARN: system memory at %.1f%% used while growing essence buffer", snap.UsedPercent)
	}
	return snap, nil
}
