// Package sysstat samples host-wide CPU, memory and load figures for the
// dashboard header. Sampling is read-only and best effort; a signal that
// cannot be read is left at its zero value.
package sysstat

import (
	"context"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// Stats is one host sample
type Stats struct {
	CPUPercent float64
	MemUsed    uint64
	MemTotal   uint64
	Load1      float64
	Load5      float64
	Load15     float64
}

// Sample collects one snapshot. The CPU figure is the utilization since
// the previous Sample call (gopsutil keeps the last-read counters), so the
// first sample of a run reads as zero.
func Sample(ctx context.Context) Stats {
	var s Stats

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		s.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		s.MemUsed = vm.Used
		s.MemTotal = vm.Total
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		s.Load1 = avg.Load1
		s.Load5 = avg.Load5
		s.Load15 = avg.Load15
	}

	return s
}
