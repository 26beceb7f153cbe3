// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sysinfo samples host CPU and memory usage for the status bar.
//
// Local inference is usually CPU or memory bound, so the figures tell the
// user whether a slow reply is the model working or the client stuck.
package sysinfo

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const bytesPerGB = 1024 * 1024 * 1024

// Snapshot is one sample of host usage.
type Snapshot struct {
	CPUPercent float64
	MemPercent float64
	MemUsedGB  float64
	MemTotalGB float64
}

// Sampler produces snapshots.
type Sampler interface {
	Sample() (Snapshot, error)
}

// Host samples the local machine through gopsutil.
type Host struct{}

// Sample reads CPU usage since the previous call and current memory usage.
// The first call reports CPU usage since boot.
func (Host) Sample() (Snapshot, error) {
	var snap Snapshot

	percents, err := cpu.Percent(0, false)
	if err != nil {
		return snap, fmt.Errorf("cpu usage: %w", err)
	}
	if len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return snap, fmt.Errorf("memory usage: %w", err)
	}
	snap.MemPercent = vm.UsedPercent
	snap.MemUsedGB = float64(vm.Used) / bytesPerGB
	snap.MemTotalGB = float64(vm.Total) / bytesPerGB

	return snap, nil
}

// Text renders "CPU 12% MEM 48%".
func (s Snapshot) Text() string {
	return fmt.Sprintf("CPU %.0f%% MEM %.0f%%", s.CPUPercent, s.MemPercent)
}

// Bar renders a fixed-width usage bar for percent.
func Bar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(percent * float64(width) / 100)
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
