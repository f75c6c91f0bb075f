package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/stone-age-io/asset-collector/internal/utils"
	"go.uber.org/zap"
)

// Section names used in warnings and logs
const (
	SectionCPU         = "cpu"
	SectionMotherboard = "motherboard"
	SectionMemory      = "memory"
	SectionDisks       = "disks"
	SectionGPUs        = "gpus"
	SectionOS          = "os"
	SectionMonitors    = "monitors"
)

// errUnsupported marks sections a platform cannot probe
var errUnsupported = errors.New("not supported on this platform")

// Snapshot is the raw hardware probe output
type Snapshot struct {
	CPU         CPU
	Motherboard Motherboard
	Memory      Memory
	Disks       []Disk
	GPUs        []GPU
	OS          OS
	Monitors    []Monitor

	// Warnings lists the sections that could not be read
	Warnings []SectionError
}

// SectionError records a section the probe had to skip
type SectionError struct {
	Section string
	Err     error
}

func (e SectionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Section, e.Err)
}

// Failed reports whether section could not be collected
func (s *Snapshot) Failed(section string) bool {
	for _, w := range s.Warnings {
		if w.Section == section {
			return true
		}
	}
	return false
}

// Prober collects a hardware snapshot. It never fails as a whole.
type Prober interface {
	Collect(ctx context.Context) *Snapshot
}

// SystemProber probes the local machine
type SystemProber struct {
	logger *zap.Logger
}

// NewSystemProber creates a prober for the current platform
func NewSystemProber(logger *zap.Logger) *SystemProber {
	return &SystemProber{logger: logger}
}

// Collect gathers every section, logging and recording each one that fails
func (p *SystemProber) Collect(ctx context.Context) *Snapshot {
	snap := &Snapshot{}

	if v, err := collectCPU(ctx); err != nil {
		p.warn(snap, SectionCPU, err)
	} else {
		snap.CPU = v
	}

	if v, err := collectMotherboard(ctx); err != nil {
		p.warn(snap, SectionMotherboard, err)
	} else {
		snap.Motherboard = v
	}

	if v, err := collectMemory(ctx, p.logger); err != nil {
		p.warn(snap, SectionMemory, err)
	} else {
		snap.Memory = v
	}

	if v, err := collectDisks(ctx); err != nil {
		p.warn(snap, SectionDisks, err)
	} else {
		snap.Disks = v
	}

	if v, err := collectGPUs(ctx); err != nil {
		p.warn(snap, SectionGPUs, err)
	} else {
		snap.GPUs = v
	}

	if v, err := collectOS(ctx); err != nil {
		p.warn(snap, SectionOS, err)
	} else {
		snap.OS = v
	}

	// Monitor detection is the least reliable section; the operator can fill it in by hand
	if v, err := collectMonitors(ctx); err != nil {
		p.warn(snap, SectionMonitors, err)
		snap.Monitors = []Monitor{}
	} else {
		snap.Monitors = v
	}

	return snap
}

func (p *SystemProber) warn(snap *Snapshot, section string, err error) {
	p.logger.Warn("Failed to collect hardware section",
		zap.String("section", section),
		zap.Error(err))
	snap.Warnings = append(snap.Warnings, SectionError{Section: section, Err: err})
}

// collectCPU is shared by all platforms; gopsutil reads WMI on Windows and /proc on Linux
func collectCPU(ctx context.Context) (CPU, error) {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return CPU{}, fmt.Errorf("failed to read CPU info: %w", err)
	}
	if len(infos) == 0 {
		return CPU{}, fmt.Errorf("no CPU info returned")
	}

	info := CPU{Model: strings.TrimSpace(infos[0].ModelName)}

	if cores, err := cpu.CountsWithContext(ctx, false); err == nil {
		info.Cores = cores
	}
	if threads, err := cpu.CountsWithContext(ctx, true); err == nil {
		info.Threads = threads
	}

	return info, nil
}

// collectMemory reads the total from gopsutil and the slots from the platform
func collectMemory(ctx context.Context, logger *zap.Logger) (Memory, error) {
	vmem, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Memory{}, fmt.Errorf("failed to read memory info: %w", err)
	}

	info := Memory{Total: utils.FormatGB(float64(vmem.Total))}

	slots, err := collectMemorySlots(ctx)
	if err != nil {
		logger.Debug("Memory slot details unavailable", zap.Error(err))
		slots = []MemorySlot{}
	}
	info.Slots = slots

	return info, nil
}

// orUnknown substitutes "Unknown" for blank vendor strings, matching what the server expects
func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Unknown"
	}
	return s
}
