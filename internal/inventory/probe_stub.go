//go:build !windows && !linux

package inventory

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"
)

// Only CPU, memory total and OS are available through gopsutil on these platforms

func collectMotherboard(ctx context.Context) (Motherboard, error) {
	return Motherboard{}, fmt.Errorf("baseboard %w (%s)", errUnsupported, runtime.GOOS)
}

func collectMemorySlots(ctx context.Context) ([]MemorySlot, error) {
	return nil, fmt.Errorf("memory slots %w (%s)", errUnsupported, runtime.GOOS)
}

func collectDisks(ctx context.Context) ([]Disk, error) {
	return nil, fmt.Errorf("disk drives %w (%s)", errUnsupported, runtime.GOOS)
}

func collectGPUs(ctx context.Context) ([]GPU, error) {
	return nil, fmt.Errorf("graphics cards %w (%s)", errUnsupported, runtime.GOOS)
}

func collectOS(ctx context.Context) (OS, error) {
	hi, err := host.InfoWithContext(ctx)
	if err != nil {
		return OS{}, fmt.Errorf("failed to read host info: %w", err)
	}

	info := OS{
		Name:         strings.TrimSpace(hi.Platform + " " + hi.PlatformVersion),
		Version:      hi.KernelVersion,
		Architecture: hi.KernelArch,
	}
	if hi.BootTime > 0 {
		info.LastBoot = time.Unix(int64(hi.BootTime), 0).UTC().Format(time.RFC3339)
	}
	return info, nil
}

func collectMonitors(ctx context.Context) ([]Monitor, error) {
	return nil, fmt.Errorf("monitor detection %w (%s)", errUnsupported, runtime.GOOS)
}
