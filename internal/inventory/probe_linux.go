//go:build linux

package inventory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/jaypipes/ghw"
	"github.com/jaypipes/ghw/pkg/block"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/stone-age-io/asset-collector/internal/utils"
	"golang.org/x/sys/unix"
)

// drmRoot is where the kernel exposes connector status and EDID blobs
var drmRoot = "/sys/class/drm"

func collectMotherboard(ctx context.Context) (Motherboard, error) {
	bb, err := ghw.Baseboard()
	if err != nil {
		return Motherboard{}, fmt.Errorf("failed to read baseboard: %w", err)
	}
	return Motherboard{
		Manufacturer: bb.Vendor,
		Model:        bb.Product,
		Serial:       bb.SerialNumber,
	}, nil
}

func collectMemorySlots(ctx context.Context) ([]MemorySlot, error) {
	info, err := ghw.Memory()
	if err != nil {
		return nil, fmt.Errorf("failed to read memory modules: %w", err)
	}

	slots := make([]MemorySlot, 0, len(info.Modules))
	for _, m := range info.Modules {
		if m == nil || m.SizeBytes <= 0 {
			continue
		}
		slots = append(slots, MemorySlot{
			Size:         utils.WholeGB(float64(m.SizeBytes)),
			Manufacturer: orUnknown(m.Vendor),
		})
	}
	return slots, nil
}

func collectDisks(ctx context.Context) ([]Disk, error) {
	info, err := ghw.Block()
	if err != nil {
		return nil, fmt.Errorf("failed to read block devices: %w", err)
	}

	disks := make([]Disk, 0, len(info.Disks))
	for _, d := range info.Disks {
		// Loop devices and empty card readers are not drives
		if d.StorageController == block.STORAGE_CONTROLLER_LOOP || d.SizeBytes == 0 {
			continue
		}
		disks = append(disks, Disk{
			Model:     strings.TrimSpace(d.Model),
			Size:      utils.FormatGB(float64(d.SizeBytes)),
			Interface: d.StorageController.String(),
			Serial:    orUnknown(d.SerialNumber),
		})
	}
	return disks, nil
}

func collectGPUs(ctx context.Context) ([]GPU, error) {
	info, err := ghw.GPU()
	if err != nil {
		return nil, fmt.Errorf("failed to read graphics cards: %w", err)
	}

	gpus := make([]GPU, 0, len(info.GraphicsCards))
	for _, card := range info.GraphicsCards {
		if card.DeviceInfo == nil || card.DeviceInfo.Product == nil {
			continue
		}
		model := strings.TrimSpace(card.DeviceInfo.Product.Name)
		if card.DeviceInfo.Vendor != nil && card.DeviceInfo.Vendor.Name != "" {
			model = strings.TrimSpace(card.DeviceInfo.Vendor.Name + " " + model)
		}
		if model == "" {
			continue
		}
		// sysfs does not expose VRAM size or the active mode per adapter
		gpus = append(gpus, GPU{
			Model:      model,
			Memory:     utils.FormatGB(0),
			Driver:     card.DeviceInfo.Driver,
			Resolution: "Unknown",
		})
	}
	return gpus, nil
}

func collectOS(ctx context.Context) (OS, error) {
	info := OS{
		Name: readOSReleaseName("/etc/os-release"),
	}

	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return info, fmt.Errorf("uname failed: %w", err)
	}
	info.Version = unix.ByteSliceToString(uts.Release[:])
	info.Architecture = unix.ByteSliceToString(uts.Machine[:])

	if hi, err := host.InfoWithContext(ctx); err == nil {
		if info.Name == "" {
			info.Name = strings.TrimSpace(hi.Platform + " " + hi.PlatformVersion)
		}
		if hi.BootTime > 0 {
			info.LastBoot = time.Unix(int64(hi.BootTime), 0).UTC().Format(time.RFC3339)
		}
	}

	// The root filesystem's creation is the closest thing Linux has to an install date
	if fi, err := os.Stat("/lost+found"); err == nil {
		info.InstallDate = fi.ModTime().UTC().Format(time.RFC3339)
	}

	if u, err := user.Current(); err == nil {
		info.RegisteredUser = u.Username
	}

	if info.Name == "" {
		info.Name = "Linux"
	}
	return info, nil
}

// readOSReleaseName returns PRETTY_NAME, falling back to NAME, from an os-release file
func readOSReleaseName(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	var name, pretty string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		switch strings.TrimSpace(key) {
		case "PRETTY_NAME":
			pretty = value
		case "NAME":
			name = value
		}
	}

	if pretty != "" {
		return pretty
	}
	return name
}

// collectMonitors reads EDID from every connected DRM connector
func collectMonitors(ctx context.Context) ([]Monitor, error) {
	connectors, err := filepath.Glob(filepath.Join(drmRoot, "card*-*"))
	if err != nil {
		return nil, fmt.Errorf("failed to list DRM connectors: %w", err)
	}

	monitors := []Monitor{}
	for _, dir := range connectors {
		status, err := os.ReadFile(filepath.Join(dir, "status"))
		if err != nil || strings.TrimSpace(string(status)) != "connected" {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(dir, "edid"))
		if err != nil || len(raw) == 0 {
			continue
		}

		info, err := ParseEDID(raw)
		if err != nil {
			continue
		}
		monitors = append(monitors, info.Monitor())
	}

	return monitors, nil
}
