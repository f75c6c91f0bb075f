//go:build windows

package inventory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stone-age-io/asset-collector/internal/utils"
	"github.com/yusufpapurcu/wmi"
)

// WMI result shapes. Field names must match the WMI property names;
// pointer fields are nullable properties.

type win32BaseBoard struct {
	Manufacturer string
	Product      string
	SerialNumber string
}

type win32PhysicalMemory struct {
	Capacity     uint64
	MemoryType   uint16
	Speed        *uint32
	Manufacturer *string
}

type win32DiskDrive struct {
	Model         string
	Size          *uint64
	InterfaceType string
	SerialNumber  *string
}

type win32VideoController struct {
	Name                        string
	AdapterRAM                  *uint32
	DriverVersion               string
	CurrentHorizontalResolution *uint32
	CurrentVerticalResolution   *uint32
}

type win32OperatingSystem struct {
	Caption        string
	Version        string
	OSArchitecture string
	InstallDate    time.Time
	LastBootUpTime time.Time
	RegisteredUser string
}

type win32DesktopMonitor struct {
	DeviceID            string
	Name                string
	MonitorManufacturer *string
	ScreenWidth         *uint32
	ScreenHeight        *uint32
}

func collectMotherboard(ctx context.Context) (Motherboard, error) {
	var boards []win32BaseBoard
	if err := wmi.Query("SELECT Manufacturer, Product, SerialNumber FROM Win32_BaseBoard", &boards); err != nil {
		return Motherboard{}, fmt.Errorf("Win32_BaseBoard query failed: %w", err)
	}
	if len(boards) == 0 {
		return Motherboard{}, fmt.Errorf("no baseboard reported")
	}

	b := boards[0]
	return Motherboard{
		Manufacturer: strings.TrimSpace(b.Manufacturer),
		Model:        strings.TrimSpace(b.Product),
		Serial:       strings.TrimSpace(b.SerialNumber),
	}, nil
}

func collectMemorySlots(ctx context.Context) ([]MemorySlot, error) {
	var modules []win32PhysicalMemory
	if err := wmi.Query("SELECT Capacity, MemoryType, Speed, Manufacturer FROM Win32_PhysicalMemory", &modules); err != nil {
		return nil, fmt.Errorf("Win32_PhysicalMemory query failed: %w", err)
	}

	slots := make([]MemorySlot, 0, len(modules))
	for _, m := range modules {
		slot := MemorySlot{
			Size: utils.WholeGB(float64(m.Capacity)),
			Type: strconv.Itoa(int(m.MemoryType)),
		}
		if m.Speed != nil {
			slot.Speed = strconv.FormatUint(uint64(*m.Speed), 10)
		}
		if m.Manufacturer != nil {
			slot.Manufacturer = orUnknown(*m.Manufacturer)
		} else {
			slot.Manufacturer = "Unknown"
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func collectDisks(ctx context.Context) ([]Disk, error) {
	var drives []win32DiskDrive
	if err := wmi.Query("SELECT Model, Size, InterfaceType, SerialNumber FROM Win32_DiskDrive", &drives); err != nil {
		return nil, fmt.Errorf("Win32_DiskDrive query failed: %w", err)
	}

	disks := make([]Disk, 0, len(drives))
	for _, d := range drives {
		// Card readers with no media report a null size
		if d.Size == nil || *d.Size == 0 {
			continue
		}
		disk := Disk{
			Model:     strings.TrimSpace(d.Model),
			Size:      utils.FormatGB(float64(*d.Size)),
			Interface: d.InterfaceType,
			Serial:    "Unknown",
		}
		if d.SerialNumber != nil {
			disk.Serial = orUnknown(*d.SerialNumber)
		}
		disks = append(disks, disk)
	}
	return disks, nil
}

func collectGPUs(ctx context.Context) ([]GPU, error) {
	var adapters []win32VideoController
	q := "SELECT Name, AdapterRAM, DriverVersion, CurrentHorizontalResolution, CurrentVerticalResolution FROM Win32_VideoController"
	if err := wmi.Query(q, &adapters); err != nil {
		return nil, fmt.Errorf("Win32_VideoController query failed: %w", err)
	}

	gpus := make([]GPU, 0, len(adapters))
	for _, a := range adapters {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		gpu := GPU{
			Model:      name,
			Memory:     utils.FormatGB(0),
			Driver:     a.DriverVersion,
			Resolution: "Unknown",
		}
		if a.AdapterRAM != nil {
			gpu.Memory = utils.FormatGB(float64(*a.AdapterRAM))
		}
		if a.CurrentHorizontalResolution != nil && *a.CurrentHorizontalResolution > 0 && a.CurrentVerticalResolution != nil {
			gpu.Resolution = fmt.Sprintf("%dx%d", *a.CurrentHorizontalResolution, *a.CurrentVerticalResolution)
		}
		gpus = append(gpus, gpu)
	}
	return gpus, nil
}

func collectOS(ctx context.Context) (OS, error) {
	var systems []win32OperatingSystem
	q := "SELECT Caption, Version, OSArchitecture, InstallDate, LastBootUpTime, RegisteredUser FROM Win32_OperatingSystem"
	if err := wmi.Query(q, &systems); err != nil {
		return OS{}, fmt.Errorf("Win32_OperatingSystem query failed: %w", err)
	}
	if len(systems) == 0 {
		return OS{}, fmt.Errorf("no operating system reported")
	}

	s := systems[0]
	info := OS{
		Name:           strings.TrimSpace(s.Caption),
		Version:        s.Version,
		Architecture:   s.OSArchitecture,
		RegisteredUser: s.RegisteredUser,
	}
	if !s.InstallDate.IsZero() {
		info.InstallDate = s.InstallDate.UTC().Format(time.RFC3339)
	}
	if !s.LastBootUpTime.IsZero() {
		info.LastBoot = s.LastBootUpTime.UTC().Format(time.RFC3339)
	}
	return info, nil
}

func collectMonitors(ctx context.Context) ([]Monitor, error) {
	var displays []win32DesktopMonitor
	q := "SELECT DeviceID, Name, MonitorManufacturer, ScreenWidth, ScreenHeight FROM Win32_DesktopMonitor"
	if err := wmi.Query(q, &displays); err != nil {
		return nil, fmt.Errorf("Win32_DesktopMonitor query failed: %w", err)
	}

	monitors := []Monitor{}
	for _, d := range displays {
		if d.DeviceID == "" || strings.TrimSpace(d.Name) == "" {
			continue
		}
		m := Monitor{Model: strings.TrimSpace(d.Name)}
		if d.MonitorManufacturer != nil {
			m.Manufacturer = *d.MonitorManufacturer
		}
		if d.ScreenWidth != nil && *d.ScreenWidth > 0 && d.ScreenHeight != nil && *d.ScreenHeight > 0 {
			m.Resolution = fmt.Sprintf("%dx%d", *d.ScreenWidth, *d.ScreenHeight)
		}
		monitors = append(monitors, m)
	}
	return monitors, nil
}
