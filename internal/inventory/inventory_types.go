package inventory

// AssetRecord is the document uploaded to the inventory server.
// Every section is always present on the wire; sections the probe could
// not read carry zero values and empty arrays.
type AssetRecord struct {
	Name        string      `json:"name"`
	CPU         CPU         `json:"cpu"`
	Motherboard Motherboard `json:"motherboard"`
	Memory      Memory      `json:"memory"`
	Disks       []Disk      `json:"disks"`
	GPUs        []GPU       `json:"gpus"`
	OS          OS          `json:"os"`
	Monitors    []Monitor   `json:"monitors"`
	CreatedAt   string      `json:"createdAt"`
}

// CPU contains processor information
type CPU struct {
	Model   string `json:"model"`
	Cores   int    `json:"cores"`   // Physical cores
	Threads int    `json:"threads"` // Logical processors
}

// Motherboard contains baseboard information
type Motherboard struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Serial       string `json:"serial"`
}

// Memory contains installed memory and per-slot details
type Memory struct {
	Total string       `json:"total"` // "15.9GB"
	Slots []MemorySlot `json:"slots"`
}

// MemorySlot is one populated DIMM slot
type MemorySlot struct {
	Size         string `json:"size"` // whole GB, "8"
	Type         string `json:"type"`
	Speed        string `json:"speed"`
	Manufacturer string `json:"manufacturer"`
}

// Disk is one physical drive
type Disk struct {
	Model     string `json:"model"`
	Size      string `json:"size"`      // "476.9GB"
	Interface string `json:"interface"` // "SCSI", "NVMe", "IDE", ...
	Serial    string `json:"serial"`
}

// GPU is one display adapter
type GPU struct {
	Model      string `json:"model"`
	Memory     string `json:"memory"` // "4.0GB"
	Driver     string `json:"driver"`
	Resolution string `json:"resolution"` // "1920x1080" or "Unknown"
}

// OS contains operating system information
type OS struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	Architecture   string `json:"architecture"`
	InstallDate    string `json:"install_date"`
	LastBoot       string `json:"last_boot"`
	RegisteredUser string `json:"registered_user"`
}

// Monitor describes one display. Any field may be empty.
type Monitor struct {
	Model        string `json:"model"`
	Size         string `json:"size"`
	Resolution   string `json:"resolution"`
	Manufacturer string `json:"manufacturer"`
}

// Platform-specific implementations:
// - Windows: internal/inventory/probe_windows.go
// - Linux:   internal/inventory/probe_linux.go
// - Stub:    internal/inventory/probe_stub.go (for other platforms)
