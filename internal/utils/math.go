package utils

import "fmt"

const bytesPerGB = 1024 * 1024 * 1024

// FormatGB renders a byte count the way the inventory server displays sizes: "15.9GB"
func FormatGB(bytes float64) string {
	return fmt.Sprintf("%.1fGB", bytes/bytesPerGB)
}

// WholeGB truncates a byte count to whole gigabytes, as used for memory module sizes
func WholeGB(bytes float64) string {
	return fmt.Sprintf("%d", int64(bytes/bytesPerGB))
}
