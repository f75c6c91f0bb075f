package inventory

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// TimestampLayout is ISO-8601 UTC with microseconds and a Z suffix
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// ErrEmptyName is returned when the operator enters a blank asset name
var ErrEmptyName = errors.New("asset name must not be empty")

// ValidateName trims the operator's input and rejects blank names
func ValidateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

// FormatTimestamp renders t as the record's createdAt value
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Assemble merges probe output, the operator's name and the operator-edited
// monitor list into the record sent to the server.
func Assemble(snap *Snapshot, name string, monitors []Monitor, now time.Time) (*AssetRecord, error) {
	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		snap = &Snapshot{}
	}

	rec := &AssetRecord{
		Name:        name,
		CPU:         snap.CPU,
		Motherboard: snap.Motherboard,
		Memory: Memory{
			Total: snap.Memory.Total,
			Slots: nonNil(snap.Memory.Slots),
		},
		Disks:     nonNil(snap.Disks),
		GPUs:      nonNil(snap.GPUs),
		OS:        snap.OS,
		Monitors:  nonNil(slices.Clone(monitors)),
		CreatedAt: FormatTimestamp(now),
	}

	return rec, nil
}

// nonNil keeps arrays from serializing as null
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
