package inventory

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	edidBlockSize       = 128
	edidDescriptorStart = 54
	edidDescriptorSize  = 18
	edidDescriptorCount = 4

	descriptorTagSerial = 0xFF
	descriptorTagName   = 0xFC
)

var edidHeader = []byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}

// ErrInvalidEDID is returned for blobs that are too short or lack the fixed header
var ErrInvalidEDID = errors.New("invalid EDID block")

// pnpVendors maps common PNP manufacturer IDs to display names
var pnpVendors = map[string]string{
	"ACR": "Acer",
	"AOC": "AOC",
	"APP": "Apple",
	"AUS": "ASUS",
	"BNQ": "BenQ",
	"DEL": "Dell",
	"GSM": "LG",
	"HWP": "HP",
	"LEN": "Lenovo",
	"PHL": "Philips",
	"SAM": "Samsung",
	"SNY": "Sony",
	"VSC": "ViewSonic",
}

// EDIDInfo is what a monitor reports about itself in its base EDID block
type EDIDInfo struct {
	ManufacturerID string
	ProductCode    uint16
	Name           string
	Serial         string
	WidthCM        int
	HeightCM       int
	HActive        int
	VActive        int
}

// ParseEDID decodes the base 128-byte block
func ParseEDID(raw []byte) (*EDIDInfo, error) {
	if len(raw) < edidBlockSize || !bytes.Equal(raw[:8], edidHeader) {
		return nil, ErrInvalidEDID
	}

	info := &EDIDInfo{
		ManufacturerID: decodePNPID(binary.BigEndian.Uint16(raw[8:10])),
		ProductCode:    binary.LittleEndian.Uint16(raw[10:12]),
		WidthCM:        int(raw[21]),
		HeightCM:       int(raw[22]),
	}

	for i := 0; i < edidDescriptorCount; i++ {
		off := edidDescriptorStart + i*edidDescriptorSize
		d := raw[off : off+edidDescriptorSize]

		// Non-zero pixel clock: detailed timing. The first one is the preferred mode.
		if d[0] != 0 || d[1] != 0 {
			if info.HActive == 0 {
				info.HActive = int(d[2]) | int(d[4]&0xF0)<<4
				info.VActive = int(d[5]) | int(d[7]&0xF0)<<4
			}
			continue
		}

		switch d[3] {
		case descriptorTagName:
			info.Name = descriptorText(d[5:])
		case descriptorTagSerial:
			info.Serial = descriptorText(d[5:])
		}
	}

	return info, nil
}

// decodePNPID unpacks three 5-bit letters, 'A' == 1
func decodePNPID(v uint16) string {
	letters := []byte{
		byte((v>>10)&0x1F) + '@',
		byte((v>>5)&0x1F) + '@',
		byte(v&0x1F) + '@',
	}
	return string(letters)
}

// descriptorText trims the 0x0A terminator and space padding
func descriptorText(b []byte) string {
	if i := bytes.IndexByte(b, 0x0A); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}

// Manufacturer returns a readable vendor name, or the raw PNP ID when unknown
func (e *EDIDInfo) Manufacturer() string {
	if name, ok := pnpVendors[e.ManufacturerID]; ok {
		return name
	}
	return e.ManufacturerID
}

// DiagonalInches derives the screen diagonal from the physical size, 0 if unknown
func (e *EDIDInfo) DiagonalInches() float64 {
	if e.WidthCM == 0 || e.HeightCM == 0 {
		return 0
	}
	return math.Hypot(float64(e.WidthCM), float64(e.HeightCM)) / 2.54
}

// Monitor converts the EDID data into the record's monitor entry
func (e *EDIDInfo) Monitor() Monitor {
	m := Monitor{
		Model:        e.Name,
		Manufacturer: e.Manufacturer(),
	}
	if m.Model == "" {
		m.Model = fmt.Sprintf("%s%04X", e.ManufacturerID, e.ProductCode)
	}
	if d := e.DiagonalInches(); d > 0 {
		m.Size = fmt.Sprintf("%.0f\"", d)
	}
	if e.HActive > 0 && e.VActive > 0 {
		m.Resolution = fmt.Sprintf("%dx%d", e.HActive, e.VActive)
	}
	return m
}
