package ledger

import (
	"strings"
	"time"
)

// ComponentType identifies the kind of hardware a scanned device is.
type ComponentType string

const (
	ComponentGlasses    ComponentType = "glasses"
	ComponentController ComponentType = "controller"
	ComponentBattery    ComponentType = "battery"
)

var allComponents = []ComponentType{
	ComponentGlasses,
	ComponentController,
	ComponentBattery,
}

var componentSet = func() map[ComponentType]struct{} {
	set := make(map[ComponentType]struct{}, len(allComponents))
	for _, component := range allComponents {
		set[component] = struct{}{}
	}
	return set
}()

var componentLabels = map[ComponentType]string{
	ComponentGlasses:    "Glasses",
	ComponentController: "Controller",
	ComponentBattery:    "Battery",
}

// AllComponents returns the ordered list of known component types.
func AllComponents() []ComponentType {
	cp := make([]ComponentType, len(allComponents))
	copy(cp, allComponents)
	return cp
}

// ParseComponent converts a string into a known ComponentType.
func ParseComponent(value string) (ComponentType, bool) {
	normalized := ComponentType(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := componentSet[normalized]
	return normalized, ok
}

// Label returns the display label for the component type.
func (c ComponentType) Label() string {
	if label, ok := componentLabels[c]; ok {
		return label
	}
	return string(c)
}

// ScanMode selects which recognition backend receives frames.
type ScanMode string

const (
	ModeBarcode ScanMode = "barcode"
	ModeOCR     ScanMode = "ocr"
	// ModeHybrid is representable for forward compatibility; the station UI
	// never selects it.
	ModeHybrid ScanMode = "hybrid"
)

var modeSet = map[ScanMode]struct{}{
	ModeBarcode: {},
	ModeOCR:     {},
	ModeHybrid:  {},
}

// ParseMode converts a string into a known ScanMode.
func ParseMode(value string) (ScanMode, bool) {
	normalized := ScanMode(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := modeSet[normalized]
	return normalized, ok
}

// Record is one accepted scan. Records are created exactly once and never
// mutated; only Clear removes them.
type Record struct {
	DeviceID  string
	Component ComponentType
	Mode      ScanMode
	ScannedAt time.Time
}

// Snapshot is a consistent point-in-time copy of the ledger contents.
type Snapshot struct {
	TakenAt time.Time
	Records []Record
}
