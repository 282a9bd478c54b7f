package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrBlankDevice is returned when a caller tries to add a record without
	// a device identifier.
	ErrBlankDevice = errors.New("device id is blank")
	// ErrDuplicateDevice is returned when a caller tries to add a record for
	// a device that is already present. Callers are expected to check
	// IsAlreadyScanned first, so hitting this is a programming error rather
	// than an operator mistake.
	ErrDuplicateDevice = errors.New("device already recorded")
)

// Ledger is the session's insertion-ordered collection of records, indexed
// by device ID for duplicate lookup. It is not safe for concurrent use; the
// session state machine is its single owner.
type Ledger struct {
	records []Record
	index   map[string]int
	now     func() time.Time
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{index: make(map[string]int), now: time.Now}
}

// IsAlreadyScanned reports whether a record with this device ID exists.
func (l *Ledger) IsAlreadyScanned(deviceID string) bool {
	_, ok := l.index[strings.TrimSpace(deviceID)]
	return ok
}

// Add appends an immutable record for the device. The device ID must be
// non-blank and not already present.
func (l *Ledger) Add(deviceID string, component ComponentType, mode ScanMode) (Record, error) {
	trimmed := strings.TrimSpace(deviceID)
	if trimmed == "" {
		return Record{}, ErrBlankDevice
	}
	if _, exists := l.index[trimmed]; exists {
		return Record{}, fmt.Errorf("%w: %s", ErrDuplicateDevice, trimmed)
	}

	record := Record{
		DeviceID:  trimmed,
		Component: component,
		Mode:      mode,
		ScannedAt: l.now().UTC(),
	}
	l.index[trimmed] = len(l.records)
	l.records = append(l.records, record)
	return record, nil
}

// Count returns the number of records in the ledger.
func (l *Ledger) Count() int {
	return len(l.records)
}

// CountByType returns the number of records for one component type.
func (l *Ledger) CountByType(component ComponentType) int {
	count := 0
	for _, record := range l.records {
		if record.Component == component {
			count++
		}
	}
	return count
}

// Clear empties the ledger. Cleared records are gone for the session; a
// previously scanned device can be scanned again afterwards.
func (l *Ledger) Clear() {
	l.records = nil
	l.index = make(map[string]int)
}

// Snapshot returns a consistent copy of the current contents. An empty
// ledger yields a valid snapshot with no records.
func (l *Ledger) Snapshot() Snapshot {
	records := make([]Record, len(l.records))
	copy(records, l.records)
	return Snapshot{TakenAt: l.now().UTC(), Records: records}
}
