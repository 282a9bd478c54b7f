package api

import (
	"scanbay/internal/archive"
	"scanbay/internal/ledger"
	"scanbay/internal/session"
)

// FromSessionSnapshot converts a live session snapshot into its API form.
func FromSessionSnapshot(snap session.Snapshot) SessionStatus {
	counts := make(map[string]int, len(snap.CountsByType))
	for component, count := range snap.CountsByType {
		counts[string(component)] = count
	}
	outcome := ""
	if snap.LastOutcome != session.OutcomeNone {
		outcome = string(snap.LastOutcome)
	}
	return SessionStatus{
		SessionID:      snap.SessionID,
		Component:      string(snap.Component),
		ComponentLabel: snap.Component.Label(),
		Mode:           string(snap.Mode),
		Accepting:      snap.Accepting,
		LastOutcome:    outcome,
		StatusMessage:  snap.StatusMessage,
		ScanCount:      snap.ScanCount,
		Counts:         counts,
	}
}

// FromRecords converts ledger records into their API form.
func FromRecords(records []ledger.Record) []LedgerRecord {
	if len(records) == 0 {
		return nil
	}
	out := make([]LedgerRecord, 0, len(records))
	for _, record := range records {
		converted := LedgerRecord{
			DeviceID:       record.DeviceID,
			Component:      string(record.Component),
			ComponentLabel: record.Component.Label(),
			Mode:           string(record.Mode),
		}
		if !record.ScannedAt.IsZero() {
			converted.ScannedAt = record.ScannedAt.Format(dateTimeFormat)
		}
		out = append(out, converted)
	}
	return out
}

// FromSnapshotInfo converts an archive summary row into its API form.
func FromSnapshotInfo(info archive.SnapshotInfo) HistoryEntry {
	entry := HistoryEntry{
		ID:          info.ID,
		SessionID:   info.SessionID,
		RecordCount: info.RecordCount,
	}
	if !info.CreatedAt.IsZero() {
		entry.CreatedAt = info.CreatedAt.Format(dateTimeFormat)
	}
	return entry
}

// FromSnapshotInfos converts archive summary rows into their API form.
func FromSnapshotInfos(infos []archive.SnapshotInfo) []HistoryEntry {
	if len(infos) == 0 {
		return nil
	}
	out := make([]HistoryEntry, 0, len(infos))
	for _, info := range infos {
		out = append(out, FromSnapshotInfo(info))
	}
	return out
}
