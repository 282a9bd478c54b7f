package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"scanbay/internal/ledger"
)

// ErrSnapshotNotFound indicates the requested snapshot does not exist.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotInfo summarizes a stored snapshot without its records.
type SnapshotInfo struct {
	ID          string
	SessionID   string
	CreatedAt   time.Time
	RecordCount int
}

// SaveSnapshot writes a ledger snapshot and its records in one transaction
// and returns the generated snapshot id.
func (s *Store) SaveSnapshot(ctx context.Context, sessionID string, snap ledger.Snapshot) (string, error) {
	ctx = ensureContext(ctx)
	id := uuid.NewString()
	createdAt := snap.TakenAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin snapshot tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO snapshots (id, session_id, created_at, record_count) VALUES (?, ?, ?, ?)",
			id,
			sessionID,
			createdAt.UTC().Format(time.RFC3339Nano),
			len(snap.Records),
		); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}

		for position, record := range snap.Records {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO snapshot_records (snapshot_id, position, device_id, component, mode, scanned_at) VALUES (?, ?, ?, ?, ?, ?)",
				id,
				position,
				record.DeviceID,
				string(record.Component),
				string(record.Mode),
				record.ScannedAt.UTC().Format(time.RFC3339Nano),
			); err != nil {
				return fmt.Errorf("insert record %s: %w", record.DeviceID, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListSnapshots returns stored snapshots, newest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, session_id, created_at, record_count FROM snapshots ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var infos []SnapshotInfo
	for rows.Next() {
		info, err := scanSnapshotInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return infos, nil
}

// GetSnapshot returns the summary row for a stored snapshot.
func (s *Store) GetSnapshot(ctx context.Context, id string) (SnapshotInfo, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT id, session_id, created_at, record_count FROM snapshots WHERE id = ?", id)
	info, err := scanSnapshotInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotInfo{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("get snapshot: %w", err)
	}
	return info, nil
}

// SnapshotRecords returns the device records stored under one snapshot,
// in scan order.
func (s *Store) SnapshotRecords(ctx context.Context, id string) ([]ledger.Record, error) {
	ctx = ensureContext(ctx)
	if _, err := s.GetSnapshot(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT device_id, component, mode, scanned_at FROM snapshot_records WHERE snapshot_id = ? ORDER BY position ASC",
		id)
	if err != nil {
		return nil, fmt.Errorf("load snapshot records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []ledger.Record
	for rows.Next() {
		var (
			deviceID   string
			component  string
			mode       string
			scannedRaw string
		)
		if err := rows.Scan(&deviceID, &component, &mode, &scannedRaw); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		record := ledger.Record{
			DeviceID:  deviceID,
			Component: ledger.ComponentType(component),
			Mode:      ledger.ScanMode(mode),
		}
		if scanned, err := parseTimeString(scannedRaw); err == nil {
			record.ScannedAt = scanned
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// DeleteSnapshot removes a snapshot and its records.
func (s *Store) DeleteSnapshot(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)
	if _, err := s.GetSnapshot(ctx, id); err != nil {
		return err
	}
	return s.execWithRetry(ctx, "DELETE FROM snapshots WHERE id = ?", id)
}

func scanSnapshotInfo(scanner interface{ Scan(dest ...any) error }) (SnapshotInfo, error) {
	var (
		info       SnapshotInfo
		createdRaw string
	)
	if err := scanner.Scan(&info.ID, &info.SessionID, &createdRaw, &info.RecordCount); err != nil {
		return SnapshotInfo{}, err
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		info.CreatedAt = created
	}
	return info, nil
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty time string")
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format %q", value)
}
