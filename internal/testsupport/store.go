package testsupport

import (
	"context"
	"testing"
	"time"

	"scanbay/internal/archive"
	"scanbay/internal/config"
	"scanbay/internal/ledger"
)

// MustOpenStore opens an archive.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *archive.Store {
	t.Helper()

	store, err := archive.Open(cfg)
	if err != nil {
		t.Fatalf("archive.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SaveSnapshot stores a snapshot built from the given device ids and returns
// the snapshot id.
func SaveSnapshot(t testing.TB, store *archive.Store, sessionID string, deviceIDs ...string) string {
	t.Helper()

	snap := ledger.Snapshot{TakenAt: time.Now()}
	for i, id := range deviceIDs {
		snap.Records = append(snap.Records, ledger.Record{
			DeviceID:  id,
			Component: ledger.ComponentGlasses,
			Mode:      ledger.ModeBarcode,
			ScannedAt: snap.TakenAt.Add(time.Duration(i) * time.Second),
		})
	}
	id, err := store.SaveSnapshot(context.Background(), sessionID, snap)
	if err != nil {
		t.Fatalf("store.SaveSnapshot: %v", err)
	}
	return id
}
