package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"scanbay/internal/config"
	"scanbay/internal/ledger"
)

type nopWriter struct{}

func (nopWriter) SaveSnapshot(_ context.Context, _ string, _ ledger.Snapshot) (string, error) {
	return "snap", nil
}

func TestLedgerWriteFailureOutcome(t *testing.T) {
	cfg := config.Default()
	cfg.Session.FeedbackMillis = 10
	cfg.Session.SuccessCooldown = 20
	cfg.Session.DuplicateCooldown = 40
	cfg.Session.FailureCooldown = 40

	s := New(&cfg, nil, nopWriter{})
	s.addFn = func(string, ledger.ComponentType, ledger.ScanMode) (ledger.Record, error) {
		return ledger.Record{}, errors.New("write failed")
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	s.ProcessScan("DEV1")

	deadline := time.Now().Add(3 * time.Second)
	var snap Snapshot
	for {
		snap = s.Snapshot()
		if snap.LastOutcome == OutcomeFailure {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("no failure outcome; last snapshot: %#v", snap)
		}
		time.Sleep(2 * time.Millisecond)
	}
	if snap.StatusMessage != "failed to save device" {
		t.Fatalf("unexpected status: %q", snap.StatusMessage)
	}
	if snap.ScanCount != 0 {
		t.Fatalf("failed write must not grow the ledger: %d", snap.ScanCount)
	}

	// Session recovers and is scannable afterwards.
	for {
		if s.Snapshot().Accepting {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("session never resumed accepting")
		}
		time.Sleep(2 * time.Millisecond)
	}
}
