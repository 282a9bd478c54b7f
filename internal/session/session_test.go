package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"scanbay/internal/config"
	"scanbay/internal/dispatch"
	"scanbay/internal/ledger"
	"scanbay/internal/session"
)

type fakeWriter struct {
	saved []ledger.Snapshot
	err   error
}

func (f *fakeWriter) SaveSnapshot(_ context.Context, _ string, snap ledger.Snapshot) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, snap)
	return "snap-1", nil
}

func fastConfig() *config.Config {
	cfg := config.Default()
	cfg.Session.FeedbackMillis = 10
	cfg.Session.SuccessCooldown = 20
	cfg.Session.DuplicateCooldown = 40
	cfg.Session.FailureCooldown = 40
	return &cfg
}

func startSession(t *testing.T, cfg *config.Config, writer session.SnapshotWriter, opts ...session.Option) *session.Session {
	t.Helper()
	s := session.New(cfg, nil, writer, opts...)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(s.Stop)
	return s
}

func waitSnapshot(t *testing.T, s *session.Session, what string, cond func(session.Snapshot) bool) session.Snapshot {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		snap := s.Snapshot()
		if cond(snap) {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s; last snapshot: %#v", what, snap)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestInitialStateIsAccepting(t *testing.T) {
	s := startSession(t, fastConfig(), &fakeWriter{})

	snap := s.Snapshot()
	if !snap.Accepting {
		t.Fatal("new session must accept scans")
	}
	if snap.Component != ledger.ComponentGlasses || snap.Mode != ledger.ModeBarcode {
		t.Fatalf("unexpected defaults: %#v", snap)
	}
	if snap.StatusMessage != "scanning Glasses" {
		t.Fatalf("unexpected status: %q", snap.StatusMessage)
	}
	if snap.LastOutcome != session.OutcomeNone {
		t.Fatalf("unexpected outcome: %q", snap.LastOutcome)
	}
}

func TestSuccessfulScanCycle(t *testing.T) {
	s := startSession(t, fastConfig(), &fakeWriter{})

	s.ProcessScan("DEV123")

	snap := waitSnapshot(t, s, "success outcome", func(snap session.Snapshot) bool {
		return snap.LastOutcome == session.OutcomeSuccess
	})
	if snap.Accepting {
		t.Fatal("session must not accept scans during feedback")
	}
	if snap.StatusMessage != "Glasses: DEV123" {
		t.Fatalf("unexpected status: %q", snap.StatusMessage)
	}
	if snap.ScanCount != 1 {
		t.Fatalf("unexpected scan count: %d", snap.ScanCount)
	}
	if snap.CountsByType[ledger.ComponentGlasses] != 1 {
		t.Fatalf("unexpected per-type counts: %#v", snap.CountsByType)
	}

	snap = waitSnapshot(t, s, "return to accepting", func(snap session.Snapshot) bool {
		return snap.Accepting
	})
	if snap.LastOutcome != session.OutcomeNone {
		t.Fatalf("outcome not cleared after feedback: %q", snap.LastOutcome)
	}
	if snap.StatusMessage != "scanning Glasses" {
		t.Fatalf("status not restored: %q", snap.StatusMessage)
	}
}

func TestSnapshotCountsAreIsolated(t *testing.T) {
	s := startSession(t, fastConfig(), &fakeWriter{})

	s.ProcessScan("DEV123")
	waitSnapshot(t, s, "scan recorded", func(snap session.Snapshot) bool {
		return snap.ScanCount == 1
	})

	snap := s.Snapshot()
	snap.CountsByType[ledger.ComponentGlasses] = 99

	if got := s.Snapshot().CountsByType[ledger.ComponentGlasses]; got != 1 {
		t.Fatalf("caller mutation leaked into session state: %d", got)
	}

	// Subscribers get their own copy too.
	updates, cancel := s.Subscribe()
	defer cancel()
	s.SetScanMode(ledger.ModeOCR)

	select {
	case delivered := <-updates:
		delivered.CountsByType[ledger.ComponentGlasses] = 42
		if got := s.Snapshot().CountsByType[ledger.ComponentGlasses]; got != 1 {
			t.Fatalf("subscriber mutation leaked into session state: %d", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for subscriber delivery")
	}
}

func TestDuplicateScanKeepsCount(t *testing.T) {
	s := startSession(t, fastConfig(), &fakeWriter{})

	s.ProcessScan("DEV123")
	waitSnapshot(t, s, "first scan accepted", func(snap session.Snapshot) bool {
		return snap.ScanCount == 1 && snap.Accepting
	})

	s.ProcessScan("DEV123")
	snap := waitSnapshot(t, s, "duplicate outcome", func(snap session.Snapshot) bool {
		return snap.LastOutcome == session.OutcomeDuplicate
	})
	if snap.ScanCount != 1 {
		t.Fatalf("duplicate must not grow the ledger, got %d", snap.ScanCount)
	}
	if snap.StatusMessage != "device already scanned: DEV123" {
		t.Fatalf("unexpected status: %q", snap.StatusMessage)
	}
}

func TestBlankScanIsIgnored(t *testing.T) {
	s := startSession(t, fastConfig(), &fakeWriter{})

	s.ProcessScan("   ")
	time.Sleep(50 * time.Millisecond)

	snap := s.Snapshot()
	if snap.ScanCount != 0 {
		t.Fatalf("blank scan changed the ledger: %d", snap.ScanCount)
	}
	if !snap.Accepting || snap.LastOutcome != session.OutcomeNone {
		t.Fatalf("blank scan changed session state: %#v", snap)
	}
}

func TestScanDroppedWhileProcessing(t *testing.T) {
	cfg := fastConfig()
	cfg.Session.FeedbackMillis = 40
	cfg.Session.SuccessCooldown = 80
	s := startSession(t, cfg, &fakeWriter{})

	s.ProcessScan("DEV1")
	waitSnapshot(t, s, "processing", func(snap session.Snapshot) bool {
		return !snap.Accepting
	})

	// Fires while feedback/cooldown is still running; must be dropped.
	s.ProcessScan("DEV2")

	waitSnapshot(t, s, "return to accepting", func(snap session.Snapshot) bool {
		return snap.Accepting
	})
	if count := s.Snapshot().ScanCount; count != 1 {
		t.Fatalf("dropped scan reached the ledger, count=%d", count)
	}

	// The same id scans fine once the session is accepting again.
	s.ProcessScan("DEV2")
	waitSnapshot(t, s, "second device recorded", func(snap session.Snapshot) bool {
		return snap.ScanCount == 2
	})
}

func TestComponentSwitchAffectsOnlyNewRecords(t *testing.T) {
	writer := &fakeWriter{}
	s := startSession(t, fastConfig(), writer)

	s.ProcessScan("DEV1")
	waitSnapshot(t, s, "first record", func(snap session.Snapshot) bool {
		return snap.ScanCount == 1 && snap.Accepting
	})

	s.SetComponentType(ledger.ComponentBattery)
	s.ProcessScan("DEV2")
	waitSnapshot(t, s, "second record", func(snap session.Snapshot) bool {
		return snap.ScanCount == 2
	})

	if _, count, err := s.Export(context.Background()); err != nil || count != 2 {
		t.Fatalf("Export: count=%d err=%v", count, err)
	}
	records := writer.saved[0].Records
	if records[0].Component != ledger.ComponentGlasses {
		t.Fatalf("existing record mutated: %#v", records[0])
	}
	if records[1].Component != ledger.ComponentBattery {
		t.Fatalf("new record missing switched component: %#v", records[1])
	}
}

func TestModeSwitchNotifiesSinkAndTagsRecords(t *testing.T) {
	writer := &fakeWriter{}
	var sunk []ledger.ScanMode
	s := startSession(t, fastConfig(), writer, session.WithModeSink(func(mode ledger.ScanMode) {
		sunk = append(sunk, mode)
	}))

	s.SetScanMode(ledger.ModeOCR)
	waitSnapshot(t, s, "mode switch", func(snap session.Snapshot) bool {
		return snap.Mode == ledger.ModeOCR
	})
	if len(sunk) != 1 || sunk[0] != ledger.ModeOCR {
		t.Fatalf("mode sink not notified: %v", sunk)
	}

	s.ProcessScan("DEV1")
	waitSnapshot(t, s, "record written", func(snap session.Snapshot) bool {
		return snap.ScanCount == 1
	})
	if _, _, err := s.Export(context.Background()); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if mode := writer.saved[0].Records[0].Mode; mode != ledger.ModeOCR {
		t.Fatalf("record carries wrong mode: %q", mode)
	}
}

func TestClearInventoryAllowsRescan(t *testing.T) {
	s := startSession(t, fastConfig(), &fakeWriter{})

	s.ProcessScan("DEV1")
	waitSnapshot(t, s, "record written", func(snap session.Snapshot) bool {
		return snap.ScanCount == 1 && snap.Accepting
	})

	s.ClearInventory()
	snap := waitSnapshot(t, s, "cleared", func(snap session.Snapshot) bool {
		return snap.ScanCount == 0
	})
	if snap.Accepting {
		t.Fatal("session must pause during clear cooldown")
	}

	waitSnapshot(t, s, "accepting after clear", func(snap session.Snapshot) bool {
		return snap.Accepting
	})

	s.ProcessScan("DEV1")
	snap = waitSnapshot(t, s, "rescan outcome", func(snap session.Snapshot) bool {
		return snap.LastOutcome != session.OutcomeNone
	})
	if snap.LastOutcome != session.OutcomeSuccess {
		t.Fatalf("rescan after clear should succeed, got %q", snap.LastOutcome)
	}
}

func TestExportEmptyLedger(t *testing.T) {
	writer := &fakeWriter{}
	s := startSession(t, fastConfig(), writer)

	id, count, err := s.Export(context.Background())
	if err != nil {
		t.Fatalf("Export on empty ledger failed: %v", err)
	}
	if id != "snap-1" || count != 0 {
		t.Fatalf("unexpected export result: id=%q count=%d", id, count)
	}
	if len(writer.saved) != 1 || len(writer.saved[0].Records) != 0 {
		t.Fatalf("expected one empty snapshot, got %#v", writer.saved)
	}
}

func TestExportFailureLeavesLedgerIntact(t *testing.T) {
	writer := &fakeWriter{err: errors.New("disk full")}
	s := startSession(t, fastConfig(), writer)

	s.ProcessScan("DEV1")
	waitSnapshot(t, s, "record written", func(snap session.Snapshot) bool {
		return snap.ScanCount == 1
	})

	if _, _, err := s.Export(context.Background()); err == nil {
		t.Fatal("expected export failure")
	}

	// Retry succeeds once the collaborator recovers.
	writer.err = nil
	if _, count, err := s.Export(context.Background()); err != nil || count != 1 {
		t.Fatalf("retry: count=%d err=%v", count, err)
	}
}

func TestEventsFromDispatcherChannel(t *testing.T) {
	events := make(chan dispatch.Event, 1)
	s := startSession(t, fastConfig(), &fakeWriter{}, session.WithEvents(events))

	events <- dispatch.Event{Candidate: "DEV321", Mode: ledger.ModeBarcode}
	waitSnapshot(t, s, "event recorded", func(snap session.Snapshot) bool {
		return snap.ScanCount == 1
	})
}

func TestStoppedSessionIgnoresOperations(t *testing.T) {
	s := session.New(fastConfig(), nil, &fakeWriter{})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	s.Stop()

	s.ProcessScan("DEV1") // must not panic or block

	if _, _, err := s.Export(context.Background()); !errors.Is(err, session.ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
	if count := s.Snapshot().ScanCount; count != 0 {
		t.Fatalf("stopped session recorded a scan: %d", count)
	}
}

func TestDedupInvariantUnderEventBursts(t *testing.T) {
	cfg := fastConfig()
	cfg.Session.FeedbackMillis = 2
	cfg.Session.SuccessCooldown = 2
	cfg.Session.DuplicateCooldown = 2
	cfg.Session.FailureCooldown = 2
	writer := &fakeWriter{}
	s := startSession(t, cfg, writer)

	ids := []string{"A1", "B2", "A1", "C3", "B2", "A1", "C3"}
	for _, id := range ids {
		s.ProcessScan(id)
		waitSnapshot(t, s, "cycle complete", func(snap session.Snapshot) bool {
			return snap.Accepting
		})
	}

	if _, count, err := s.Export(context.Background()); err != nil || count != 3 {
		t.Fatalf("expected 3 unique records, got %d (err=%v)", count, err)
	}
	seen := map[string]bool{}
	for _, record := range writer.saved[0].Records {
		if seen[record.DeviceID] {
			t.Fatalf("duplicate device in ledger: %s", record.DeviceID)
		}
		seen[record.DeviceID] = true
	}
}
