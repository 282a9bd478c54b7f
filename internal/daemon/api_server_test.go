package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scanbay/internal/api"
	"scanbay/internal/ledger"
	"scanbay/internal/logging"
	"scanbay/internal/testsupport"
)

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	store := testsupport.MustOpenStore(t, cfg)

	d, err := New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(d.Stop)
	return d
}

func waitForScanCount(t *testing.T, d *Daemon, want int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for d.Session().Snapshot().ScanCount != want {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for scan count %d, have %d", want, d.Session().Snapshot().ScanCount)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func postJSON(t *testing.T, srv *apiServer, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestAPIServerStatus(t *testing.T) {
	d := newTestDaemon(t)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	d.apiSrv.handleStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.DaemonStatus
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Running {
		t.Fatal("status must report running")
	}
	if !resp.Session.Accepting {
		t.Fatal("fresh session must be accepting")
	}
	if resp.Session.Component != "glasses" {
		t.Fatalf("unexpected default component: %q", resp.Session.Component)
	}
	if len(resp.Dependencies) == 0 {
		t.Fatal("expected dependency statuses")
	}
}

func TestAPIServerScanAndLedger(t *testing.T) {
	d := newTestDaemon(t)

	w := postJSON(t, d.apiSrv, d.apiSrv.handleScan, "/api/scan", `{"deviceId":"DEV123"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	waitForScanCount(t, d, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/ledger", nil)
	lw := httptest.NewRecorder()
	d.apiSrv.handleLedger(lw, req)
	if lw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", lw.Code)
	}
	var resp api.LedgerResponse
	if err := json.Unmarshal(lw.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 1 || len(resp.Records) != 1 {
		t.Fatalf("unexpected ledger payload: %#v", resp)
	}
	if resp.Records[0].DeviceID != "DEV123" {
		t.Fatalf("unexpected device id: %q", resp.Records[0].DeviceID)
	}
}

func TestAPIServerScanValidation(t *testing.T) {
	d := newTestDaemon(t)

	if w := postJSON(t, d.apiSrv, d.apiSrv.handleScan, "/api/scan", `{"deviceId":"  "}`); w.Code != http.StatusBadRequest {
		t.Fatalf("blank device id: expected 400, got %d", w.Code)
	}
	if w := postJSON(t, d.apiSrv, d.apiSrv.handleScan, "/api/scan", `not json`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad body: expected 400, got %d", w.Code)
	}
}

func TestAPIServerModeSwitch(t *testing.T) {
	d := newTestDaemon(t)

	if w := postJSON(t, d.apiSrv, d.apiSrv.handleMode, "/api/mode", `{"mode":"sonar"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown mode: expected 400, got %d", w.Code)
	}

	w := postJSON(t, d.apiSrv, d.apiSrv.handleMode, "/api/mode", `{"mode":"ocr"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	deadline := time.Now().Add(3 * time.Second)
	for d.dispatcher.Mode() != ledger.ModeOCR {
		if time.Now().After(deadline) {
			t.Fatalf("dispatcher mode not switched, have %q", d.dispatcher.Mode())
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestAPIServerComponentSwitch(t *testing.T) {
	d := newTestDaemon(t)

	if w := postJSON(t, d.apiSrv, d.apiSrv.handleComponent, "/api/component", `{"component":"flux"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown component: expected 400, got %d", w.Code)
	}

	w := postJSON(t, d.apiSrv, d.apiSrv.handleComponent, "/api/component", `{"component":"battery"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	deadline := time.Now().Add(3 * time.Second)
	for d.Session().Snapshot().Component != ledger.ComponentBattery {
		if time.Now().After(deadline) {
			t.Fatalf("component not switched, have %q", d.Session().Snapshot().Component)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestAPIServerExportAndHistory(t *testing.T) {
	d := newTestDaemon(t)

	postJSON(t, d.apiSrv, d.apiSrv.handleScan, "/api/scan", `{"deviceId":"DEV1"}`)
	waitForScanCount(t, d, 1)

	w := postJSON(t, d.apiSrv, d.apiSrv.handleExport, "/api/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var exported api.ExportResponse
	if err := json.Unmarshal(w.Body.Bytes(), &exported); err != nil {
		t.Fatalf("failed to decode export response: %v", err)
	}
	if exported.SnapshotID == "" || exported.RecordCount != 1 {
		t.Fatalf("unexpected export payload: %#v", exported)
	}

	hreq := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	hw := httptest.NewRecorder()
	d.apiSrv.handleHistory(hw, hreq)
	var history api.HistoryResponse
	if err := json.Unmarshal(hw.Body.Bytes(), &history); err != nil {
		t.Fatalf("failed to decode history response: %v", err)
	}
	if len(history.Snapshots) != 1 || history.Snapshots[0].ID != exported.SnapshotID {
		t.Fatalf("unexpected history payload: %#v", history)
	}

	sreq := httptest.NewRequest(http.MethodGet, "/api/history/"+exported.SnapshotID, nil)
	sw := httptest.NewRecorder()
	d.apiSrv.handleHistorySnapshot(sw, sreq)
	if sw.Code != http.StatusOK {
		t.Fatalf("snapshot: expected 200, got %d", sw.Code)
	}
	var snap api.SnapshotResponse
	if err := json.Unmarshal(sw.Body.Bytes(), &snap); err != nil {
		t.Fatalf("failed to decode snapshot response: %v", err)
	}
	if len(snap.Records) != 1 || snap.Records[0].DeviceID != "DEV1" {
		t.Fatalf("unexpected snapshot payload: %#v", snap)
	}

	mreq := httptest.NewRequest(http.MethodGet, "/api/history/missing", nil)
	mw := httptest.NewRecorder()
	d.apiSrv.handleHistorySnapshot(mw, mreq)
	if mw.Code != http.StatusNotFound {
		t.Fatalf("missing snapshot: expected 404, got %d", mw.Code)
	}
}

func TestAPIServerClear(t *testing.T) {
	d := newTestDaemon(t)

	postJSON(t, d.apiSrv, d.apiSrv.handleScan, "/api/scan", `{"deviceId":"DEV1"}`)
	waitForScanCount(t, d, 1)

	w := postJSON(t, d.apiSrv, d.apiSrv.handleClear, "/api/clear", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	waitForScanCount(t, d, 0)
}

func TestAPIServerMethodNotAllowed(t *testing.T) {
	d := newTestDaemon(t)

	req := httptest.NewRequest(http.MethodPost, "/api/status", nil)
	w := httptest.NewRecorder()
	d.apiSrv.handleStatus(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}

	greq := httptest.NewRequest(http.MethodGet, "/api/export", nil)
	gw := httptest.NewRecorder()
	d.apiSrv.handleExport(gw, greq)
	if gw.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", gw.Code)
	}
}
