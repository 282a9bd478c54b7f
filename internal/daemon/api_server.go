package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"scanbay/internal/api"
	"scanbay/internal/archive"
	"scanbay/internal/config"
	"scanbay/internal/ledger"
	"scanbay/internal/logging"
	"scanbay/internal/preflight"
	"scanbay/internal/session"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	mux := http.NewServeMux()
	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}

	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/ledger", srv.handleLedger)
	mux.HandleFunc("/api/history", srv.handleHistory)
	mux.HandleFunc("/api/history/", srv.handleHistorySnapshot)
	mux.HandleFunc("/api/scan", srv.handleScan)
	mux.HandleFunc("/api/mode", srv.handleMode)
	mux.HandleFunc("/api/component", srv.handleComponent)
	mux.HandleFunc("/api/export", srv.handleExport)
	mux.HandleFunc("/api/clear", srv.handleClear)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	deps := make([]api.DependencyStatus, 0)
	for _, dep := range preflight.CheckSystemDeps(r.Context(), s.daemon.cfg) {
		deps = append(deps, api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		})
	}
	payload := api.DaemonStatus{
		Running:       status.Running,
		PID:           s.daemon.PID(),
		ArchiveDBPath: status.ArchiveDBPath,
		LockFilePath:  status.LockFilePath,
		CameraPresent: status.CameraPresent,
		Session:       api.FromSessionSnapshot(status.Session),
		Dependencies:  deps,
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleLedger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	records, err := s.daemon.Session().Records(r.Context())
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.LedgerResponse{
		Count:   len(records),
		Records: api.FromRecords(records),
	})
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	infos, err := s.daemon.Store().ListSnapshots(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.HistoryResponse{Snapshots: api.FromSnapshotInfos(infos)})
}

func (s *apiServer) handleHistorySnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/history/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "snapshot not found")
		return
	}
	info, err := s.daemon.Store().GetSnapshot(r.Context(), id)
	if errors.Is(err, archive.ErrSnapshotNotFound) {
		s.writeError(w, http.StatusNotFound, "snapshot not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	records, err := s.daemon.Store().SnapshotRecords(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.SnapshotResponse{
		Snapshot: api.FromSnapshotInfo(info),
		Records:  api.FromRecords(records),
	})
}

func (s *apiServer) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	deviceID := strings.TrimSpace(req.DeviceID)
	if deviceID == "" {
		s.writeError(w, http.StatusBadRequest, "deviceId is required")
		return
	}
	s.daemon.Session().ProcessScan(deviceID)
	s.writeJSON(w, http.StatusAccepted, api.AcceptedResponse{Accepted: true})
}

func (s *apiServer) handleMode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.ModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mode, ok := ledger.ParseMode(req.Mode)
	if !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown scan mode %q", req.Mode))
		return
	}
	s.daemon.Session().SetScanMode(mode)
	s.writeJSON(w, http.StatusOK, api.AcceptedResponse{Accepted: true, Message: "scan mode set to " + string(mode)})
}

func (s *apiServer) handleComponent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.ComponentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	component, ok := ledger.ParseComponent(req.Component)
	if !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown component %q", req.Component))
		return
	}
	s.daemon.Session().SetComponentType(component)
	s.writeJSON(w, http.StatusOK, api.AcceptedResponse{Accepted: true, Message: "component set to " + component.Label()})
}

func (s *apiServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id, count, err := s.daemon.Session().Export(r.Context())
	if errors.Is(err, session.ErrNotRunning) {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ExportResponse{SnapshotID: id, RecordCount: count})
}

func (s *apiServer) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.daemon.Session().ClearInventory()
	s.writeJSON(w, http.StatusOK, api.ClearResponse{Cleared: true})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
