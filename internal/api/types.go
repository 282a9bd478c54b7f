package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// SessionStatus describes the live scan session in a transport-friendly format.
type SessionStatus struct {
	SessionID      string         `json:"sessionId"`
	Component      string         `json:"component"`
	ComponentLabel string         `json:"componentLabel"`
	Mode           string         `json:"mode"`
	Accepting      bool           `json:"accepting"`
	LastOutcome    string         `json:"lastOutcome,omitempty"`
	StatusMessage  string         `json:"statusMessage"`
	ScanCount      int            `json:"scanCount"`
	Counts         map[string]int `json:"counts"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running       bool               `json:"running"`
	PID           int                `json:"pid"`
	ArchiveDBPath string             `json:"archiveDbPath"`
	LockFilePath  string             `json:"lockFilePath"`
	CameraPresent bool               `json:"cameraPresent"`
	Session       SessionStatus      `json:"session"`
	Dependencies  []DependencyStatus `json:"dependencies,omitempty"`
}

// LedgerRecord describes one scanned device in a transport-friendly format.
type LedgerRecord struct {
	DeviceID       string `json:"deviceId"`
	Component      string `json:"component"`
	ComponentLabel string `json:"componentLabel"`
	Mode           string `json:"mode"`
	ScannedAt      string `json:"scannedAt,omitempty"`
}

// LedgerResponse wraps the current session ledger for API responses.
type LedgerResponse struct {
	Count   int            `json:"count"`
	Records []LedgerRecord `json:"records"`
}

// HistoryEntry summarizes one archived snapshot.
type HistoryEntry struct {
	ID          string `json:"id"`
	SessionID   string `json:"sessionId"`
	CreatedAt   string `json:"createdAt,omitempty"`
	RecordCount int    `json:"recordCount"`
}

// HistoryResponse wraps archived snapshots for API responses.
type HistoryResponse struct {
	Snapshots []HistoryEntry `json:"snapshots"`
}

// SnapshotResponse wraps one archived snapshot and its records.
type SnapshotResponse struct {
	Snapshot HistoryEntry   `json:"snapshot"`
	Records  []LedgerRecord `json:"records"`
}

// ScanRequest submits a manually entered device identifier.
type ScanRequest struct {
	DeviceID string `json:"deviceId"`
}

// ModeRequest switches the active recognition mode.
type ModeRequest struct {
	Mode string `json:"mode"`
}

// ComponentRequest switches the active component type.
type ComponentRequest struct {
	Component string `json:"component"`
}

// ExportResponse reports the result of persisting the session ledger.
type ExportResponse struct {
	SnapshotID  string `json:"snapshotId"`
	RecordCount int    `json:"recordCount"`
}

// ClearResponse acknowledges an inventory clear.
type ClearResponse struct {
	Cleared bool `json:"cleared"`
}

// AcceptedResponse acknowledges a state-changing request.
type AcceptedResponse struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}
