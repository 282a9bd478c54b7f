package logging

import (
	"context"
	"log/slog"

	"scanbay/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldSessionID is the standardized structured logging key for scan session identifiers.
	FieldSessionID = "session_id"
	// FieldDeviceID is the standardized structured logging key for scanned device identifiers.
	FieldDeviceID = "device_id"
	// FieldScanMode is the standardized structured logging key for the active recognition mode.
	FieldScanMode = "scan_mode"
	// FieldComponentType is the standardized structured logging key for the selected hardware component type.
	FieldComponentType = "component_type"
	// FieldEventType is the standardized structured logging key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldErrorHint carries a suggested operator action alongside warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-visible consequence of a failure.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.SessionIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSessionID, id))
	}
	if id, ok := services.DeviceIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldDeviceID, id))
	}
	if mode, ok := services.ScanModeFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldScanMode, mode))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
