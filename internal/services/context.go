package services

import "context"

type contextKey string

const (
	sessionIDKey contextKey = "session_id"
	deviceIDKey  contextKey = "device_id"
	scanModeKey  contextKey = "scan_mode"
)

// WithSessionID annotates context with the scan session identifier.
func WithSessionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext extracts the scan session identifier if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sessionIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithDeviceID annotates context with the scanned device identifier.
func WithDeviceID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, deviceIDKey, id)
}

// DeviceIDFromContext extracts the scanned device identifier if present.
func DeviceIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(deviceIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithScanMode annotates context with the active recognition mode name.
func WithScanMode(ctx context.Context, mode string) context.Context {
	if mode == "" {
		return ctx
	}
	return context.WithValue(ctx, scanModeKey, mode)
}

// ScanModeFromContext returns the recognition mode name if present.
func ScanModeFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(scanModeKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
