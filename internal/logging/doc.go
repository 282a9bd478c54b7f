// Package logging builds the slog loggers used across scanbay and supplies
// shared attribute helpers.
//
// It offers a human-oriented console handler and a JSON handler selected by
// configuration, standardized field keys for session/device/mode metadata,
// and WithContext for deriving logger fields from request context.
package logging
