// Package services holds shared plumbing for scanbay components: sentinel
// error markers with a Wrap helper for classification, and typed context
// annotation for session and device identifiers.
package services
