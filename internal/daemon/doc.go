// Package daemon composes the scan pipeline: spool source, dispatcher,
// recognition adapter, session, and archive store. It enforces
// single-instance execution with a lock file and exposes the HTTP API
// the CLI talks to.
package daemon
