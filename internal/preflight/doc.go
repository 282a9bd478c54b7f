// Package preflight validates the environment before a scan session starts:
// directory access, free disk space, and the external recognizer binaries.
package preflight
