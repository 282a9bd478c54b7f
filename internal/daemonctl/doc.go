// Package daemonctl lets the CLI control a scanbayd process: an HTTP client
// for the daemon API plus helpers to launch, wait for, and terminate the
// daemon process.
package daemonctl
