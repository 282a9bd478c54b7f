// Package logs provides bounded-memory log file tailing for the CLI.
//
// Tail reads the last N lines of the daemon log, ReadFrom resumes from a byte
// offset, and Follow polls for appended lines until its context is cancelled.
// A log file that does not exist yet is treated as empty rather than an error
// so `scanbay logs --follow` can start before the daemon does.
package logs
