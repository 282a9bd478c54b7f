// Package archive persists exported inventory snapshots in SQLite so
// completed scan sessions survive daemon restarts and can be reviewed
// later through the history commands.
package archive
