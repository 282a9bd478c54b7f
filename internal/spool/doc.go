// Package spool feeds captured camera frames to the scan dispatcher.
//
// The capture side drops frame files into the spool directory; this package
// watches that directory with fsnotify, backed by a periodic sweep for
// events the watcher misses, and hands each frame to the dispatcher. Frames
// the dispatcher declines are deleted immediately so the directory never
// accumulates a backlog.
package spool
