// Package dispatch bridges the camera frame stream to the session.
//
// Frames arrive at camera rate; the dispatcher admits at most one
// recognition attempt at a time and drops frames that arrive while an
// attempt is outstanding. Each usable recognition becomes exactly one scan
// event on the Events channel. Mode changes apply to the next admitted
// frame; an attempt already in flight completes under the mode it started
// with.
package dispatch
