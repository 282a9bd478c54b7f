// Package session drives the inventory scan session.
//
// A single coordination goroutine owns the ledger and all mutable session
// state. Scan events, operator commands, and timer expirations are messages
// into that goroutine, so writes never interleave. Each accepted scan runs
// through a feedback flash and an outcome-dependent cooldown before new
// scans are admitted again; events arriving in between are dropped, which
// keeps rapid-fire frames of the same physical object from producing
// duplicate records. Observers receive read-only state snapshots.
package session
