// Package ledger defines the inventory data model and the session ledger.
//
// ComponentType and ScanMode are the closed enumerations used throughout the
// pipeline. Record is the immutable result of one accepted scan. Ledger is
// the session's insertion-ordered, device-unique record collection; it is
// owned exclusively by the session state machine and every other component
// sees only derived projections or point-in-time snapshots.
package ledger
