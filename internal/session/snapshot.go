package session

import (
	"time"

	"scanbay/internal/config"
	"scanbay/internal/ledger"
)

// Outcome classifies how the most recent scan was resolved.
type Outcome string

const (
	OutcomeNone      Outcome = "none"
	OutcomeSuccess   Outcome = "success"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailure   Outcome = "failure"
)

// Snapshot is the read-only projection of session state handed to
// observers. It is a value copy; observers can never mutate the session
// through it.
type Snapshot struct {
	SessionID     string
	Component     ledger.ComponentType
	Mode          ledger.ScanMode
	Accepting     bool
	LastOutcome   Outcome
	StatusMessage string
	ScanCount     int
	CountsByType  map[ledger.ComponentType]int
}

// clone deep-copies the snapshot so each observer gets its own counts map.
func (s Snapshot) clone() Snapshot {
	out := s
	out.CountsByType = make(map[ledger.ComponentType]int, len(s.CountsByType))
	for component, count := range s.CountsByType {
		out.CountsByType[component] = count
	}
	return out
}

// Policy holds the timed-phase durations. Feedback is the flash shown after
// a processed scan; the cooldowns gate when the next scan is admitted.
type Policy struct {
	Feedback          time.Duration
	SuccessCooldown   time.Duration
	DuplicateCooldown time.Duration
	FailureCooldown   time.Duration
}

// PolicyFromConfig converts the configured millisecond values.
func PolicyFromConfig(cfg *config.Config) Policy {
	return Policy{
		Feedback:          time.Duration(cfg.Session.FeedbackMillis) * time.Millisecond,
		SuccessCooldown:   time.Duration(cfg.Session.SuccessCooldown) * time.Millisecond,
		DuplicateCooldown: time.Duration(cfg.Session.DuplicateCooldown) * time.Millisecond,
		FailureCooldown:   time.Duration(cfg.Session.FailureCooldown) * time.Millisecond,
	}
}

func (p Policy) cooldownFor(outcome Outcome) time.Duration {
	switch outcome {
	case OutcomeSuccess:
		return p.SuccessCooldown
	case OutcomeDuplicate:
		return p.DuplicateCooldown
	default:
		return p.FailureCooldown
	}
}
