package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"scanbay/internal/config"
	"scanbay/internal/dispatch"
	"scanbay/internal/ledger"
	"scanbay/internal/logging"
)

// SnapshotWriter is the persistence collaborator that receives exported
// ledger snapshots.
type SnapshotWriter interface {
	SaveSnapshot(ctx context.Context, sessionID string, snap ledger.Snapshot) (string, error)
}

// ModeSink is notified when the operator switches scan mode, so the
// dispatcher can apply it to subsequent frames.
type ModeSink func(ledger.ScanMode)

// ErrNotRunning is returned by synchronous operations on a stopped session.
var ErrNotRunning = errors.New("session not running")

// Session is the inventory scan session state machine.
type Session struct {
	id      string
	logger  *slog.Logger
	policy  Policy
	writer  SnapshotWriter
	sink    ModeSink
	ledger  *ledger.Ledger
	addFn   func(string, ledger.ComponentType, ledger.ScanMode) (ledger.Record, error)
	events  <-chan dispatch.Event
	actions chan func()

	// Coordination-goroutine state; never touched from outside the run loop.
	component ledger.ComponentType
	mode      ledger.ScanMode
	accepting bool
	outcome   Outcome
	status    string
	phase     phase
	cooldown  time.Duration
	timer     *time.Timer
	timerC    <-chan time.Time

	snapMu   sync.RWMutex
	snapshot Snapshot

	subMu sync.Mutex
	subs  map[int]chan Snapshot
	subID int

	runMu   sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type phase int

const (
	phaseAccepting phase = iota
	phaseFeedback
	phaseCooldown
)

// Option customizes session construction.
type Option func(*Session)

// WithModeSink registers the dispatcher callback for mode switches.
func WithModeSink(sink ModeSink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithEvents attaches the dispatcher's scan event stream.
func WithEvents(events <-chan dispatch.Event) Option {
	return func(s *Session) { s.events = events }
}

// New constructs a session in the Accepting state with the configured
// default component type and scan mode.
func New(cfg *config.Config, logger *slog.Logger, writer SnapshotWriter, opts ...Option) *Session {
	component, _ := ledger.ParseComponent(cfg.Session.DefaultComponent)
	mode, _ := ledger.ParseMode(cfg.Session.DefaultMode)

	s := &Session{
		id:        uuid.NewString(),
		logger:    logging.NewComponentLogger(logger, "session"),
		policy:    PolicyFromConfig(cfg),
		writer:    writer,
		ledger:    ledger.New(),
		actions:   make(chan func(), 16),
		component: component,
		mode:      mode,
		accepting: true,
		outcome:   OutcomeNone,
		subs:      make(map[int]chan Snapshot),
	}
	s.addFn = s.ledger.Add
	for _, opt := range opts {
		opt(s)
	}
	s.status = scanningStatus(s.component)
	s.publishLocked()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Start launches the coordination goroutine.
func (s *Session) Start(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.running {
		return errors.New("session already running")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.wg.Add(1)
	go s.run()
	s.logger.Info("session started",
		logging.String(logging.FieldSessionID, s.id),
		logging.String(logging.FieldComponentType, string(s.component)),
		logging.String(logging.FieldScanMode, string(s.mode)),
	)
	return nil
}

// Stop cancels pending timed phases and tears the session down. Scan events
// and recognition completions arriving afterwards are no-ops.
func (s *Session) Stop() {
	s.runMu.Lock()
	if !s.running {
		s.runMu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.cancel = nil
	s.runMu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.logger.Info("session stopped", logging.String(logging.FieldSessionID, s.id))
}

func (s *Session) run() {
	defer s.wg.Done()
	defer s.stopTimer()

	for {
		select {
		case <-s.ctx.Done():
			return
		case action := <-s.actions:
			action()
		case event, ok := <-s.events:
			if !ok {
				s.events = nil
				continue
			}
			s.handleScan(event.Candidate)
		case <-s.timerC:
			s.advancePhase()
		}
	}
}

// enqueue hands an action to the coordination goroutine.
func (s *Session) enqueue(action func()) bool {
	s.runMu.Lock()
	ctx := s.ctx
	running := s.running
	s.runMu.Unlock()
	if !running || ctx == nil {
		return false
	}
	select {
	case s.actions <- action:
		return true
	case <-ctx.Done():
		return false
	}
}

// ProcessScan submits a device identifier as if it had been recognized,
// used for manual operator entry. It is subject to the same admission
// rules as dispatcher events.
func (s *Session) ProcessScan(deviceID string) {
	s.enqueue(func() { s.handleScan(deviceID) })
}

// SetComponentType switches the component type applied to subsequent
// records. Permitted in any state; an in-progress cycle is not interrupted.
func (s *Session) SetComponentType(component ledger.ComponentType) {
	s.enqueue(func() {
		s.component = component
		if s.phase == phaseAccepting {
			s.status = scanningStatus(s.component)
		}
		s.publishLocked()
	})
}

// SetScanMode switches the recognition mode for subsequent scans and
// notifies the dispatcher.
func (s *Session) SetScanMode(mode ledger.ScanMode) {
	s.enqueue(func() {
		s.mode = mode
		if s.sink != nil {
			s.sink(mode)
		}
		s.publishLocked()
	})
}

// ClearInventory empties the ledger and resets the scan count. The session
// refuses scans during the clear and returns to Accepting after the
// success-length cooldown.
func (s *Session) ClearInventory() {
	s.enqueue(func() {
		s.accepting = false
		s.ledger.Clear()
		s.outcome = OutcomeNone
		s.status = "inventory cleared"
		s.phase = phaseCooldown
		s.cooldown = s.policy.SuccessCooldown
		s.publishLocked()
		s.schedule(s.cooldown)
		s.logger.Info("inventory cleared",
			logging.String(logging.FieldSessionID, s.id),
			logging.String(logging.FieldEventType, "inventory_cleared"),
		)
	})
}

// Export hands a consistent snapshot of the ledger to the persistence
// collaborator and returns the stored snapshot identifier and record count.
// The ledger is unaffected either way; a failed export can be retried.
func (s *Session) Export(ctx context.Context) (string, int, error) {
	type reply struct {
		id    string
		count int
		err   error
	}
	replies := make(chan reply, 1)

	ok := s.enqueue(func() {
		snap := s.ledger.Snapshot()
		if s.writer == nil {
			replies <- reply{err: errors.New("no snapshot writer configured")}
			return
		}
		id, err := s.writer.SaveSnapshot(ctx, s.id, snap)
		if err != nil {
			err = fmt.Errorf("export inventory: %w", err)
		}
		replies <- reply{id: id, count: len(snap.Records), err: err}
	})
	if !ok {
		return "", 0, ErrNotRunning
	}

	select {
	case r := <-replies:
		return r.id, r.count, r.err
	case <-ctx.Done():
		return "", 0, ctx.Err()
	}
}

// Records returns a consistent copy of the current inventory records.
func (s *Session) Records(ctx context.Context) ([]ledger.Record, error) {
	replies := make(chan []ledger.Record, 1)
	ok := s.enqueue(func() {
		replies <- s.ledger.Snapshot().Records
	})
	if !ok {
		return nil, ErrNotRunning
	}
	select {
	case records := <-replies:
		return records, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Snapshot returns the latest published state projection.
func (s *Session) Snapshot() Snapshot {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.snapshot.clone()
}

// Subscribe registers an observer for state snapshots. Delivery is
// latest-wins: a slow observer misses intermediate states rather than
// stalling the session. The returned func cancels the subscription.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.subMu.Lock()
	s.subID++
	id := s.subID
	s.subs[id] = ch
	s.subMu.Unlock()

	ch <- s.Snapshot()

	cancel := func() {
		s.subMu.Lock()
		if existing, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(existing)
		}
		s.subMu.Unlock()
	}
	return ch, cancel
}

// handleScan runs on the coordination goroutine.
func (s *Session) handleScan(deviceID string) {
	id := strings.TrimSpace(deviceID)
	if !s.accepting || id == "" {
		s.logger.Debug("scan event dropped",
			logging.String(logging.FieldDeviceID, id),
			logging.Bool("accepting", s.accepting),
		)
		return
	}

	s.accepting = false
	s.phase = phaseFeedback

	switch {
	case s.ledger.IsAlreadyScanned(id):
		s.outcome = OutcomeDuplicate
		s.status = fmt.Sprintf("device already scanned: %s", id)
		s.logger.Info("duplicate scan",
			logging.String(logging.FieldSessionID, s.id),
			logging.String(logging.FieldDeviceID, id),
			logging.String(logging.FieldEventType, "scan_duplicate"),
		)
	default:
		if _, err := s.addFn(id, s.component, s.mode); err != nil {
			s.outcome = OutcomeFailure
			s.status = "failed to save device"
			s.logger.Error("record write failed",
				logging.Error(err),
				logging.String(logging.FieldSessionID, s.id),
				logging.String(logging.FieldDeviceID, id),
				logging.String(logging.FieldEventType, "scan_write_failed"),
			)
		} else {
			s.outcome = OutcomeSuccess
			s.status = fmt.Sprintf("%s: %s", s.component.Label(), id)
			s.logger.Info("device recorded",
				logging.String(logging.FieldSessionID, s.id),
				logging.String(logging.FieldDeviceID, id),
				logging.String(logging.FieldComponentType, string(s.component)),
				logging.String(logging.FieldScanMode, string(s.mode)),
				logging.Int("scan_count", s.ledger.Count()),
			)
		}
	}

	s.cooldown = s.policy.cooldownFor(s.outcome)
	s.publishLocked()
	s.schedule(s.policy.Feedback)
}

// advancePhase runs on the coordination goroutine when a phase timer fires.
func (s *Session) advancePhase() {
	switch s.phase {
	case phaseFeedback:
		// Feedback flash is over; clear the transient outcome and sit out
		// the cooldown so the operator can reposition the next device.
		s.outcome = OutcomeNone
		s.phase = phaseCooldown
		s.publishLocked()
		s.schedule(s.cooldown)
	case phaseCooldown:
		s.phase = phaseAccepting
		s.accepting = true
		s.status = scanningStatus(s.component)
		s.publishLocked()
	}
}

func (s *Session) schedule(d time.Duration) {
	s.stopTimer()
	s.timer = time.NewTimer(d)
	s.timerC = s.timer.C
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
		s.timerC = nil
	}
}

// publishLocked rebuilds the snapshot from coordination-goroutine state and
// fans it out to subscribers.
func (s *Session) publishLocked() {
	counts := make(map[ledger.ComponentType]int, 3)
	for _, component := range ledger.AllComponents() {
		counts[component] = s.ledger.CountByType(component)
	}
	snap := Snapshot{
		SessionID:     s.id,
		Component:     s.component,
		Mode:          s.mode,
		Accepting:     s.accepting,
		LastOutcome:   s.outcome,
		StatusMessage: s.status,
		ScanCount:     s.ledger.Count(),
		CountsByType:  counts,
	}

	s.snapMu.Lock()
	s.snapshot = snap
	s.snapMu.Unlock()

	s.subMu.Lock()
	for _, ch := range s.subs {
		delivery := snap.clone()
		select {
		case ch <- delivery:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- delivery:
			default:
			}
		}
	}
	s.subMu.Unlock()
}

func scanningStatus(component ledger.ComponentType) string {
	return fmt.Sprintf("scanning %s", component.Label())
}
