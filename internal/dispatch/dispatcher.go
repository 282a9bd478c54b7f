package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"scanbay/internal/ledger"
	"scanbay/internal/logging"
	"scanbay/internal/recognize"
)

// Recognizer is the recognition adapter seen by the dispatcher.
type Recognizer interface {
	Recognize(ctx context.Context, frame recognize.Frame, mode ledger.ScanMode) (recognize.Result, error)
}

// Event is one deduplicated-at-the-dispatcher-level scan signal: a single
// candidate string recognized under a specific mode.
type Event struct {
	Candidate string
	Mode      ledger.ScanMode
}

// Dispatcher owns the active recognition mode and the one-in-flight
// admission gate between frame producers and the session.
type Dispatcher struct {
	recognizer Recognizer
	logger     *slog.Logger
	events     chan Event

	mu       sync.Mutex
	mode     ledger.ScanMode
	inFlight bool
	running  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a dispatcher starting in the given mode.
func New(recognizer Recognizer, logger *slog.Logger, mode ledger.ScanMode) *Dispatcher {
	return &Dispatcher{
		recognizer: recognizer,
		logger:     logging.NewComponentLogger(logger, "dispatcher"),
		events:     make(chan Event, 4),
		mode:       mode,
	}
}

// Events returns the scan event stream consumed by the session.
func (d *Dispatcher) Events() <-chan Event {
	return d.events
}

// Start makes the dispatcher ready to admit frames.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return errors.New("dispatcher already running")
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	d.running = true
	return nil
}

// Stop cancels any in-flight recognition, waits for it to finish, and
// closes the event stream. Frames arriving afterwards are dropped.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	d.wg.Wait()
	close(d.events)
}

// SetMode switches the recognition mode for subsequently admitted frames.
func (d *Dispatcher) SetMode(mode ledger.ScanMode) {
	d.mu.Lock()
	d.mode = mode
	d.mu.Unlock()
}

// Mode returns the currently active recognition mode.
func (d *Dispatcher) Mode() ledger.ScanMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// OnFrame admits one frame for recognition. It returns false when the frame
// is dropped: either an attempt is already in flight or the dispatcher is
// not running. Dropping the incoming frame (never queueing it) bounds
// latency under slow recognizers. Admitted frame files are deleted once the
// attempt completes; dropped frames stay on disk for the caller to discard.
func (d *Dispatcher) OnFrame(frame recognize.Frame) bool {
	d.mu.Lock()
	if !d.running || d.inFlight {
		d.mu.Unlock()
		return false
	}
	d.inFlight = true
	mode := d.mode
	ctx := d.ctx
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.attempt(ctx, frame, mode)
		if frame.Path != "" {
			_ = os.Remove(frame.Path)
		}
		d.mu.Lock()
		d.inFlight = false
		d.mu.Unlock()
	}()
	return true
}

func (d *Dispatcher) attempt(ctx context.Context, frame recognize.Frame, mode ledger.ScanMode) {
	result, err := d.recognizer.Recognize(ctx, frame, mode)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		d.logger.Warn("recognition attempt failed; awaiting next frame",
			logging.Error(err),
			logging.String(logging.FieldScanMode, string(mode)),
			logging.String(logging.FieldEventType, "recognition_error"),
			logging.String(logging.FieldErrorHint, "check recognizer binaries and frame quality"),
		)
		return
	}

	switch result.Kind {
	case recognize.KindBarcode, recognize.KindText:
		d.emit(ctx, Event{Candidate: result.Candidate, Mode: mode})
	case recognize.KindManualInput:
		d.logger.Info("manual input required",
			logging.String("reason", result.Reason),
			logging.String(logging.FieldScanMode, string(mode)),
			logging.String(logging.FieldEventType, "manual_input_required"),
		)
	case recognize.KindNone:
		// Unproductive frame; nothing to emit.
	default:
		d.logger.Warn("unhandled recognition result kind",
			logging.String("kind", result.Kind.String()),
		)
	}
}

func (d *Dispatcher) emit(ctx context.Context, event Event) {
	select {
	case d.events <- event:
	case <-ctx.Done():
	}
}
