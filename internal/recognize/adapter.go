package recognize

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"scanbay/internal/config"
	"scanbay/internal/ledger"
	"scanbay/internal/logging"
)

// Backend decodes one frame into at most one raw candidate string.
type Backend interface {
	Name() string
	Decode(ctx context.Context, framePath string) (string, error)
}

// Adapter dispatches frames to the backend selected by the scan mode and
// applies the bounded-miss manual-input policy. It holds no session state;
// the only thing it tracks is its own consecutive-miss counter.
type Adapter struct {
	barcode Backend
	text    Backend
	logger  *slog.Logger

	timeout   time.Duration
	maxMisses int
	minLength int

	mu     sync.Mutex
	misses int
}

// NewAdapter builds an adapter from configuration, using the external
// zbarimg and tesseract tools as backends.
func NewAdapter(cfg *config.Config, logger *slog.Logger, runner CommandRunner) *Adapter {
	return NewAdapterWithBackends(
		cfg,
		logger,
		NewZbarBackend(cfg.Recognizer.ZbarBinary, runner),
		NewTesseractBackend(cfg.Recognizer.TesseractBinary, runner),
	)
}

// NewAdapterWithBackends builds an adapter with explicit backends.
func NewAdapterWithBackends(cfg *config.Config, logger *slog.Logger, barcode, text Backend) *Adapter {
	return &Adapter{
		barcode:   barcode,
		text:      text,
		logger:    logging.NewComponentLogger(logger, "recognizer"),
		timeout:   time.Duration(cfg.Recognizer.AttemptTimeout) * time.Second,
		maxMisses: cfg.Recognizer.MaxMisses,
		minLength: cfg.Recognizer.MinLength,
	}
}

// Recognize runs the frame through the backend(s) selected by mode. It
// returns a candidate result, a manual-input signal once the miss budget is
// exhausted, or NoCandidate for an unproductive frame. Backend errors are
// returned for diagnostics and do not consume the miss budget.
func (a *Adapter) Recognize(ctx context.Context, frame Frame, mode ledger.ScanMode) (Result, error) {
	attemptCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	switch mode {
	case ledger.ModeBarcode:
		return a.attempt(attemptCtx, frame, a.barcode, KindBarcode)
	case ledger.ModeOCR:
		return a.attempt(attemptCtx, frame, a.text, KindText)
	case ledger.ModeHybrid:
		// Whichever backend decodes first wins; barcode is cheaper so it
		// goes first.
		result, err := a.attempt(attemptCtx, frame, a.barcode, KindBarcode)
		if err != nil || result.Kind != KindNone {
			return result, err
		}
		return a.attempt(attemptCtx, frame, a.text, KindText)
	default:
		return Result{}, fmt.Errorf("recognize: unknown scan mode %q", mode)
	}
}

func (a *Adapter) attempt(ctx context.Context, frame Frame, backend Backend, kind Kind) (Result, error) {
	raw, err := backend.Decode(ctx, frame.Path)
	if err != nil {
		return NoCandidate(), err
	}

	candidate := NormalizeCandidate(raw)
	if !UsableCandidate(candidate, a.minLength) {
		if candidate != "" {
			a.logger.Debug("discarded short candidate",
				logging.String("backend", backend.Name()),
				logging.String("candidate", candidate),
			)
		}
		return a.recordMiss(backend)
	}

	a.mu.Lock()
	a.misses = 0
	a.mu.Unlock()

	a.logger.Debug("recognized candidate",
		logging.String("backend", backend.Name()),
		logging.String("candidate", candidate),
	)
	if kind == KindBarcode {
		return BarcodeCandidate(candidate), nil
	}
	return TextCandidate(candidate), nil
}

func (a *Adapter) recordMiss(backend Backend) (Result, error) {
	a.mu.Lock()
	a.misses++
	misses := a.misses
	exhausted := a.maxMisses > 0 && misses >= a.maxMisses
	if exhausted {
		a.misses = 0
	}
	a.mu.Unlock()

	if exhausted {
		reason := fmt.Sprintf("no readable code after %d frames; enter the device id manually", misses)
		a.logger.Info("recognition gave up",
			logging.String("backend", backend.Name()),
			logging.Int("frames", misses),
			logging.String(logging.FieldEventType, "manual_input_required"),
		)
		return ManualInputRequired(reason), nil
	}
	return NoCandidate(), nil
}

// ResetMisses clears the consecutive-miss counter, used when the operator
// repositions a device or the session changes mode.
func (a *Adapter) ResetMisses() {
	a.mu.Lock()
	a.misses = 0
	a.mu.Unlock()
}
