package dispatch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"scanbay/internal/dispatch"
	"scanbay/internal/ledger"
	"scanbay/internal/recognize"
)

// gateRecognizer blocks each Recognize call until released, so tests can
// hold an attempt in flight deterministically.
type gateRecognizer struct {
	release chan recognize.Result
	modes   chan ledger.ScanMode
	err     error
}

func newGateRecognizer() *gateRecognizer {
	return &gateRecognizer{
		release: make(chan recognize.Result),
		modes:   make(chan ledger.ScanMode, 16),
	}
}

func (g *gateRecognizer) Recognize(ctx context.Context, _ recognize.Frame, mode ledger.ScanMode) (recognize.Result, error) {
	g.modes <- mode
	if g.err != nil {
		return recognize.NoCandidate(), g.err
	}
	select {
	case result := <-g.release:
		return result, nil
	case <-ctx.Done():
		return recognize.NoCandidate(), ctx.Err()
	}
}

func waitEvent(t *testing.T, events <-chan dispatch.Event) dispatch.Event {
	t.Helper()
	select {
	case event, ok := <-events:
		if !ok {
			t.Fatal("event channel closed")
		}
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for scan event")
	}
	return dispatch.Event{}
}

func TestOnFrameDropsWhileInFlight(t *testing.T) {
	rec := newGateRecognizer()
	d := dispatch.New(rec, nil, ledger.ModeBarcode)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	if !d.OnFrame(recognize.Frame{Path: "a.png"}) {
		t.Fatal("first frame should be admitted")
	}
	<-rec.modes // attempt is now in flight

	for i := 0; i < 5; i++ {
		if d.OnFrame(recognize.Frame{Path: "b.png"}) {
			t.Fatal("frames must be dropped while an attempt is in flight")
		}
	}

	rec.release <- recognize.BarcodeCandidate("DEV1")
	event := waitEvent(t, d.Events())
	if event.Candidate != "DEV1" || event.Mode != ledger.ModeBarcode {
		t.Fatalf("unexpected event: %#v", event)
	}

	// The gate reopens once the attempt completes.
	deadline := time.Now().Add(2 * time.Second)
	for !d.OnFrame(recognize.Frame{Path: "c.png"}) {
		if time.Now().After(deadline) {
			t.Fatal("dispatcher never re-admitted frames")
		}
		time.Sleep(time.Millisecond)
	}
	<-rec.modes
	rec.release <- recognize.NoCandidate()
}

func TestModeChangeAppliesToNextFrame(t *testing.T) {
	rec := newGateRecognizer()
	d := dispatch.New(rec, nil, ledger.ModeBarcode)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	if !d.OnFrame(recognize.Frame{}) {
		t.Fatal("frame should be admitted")
	}
	inFlightMode := <-rec.modes

	// Switching mid-flight must not affect the outstanding attempt.
	d.SetMode(ledger.ModeOCR)
	if inFlightMode != ledger.ModeBarcode {
		t.Fatalf("in-flight attempt saw mode %q", inFlightMode)
	}
	rec.release <- recognize.BarcodeCandidate("DEV1")
	event := waitEvent(t, d.Events())
	if event.Mode != ledger.ModeBarcode {
		t.Fatalf("event should carry the mode the attempt started with, got %q", event.Mode)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !d.OnFrame(recognize.Frame{}) {
		if time.Now().After(deadline) {
			t.Fatal("dispatcher never re-admitted frames")
		}
		time.Sleep(time.Millisecond)
	}
	if next := <-rec.modes; next != ledger.ModeOCR {
		t.Fatalf("next frame should run under the new mode, got %q", next)
	}
	rec.release <- recognize.NoCandidate()
}

func TestManualInputEmitsNoEvent(t *testing.T) {
	rec := newGateRecognizer()
	d := dispatch.New(rec, nil, ledger.ModeOCR)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if !d.OnFrame(recognize.Frame{}) {
		t.Fatal("frame should be admitted")
	}
	<-rec.modes
	rec.release <- recognize.ManualInputRequired("too blurry")

	d.Stop()
	if _, ok := <-d.Events(); ok {
		t.Fatal("manual input must not produce a scan event")
	}
}

func TestRecognizerErrorKeepsDispatcherRunning(t *testing.T) {
	rec := newGateRecognizer()
	rec.err = errors.New("backend exploded")
	d := dispatch.New(rec, nil, ledger.ModeBarcode)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	if !d.OnFrame(recognize.Frame{}) {
		t.Fatal("frame should be admitted")
	}
	<-rec.modes

	deadline := time.Now().Add(2 * time.Second)
	for !d.OnFrame(recognize.Frame{}) {
		if time.Now().After(deadline) {
			t.Fatal("dispatcher did not recover from recognizer error")
		}
		time.Sleep(time.Millisecond)
	}
	<-rec.modes
}

func TestStopCancelsInFlightAttempt(t *testing.T) {
	rec := newGateRecognizer()
	d := dispatch.New(rec, nil, ledger.ModeBarcode)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if !d.OnFrame(recognize.Frame{}) {
		t.Fatal("frame should be admitted")
	}
	<-rec.modes

	done := make(chan struct{})
	go func() {
		d.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not cancel the in-flight attempt")
	}

	if d.OnFrame(recognize.Frame{}) {
		t.Fatal("stopped dispatcher must drop frames")
	}
}
