package recognize_test

import (
	"context"
	"errors"
	"testing"

	"scanbay/internal/recognize"
	"scanbay/internal/services"
)

type fakeRunner struct {
	output []byte
	err    error
	name   string
	args   []string
}

func (f *fakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	f.name = name
	f.args = args
	return f.output, f.err
}

func TestZbarDecodeReturnsFirstSymbol(t *testing.T) {
	runner := &fakeRunner{output: []byte("DEV123\n")}
	backend := recognize.NewZbarBackend("zbarimg", runner)

	got, err := backend.Decode(context.Background(), "frame.png")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got != "DEV123" {
		t.Fatalf("unexpected payload: %q", got)
	}
	if runner.name != "zbarimg" {
		t.Fatalf("unexpected binary: %q", runner.name)
	}
	if len(runner.args) == 0 || runner.args[len(runner.args)-1] != "frame.png" {
		t.Fatalf("frame path missing from args: %v", runner.args)
	}
}

func TestZbarDecodeWrapsFailures(t *testing.T) {
	runner := &fakeRunner{err: errors.New("boom")}
	backend := recognize.NewZbarBackend("zbarimg", runner)

	if _, err := backend.Decode(context.Background(), "frame.png"); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
}

func TestTesseractDecodeTakesFirstLine(t *testing.T) {
	runner := &fakeRunner{output: []byte("\nDEV-LABEL-7\nsecond line\n")}
	backend := recognize.NewTesseractBackend("tesseract", runner)

	got, err := backend.Decode(context.Background(), "frame.png")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got != "DEV-LABEL-7" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestTesseractDecodeEmptyOutput(t *testing.T) {
	runner := &fakeRunner{output: []byte("\n\n")}
	backend := recognize.NewTesseractBackend("tesseract", runner)

	got, err := backend.Decode(context.Background(), "frame.png")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty candidate, got %q", got)
	}
}
