package recognize

import (
	"context"

	"scanbay/internal/services"
)

// TesseractBackend recognizes printed text by invoking tesseract on a frame
// file. Single-line page segmentation suits the serial labels printed on
// intake hardware.
type TesseractBackend struct {
	binary string
	runner CommandRunner
}

// NewTesseractBackend builds the OCR backend for the given binary.
func NewTesseractBackend(binary string, runner CommandRunner) *TesseractBackend {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &TesseractBackend{binary: binary, runner: runner}
}

func (b *TesseractBackend) Name() string { return "tesseract" }

// Decode returns the first non-empty recognized line, or an empty string
// when the frame yields no text.
func (b *TesseractBackend) Decode(ctx context.Context, framePath string) (string, error) {
	output, err := b.runner.Output(ctx, b.binary, framePath, "stdout", "--psm", "7")
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "recognizer", "tesseract", framePath, err)
	}
	return firstLine(string(output)), nil
}
