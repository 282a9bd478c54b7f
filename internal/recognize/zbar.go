package recognize

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"scanbay/internal/services"
)

// zbarimg exits with this status when the image decodes cleanly but carries
// no barcode symbol.
const zbarNoSymbolExit = 4

// ZbarBackend decodes barcodes by invoking zbarimg on a frame file.
type ZbarBackend struct {
	binary string
	runner CommandRunner
}

// NewZbarBackend builds the barcode backend for the given binary.
func NewZbarBackend(binary string, runner CommandRunner) *ZbarBackend {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &ZbarBackend{binary: binary, runner: runner}
}

func (b *ZbarBackend) Name() string { return "zbar" }

// Decode returns the raw decoded payload of the first symbol in the frame,
// or an empty string when the frame carries no symbol.
func (b *ZbarBackend) Decode(ctx context.Context, framePath string) (string, error) {
	output, err := b.runner.Output(ctx, b.binary, "--quiet", "--raw", framePath)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == zbarNoSymbolExit {
			return "", nil
		}
		return "", services.Wrap(services.ErrExternalTool, "recognizer", "zbarimg", framePath, err)
	}
	return firstLine(string(output)), nil
}

func firstLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
