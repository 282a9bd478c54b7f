package main

import (
	"strings"
	"testing"
)

func TestRenderTableRightAlignsNamedColumns(t *testing.T) {
	out := renderTable(
		[]string{"Snapshot", "Records"},
		[][]string{{"snap-1", "7"}},
		2,
	)
	if !strings.Contains(out, "Snapshot") || !strings.Contains(out, "snap-1") {
		t.Fatalf("rendered table missing content:\n%s", out)
	}
	// Right alignment pads the numeric cell to the header's width.
	if !strings.Contains(out, "      7") {
		t.Fatalf("records column not right-aligned:\n%s", out)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(
		[]string{"Device", "Mode"},
		[][]string{{"DEV1"}},
	)
	if !strings.Contains(out, "DEV1") {
		t.Fatalf("rendered table missing row:\n%s", out)
	}
}

func TestRenderTableEmptyHeaders(t *testing.T) {
	if out := renderTable(nil, [][]string{{"x"}}); out != "" {
		t.Fatalf("expected empty output, got:\n%s", out)
	}
}
