package viz

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/echopress-data/echopress/internal/align"
)

func sampleRun() (times, pressures, midpoints []float64, batch align.BatchResult) {
	times = []float64{0, 10, 20, 30}
	pressures = []float64{100, 101, 103, 106}
	midpoints = []float64{9, 21, 95}
	batch = align.BatchResult{Results: []align.Result{
		{State: align.StateAligned, Index: 1, EAlign: 1, DpDt: 0.1, DeltaP: 0.1, BoundLo: -0.1, BoundHi: 0.1},
		{State: align.StateWarning, Index: 2, EAlign: 1, DpDt: 0.25, DeltaP: 0.25, BoundLo: -0.25, BoundHi: 0.25},
		{State: align.StateRejected, Index: align.RejectedIndex, EAlign: 65},
	}}
	return times, pressures, midpoints, batch
}

func TestRenderHTML(t *testing.T) {
	times, pressures, midpoints, batch := sampleRun()

	var sb strings.Builder
	if err := RenderHTML(&sb, "test run", times, pressures, midpoints, batch); err != nil {
		t.Fatalf("RenderHTML failed: %v", err)
	}

	html := sb.String()
	for _, want := range []string{"pressure", "aligned", "warning", "test run"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered HTML missing %q", want)
		}
	}
}

func TestRenderHTMLLengthMismatch(t *testing.T) {
	times, pressures, _, batch := sampleRun()
	var sb strings.Builder
	if err := RenderHTML(&sb, "t", times, pressures, []float64{1}, batch); err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestSavePNG(t *testing.T) {
	times, pressures, midpoints, batch := sampleRun()

	path := filepath.Join(t.TempDir(), "run.png")
	if err := SavePNG(path, "test run", times, pressures, midpoints, batch); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat plot: %v", err)
	}
	if info.Size() == 0 {
		t.Error("plot file is empty")
	}
}
