package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteMatrix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	matrix := [][]float64{{1, 2.5, 3}, {4, 5, 6}}

	if err := writeMatrix(path, matrix); err != nil {
		t.Fatalf("writeMatrix failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "1,2.5,3\n4,5,6\n"
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Errorf("matrix output mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg := loadConfig("")
	if cfg == nil {
		t.Fatal("expected default config for empty path")
	}
	if cfg.GetW() != 5 {
		t.Errorf("GetW() = %d, want default 5", cfg.GetW())
	}
}
