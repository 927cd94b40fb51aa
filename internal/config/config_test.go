package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/echopress-data/echopress/internal/align"
	"github.com/echopress-data/echopress/internal/deriv"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestEmptyConfigDefaults(t *testing.T) {
	cfg := EmptySessionConfig()

	if cfg.GetTieBreaker() != align.TieEarliest {
		t.Errorf("GetTieBreaker() = %v, want earliest", cfg.GetTieBreaker())
	}
	if !math.IsInf(cfg.GetOMax(), 1) {
		t.Errorf("GetOMax() = %v, want +Inf", cfg.GetOMax())
	}
	if cfg.GetRejectOverOMax() != false {
		t.Error("GetRejectOverOMax() = true, want false")
	}
	if cfg.GetW() != 5 {
		t.Errorf("GetW() = %d, want 5", cfg.GetW())
	}
	if cfg.GetPolyOrder() != deriv.DefaultPolyOrder {
		t.Errorf("GetPolyOrder() = %d, want %d", cfg.GetPolyOrder(), deriv.DefaultPolyOrder)
	}
	if cfg.GetMethod() != deriv.CentralDifference {
		t.Errorf("GetMethod() = %v, want central_difference", cfg.GetMethod())
	}
	if cfg.GetKappa() != 1 {
		t.Errorf("GetKappa() = %g, want 1", cfg.GetKappa())
	}
	if cfg.GetAdapter() != "fts" {
		t.Errorf("GetAdapter() = %q, want fts", cfg.GetAdapter())
	}
}

func TestLoadPartialConfig(t *testing.T) {
	path := writeConfig(t, "session.json", `{
		"o_max": 0.25,
		"reject_over_o_max": true,
		"w": 7,
		"method": "savitzky_golay",
		"polyorder": 3
	}`)

	cfg, err := LoadSessionConfig(path)
	if err != nil {
		t.Fatalf("LoadSessionConfig failed: %v", err)
	}

	if cfg.GetOMax() != 0.25 {
		t.Errorf("GetOMax() = %g, want 0.25", cfg.GetOMax())
	}
	if !cfg.GetRejectOverOMax() {
		t.Error("GetRejectOverOMax() = false, want true")
	}
	if cfg.GetW() != 7 {
		t.Errorf("GetW() = %d, want 7", cfg.GetW())
	}
	// Omitted fields keep defaults.
	if cfg.GetKappa() != 1 {
		t.Errorf("GetKappa() = %g, want default 1", cfg.GetKappa())
	}
	if cfg.GetTieBreaker() != align.TieEarliest {
		t.Errorf("GetTieBreaker() = %v, want default earliest", cfg.GetTieBreaker())
	}
}

func TestLoadRejectsNonJSONExtension(t *testing.T) {
	path := writeConfig(t, "session.yaml", `{}`)
	if _, err := LoadSessionConfig(path); err == nil {
		t.Fatal("expected extension error")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"bad tie":     `{"tie_breaker": "middle"}`,
		"neg o_max":   `{"o_max": -1}`,
		"zero w":      `{"w": 0}`,
		"bad method":  `{"method": "spline"}`,
		"neg kappa":   `{"kappa": -0.5}`,
		"alpha/beta":  `{"alpha": [1, 2], "beta": [0]}`,
		"neg channel": `{"scalar_channel": -1}`,
		"zero fs":     `{"fs": 0}`,
	}
	for name, body := range cases {
		path := writeConfig(t, "bad.json", body)
		if _, err := LoadSessionConfig(path); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

// An even W is valid configuration; the engine decrements it to the next
// odd effective window rather than the boundary rejecting it.
func TestEvenWindowAccepted(t *testing.T) {
	path := writeConfig(t, "even.json", `{"w": 4}`)

	cfg, err := LoadSessionConfig(path)
	if err != nil {
		t.Fatalf("LoadSessionConfig failed: %v", err)
	}
	if cfg.GetW() != 4 {
		t.Errorf("GetW() = %d, want 4", cfg.GetW())
	}

	resolved, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.Window != 4 {
		t.Errorf("Window = %d, want 4", resolved.Window)
	}
}

func TestResolve(t *testing.T) {
	path := writeConfig(t, "session.json", `{
		"tie_breaker": "latest",
		"o_max": 1.5,
		"w": 9,
		"kappa": 2,
		"method": "local_linear"
	}`)

	cfg, err := LoadSessionConfig(path)
	if err != nil {
		t.Fatalf("LoadSessionConfig failed: %v", err)
	}
	resolved, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := align.Config{
		TieBreak:  align.TieLatest,
		OMax:      1.5,
		Strict:    false,
		Window:    9,
		PolyOrder: deriv.DefaultPolyOrder,
		Kappa:     2,
		Method:    deriv.LocalLinear,
	}
	if resolved != want {
		t.Errorf("Resolve() = %+v, want %+v", resolved, want)
	}
}

func TestCalibrationDefaultsToIdentity(t *testing.T) {
	cfg := EmptySessionConfig()
	coeffs := cfg.Calibration()
	if len(coeffs.Alpha) != 1 || coeffs.Alpha[0] != 1 || coeffs.Beta[0] != 0 {
		t.Errorf("expected identity calibration, got %+v", coeffs)
	}

	cfg.Alpha = []float64{2, 3}
	cfg.Beta = []float64{0.1, 0.2}
	coeffs = cfg.Calibration()
	if len(coeffs.Alpha) != 2 || coeffs.Alpha[1] != 3 || coeffs.Beta[1] != 0.2 {
		t.Errorf("expected configured calibration, got %+v", coeffs)
	}
}
