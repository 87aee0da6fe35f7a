package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PackratWindowOrDefault() != defaultPackratWindow {
		t.Fatalf("PackratWindowOrDefault = %v, want default", cfg.PackratWindowOrDefault())
	}
	if !cfg.LocalShortCircuitOrDefault() {
		t.Fatalf("LocalShortCircuitOrDefault should default to true")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carp.toml")
	contents := `
[general]
output-dir = "gen"
package-name = "bankpb"

[runtime]
packrat-window = "10s"
deferred-queue-capacity = 64
local-short-circuit = false
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.OutputDir != "gen" || cfg.General.PackageName != "bankpb" {
		t.Fatalf("general section not loaded: %+v", cfg.General)
	}
	if got := cfg.PackratWindowOrDefault(); got != 10*time.Second {
		t.Fatalf("PackratWindowOrDefault = %v, want 10s", got)
	}
	if cfg.DeferredQueueCapacityOrDefault() != 64 {
		t.Fatalf("DeferredQueueCapacityOrDefault = %d, want 64", cfg.DeferredQueueCapacityOrDefault())
	}
	if cfg.LocalShortCircuitOrDefault() {
		t.Fatalf("LocalShortCircuitOrDefault should be false")
	}
}
