package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "debugnerd" {
		t.Errorf("expected Name=debugnerd, got %s", cfg.Name)
	}
	if cfg.Agent.MaxSessionSteps != 20 {
		t.Errorf("expected MaxSessionSteps=20, got %d", cfg.Agent.MaxSessionSteps)
	}
	if cfg.Agent.DedupWindow != 3 {
		t.Errorf("expected DedupWindow=3, got %d", cfg.Agent.DedupWindow)
	}
	if cfg.Memory.FileTruncationThreshold != 2000 {
		t.Errorf("expected FileTruncationThreshold=2000, got %d", cfg.Memory.FileTruncationThreshold)
	}
	if cfg.Retrieval.BM25Weight != 0.3 || cfg.Retrieval.VectorWeight != 0.7 {
		t.Errorf("expected weights 0.3/0.7, got %v/%v", cfg.Retrieval.BM25Weight, cfg.Retrieval.VectorWeight)
	}
	if cfg.PacingDelay() != 500*time.Millisecond {
		t.Errorf("expected pacing 500ms, got %v", cfg.PacingDelay())
	}
	if cfg.DiagnosticTimeout() != 8*time.Second {
		t.Errorf("expected diagnostic timeout 8s, got %v", cfg.DiagnosticTimeout())
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Planner.Backend = "genai"
	cfg.Agent.MaxSessionSteps = 12

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Planner.Backend != "genai" {
		t.Errorf("expected Backend=genai, got %s", loaded.Planner.Backend)
	}
	if loaded.Agent.MaxSessionSteps != 12 {
		t.Errorf("expected MaxSessionSteps=12, got %d", loaded.Agent.MaxSessionSteps)
	}
	// Untouched sections keep defaults.
	if loaded.Execution.DiagnosticTimeout != "8s" {
		t.Errorf("expected DiagnosticTimeout=8s, got %s", loaded.Execution.DiagnosticTimeout)
	}
}

func TestConfig_LoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope", "config.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Agent.MaxSessionSteps != 20 {
		t.Errorf("expected default MaxSessionSteps=20, got %d", cfg.Agent.MaxSessionSteps)
	}
}

func TestConfig_DurationFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Agent.PacingDelay = "not-a-duration"
	if cfg.PacingDelay() != 500*time.Millisecond {
		t.Errorf("expected fallback 500ms, got %v", cfg.PacingDelay())
	}
	cfg.Memory.SearchCacheTTL = ""
	if cfg.SearchCacheTTL() != 5*time.Minute {
		t.Errorf("expected fallback 5m, got %v", cfg.SearchCacheTTL())
	}
}
