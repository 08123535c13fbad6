package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsEmptyState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(s.Environments) != 0 {
		t.Errorf("expected empty environments, got %d", len(s.Environments))
	}
}

func TestRecordStepRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s.RecordStep("kria-build", "clone-poky", started)
	s.RecordBuild("kria-build", "core-image-minimal", ResultSucceeded)
	if err := s.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload error = %v", err)
	}
	run := loaded.Get("kria-build")
	if run == nil {
		t.Fatal("expected run for kria-build after reload")
	}
	if run.LastStep != "clone-poky" {
		t.Errorf("LastStep = %q, want %q", run.LastStep, "clone-poky")
	}
	if run.LastTarget != "core-image-minimal" {
		t.Errorf("LastTarget = %q, want %q", run.LastTarget, "core-image-minimal")
	}
	if run.LastResult != ResultSucceeded {
		t.Errorf("LastResult = %q, want %q", run.LastResult, ResultSucceeded)
	}
	if !run.LastStarted.Equal(started) {
		t.Errorf("LastStarted = %v, want %v", run.LastStarted, started)
	}
}

func TestSaveWithoutModificationIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected no state file after saving unmodified state")
	}
}

func TestResetAllClearsAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	s.RecordStep("host", "verify-tools", time.Now())
	if err := s.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := s.ResetAll(); err != nil {
		t.Fatalf("ResetAll() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if len(loaded.Environments) != 0 {
		t.Errorf("expected empty environments after reset, got %d", len(loaded.Environments))
	}
}

func TestGetReturnsCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	s.RecordStep("host", "install-deps", time.Now())

	run := s.Get("host")
	run.LastStep = "mutated"

	if got := s.Get("host").LastStep; got != "install-deps" {
		t.Errorf("internal state mutated through Get(): LastStep = %q", got)
	}
}

func TestLoadCorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error loading corrupt state file")
	}
}
