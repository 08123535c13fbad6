// Package state persists per-environment run history: which provisioning
// step each environment last completed and how its last build ended. The
// file exists for diagnosing interrupted runs; every step is idempotent, so
// re-running is always safe regardless of recorded state.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Build outcome values recorded in run history.
const (
	ResultSucceeded = "succeeded"
	ResultFailed    = "failed"
)

// State is the persisted run history, keyed by environment label
// (container name or "host").
type State struct {
	Version      string          `json:"version"`
	LastUpdated  time.Time       `json:"last_updated"`
	Environments map[string]*Run `json:"environments"`
	mu           sync.RWMutex    `json:"-"`
	filePath     string          `json:"-"`
	modified     bool            `json:"-"`
}

// Run is the recorded history for a single environment.
type Run struct {
	LastStep    string    `json:"last_step"`
	LastTarget  string    `json:"last_target,omitempty"`
	LastResult  string    `json:"last_result,omitempty"`
	LastStarted time.Time `json:"last_started"`
}

// Load reads run history from filePath, returning an empty state if the
// file does not exist.
func Load(filePath string) (*State, error) {
	s := &State{
		Version:      "1",
		Environments: make(map[string]*Run),
		filePath:     filePath,
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return s, nil
	}

	data, err := os.ReadFile(filePath) // #nosec G304 -- filePath is controlled by application, not user input
	if err != nil {
		return nil, fmt.Errorf("failed to read state file from %s: %w", filePath, err)
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", filePath, err)
	}
	if s.Environments == nil {
		s.Environments = make(map[string]*Run)
	}

	s.filePath = filePath
	return s, nil
}

// RecordStep notes that label has completed step in the current run.
func (s *State) RecordStep(label, step string, started time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run := s.Environments[label]
	if run == nil {
		run = &Run{}
		s.Environments[label] = run
	}
	run.LastStep = step
	run.LastStarted = started
	s.modified = true
}

// RecordBuild notes the outcome of a build of target for label.
func (s *State) RecordBuild(label, target, result string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run := s.Environments[label]
	if run == nil {
		run = &Run{LastStarted: time.Now()}
		s.Environments[label] = run
	}
	run.LastTarget = target
	run.LastResult = result
	s.modified = true
}

// Get returns the recorded run for label, or nil.
func (s *State) Get(label string) *Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.Environments[label]
	if !ok {
		return nil
	}
	clone := *run
	return &clone
}

// All returns a copy of every recorded run.
func (s *State) All() map[string]*Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*Run, len(s.Environments))
	for label, run := range s.Environments {
		clone := *run
		result[label] = &clone
	}
	return result
}

// ResetAll clears all run history and persists the change to disk.
func (s *State) ResetAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Environments = make(map[string]*Run)
	s.modified = true
	return s.saveUnlocked()
}

// Save writes the state to disk atomically if it has been modified.
func (s *State) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveUnlocked()
}

// saveUnlocked performs the save operation; caller must hold the lock.
func (s *State) saveUnlocked() error {
	if !s.modified {
		return nil
	}

	s.LastUpdated = time.Now()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state for %s: %w", s.filePath, err)
	}

	// Atomic write: write to temp file, then rename
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}
	tmpFile, err := os.CreateTemp(dir, "state-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in directory %s for state %s: %w", dir, s.filePath, err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file %s for state %s: %w", tmpPath, s.filePath, err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file %s for state %s: %w", tmpPath, s.filePath, err)
	}
	_ = tmpFile.Close()

	if err := os.Rename(tmpPath, s.filePath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file %s to %s: %w", tmpPath, s.filePath, err)
	}

	s.modified = false
	return nil
}
