package story

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/storyforge/storyforge/internal/phase"
)

// ErrCorruptSnapshot marks a snapshot that cannot be restored: required
// fields missing, unreadable JSON, or a phase graph that no longer matches
// the configured pipeline. The snapshot on disk is left untouched.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// Snapshot serializes the state into a self-describing document suitable
// for durable storage. The layout is plain JSON: run_id, status, ordered
// artifacts, completed_phase_ids, and the graph fingerprint.
func (s *State) Snapshot() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// Restore reconstructs a State from snapshot bytes and verifies it against
// the currently configured phase set. A mismatch is reported, never
// silently patched.
func Restore(data []byte, set *phase.Set) (*State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if s.RunID == "" {
		return nil, fmt.Errorf("%w: missing run_id", ErrCorruptSnapshot)
	}
	if s.Status == "" {
		return nil, fmt.Errorf("%w: missing status", ErrCorruptSnapshot)
	}
	if s.GraphFingerprint == "" {
		return nil, fmt.Errorf("%w: missing graph fingerprint", ErrCorruptSnapshot)
	}
	if set != nil && s.GraphFingerprint != set.Fingerprint() {
		return nil, fmt.Errorf("%w: snapshot was taken against a different phase graph (%s != %s)",
			ErrCorruptSnapshot, s.GraphFingerprint, set.Fingerprint())
	}

	// Every completed phase must have an artifact backing it.
	for _, id := range s.Completed {
		if !s.HasArtifact(id) {
			return nil, fmt.Errorf("%w: phase %q marked completed without an artifact", ErrCorruptSnapshot, id)
		}
	}
	if s.Artifacts == nil {
		s.Artifacts = []Artifact{}
	}
	if s.Completed == nil {
		s.Completed = []string{}
	}
	return &s, nil
}
