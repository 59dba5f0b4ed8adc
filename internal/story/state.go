// Package story holds the mutable record of everything a run has produced
// and its persistence: artifacts keyed by phase, run status, and the
// checkpointed snapshot format used for resume.
package story

import (
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of a run's story.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusSuspended  Status = "suspended"
)

var (
	// ErrDependencyNotSatisfied marks an Apply called before all of the
	// phase's dependencies have artifacts.
	ErrDependencyNotSatisfied = errors.New("dependency not satisfied")

	// ErrInvalidTransition marks a status change that violates the
	// monotonic lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Artifact is the validated output of one phase attempt. Never mutated
// once appended; a replacement gets the next revision number.
type Artifact struct {
	PhaseID   string `json:"phase_id"`
	Kind      string `json:"kind"`
	Revision  int    `json:"revision"`
	Attempts  int    `json:"attempts"` // invocation attempts consumed producing it
	Payload   string `json:"payload"`
	CreatedAt string `json:"created_at"`
}

// State is the accumulating record of a run. Owned exclusively by the
// coordinator while a run is live; concurrent phase completions are
// serialized by the coordinator before touching it.
type State struct {
	RunID            string            `json:"run_id"`
	Genre            string            `json:"genre"`
	Title            string            `json:"title"`
	Chapter          int               `json:"chapter"`
	Status           Status            `json:"status"`
	Artifacts        []Artifact        `json:"artifacts"`
	Completed        []string          `json:"completed_phase_ids"`
	GraphFingerprint string            `json:"graph_fingerprint"`
	CustomInputs     map[string]string `json:"custom_inputs,omitempty"`
	SeedRunID        string            `json:"seed_run_id,omitempty"` // set on continuation runs
	FailurePhase     string            `json:"failure_phase,omitempty"`
	FailureKind      string            `json:"failure_kind,omitempty"`
	WordCount        int               `json:"word_count"`
	CreatedAt        string            `json:"created_at"`
	UpdatedAt        string            `json:"updated_at"`
}

// NewState creates a pending story state bound to a run.
func NewState(runID, genre, title, fingerprint string, inputs map[string]string) *State {
	now := time.Now().UTC().Format(time.RFC3339)
	return &State{
		RunID:            runID,
		Genre:            genre,
		Title:            title,
		Chapter:          1,
		Status:           StatusPending,
		Artifacts:        []Artifact{},
		Completed:        []string{},
		GraphFingerprint: fingerprint,
		CustomInputs:     inputs,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// canTransition encodes the monotonic lifecycle. Reopening a failed or
// suspended run is only legal through Reopen (explicit resume).
func canTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusInProgress
	case StatusInProgress:
		return to == StatusCompleted || to == StatusFailed || to == StatusSuspended
	default:
		return false
	}
}

// Transition advances the status, rejecting non-monotonic moves.
func (s *State) Transition(to Status) error {
	if !canTransition(s.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, to)
	}
	s.Status = to
	s.touch()
	return nil
}

// Reopen moves a failed or suspended run back to in_progress. This is the
// only path out of those states, and only an explicit resume takes it.
func (s *State) Reopen() error {
	if s.Status != StatusFailed && s.Status != StatusSuspended {
		return fmt.Errorf("%w: cannot reopen run in status %s", ErrInvalidTransition, s.Status)
	}
	s.Status = StatusInProgress
	s.FailurePhase = ""
	s.FailureKind = ""
	s.touch()
	return nil
}

// Apply inserts the artifact for phaseID and records the phase as
// completed. All-or-nothing: if any declared dependency lacks an artifact,
// nothing changes and ErrDependencyNotSatisfied is returned.
func (s *State) Apply(phaseID string, a Artifact, deps []string) error {
	for _, dep := range deps {
		if !s.HasArtifact(dep) {
			return fmt.Errorf("%w: phase %q requires %q", ErrDependencyNotSatisfied, phaseID, dep)
		}
	}

	a.PhaseID = phaseID
	a.Revision = s.nextRevision(phaseID)
	if a.CreatedAt == "" {
		a.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	s.Artifacts = append(s.Artifacts, a)

	if !s.isCompleted(phaseID) {
		s.Completed = append(s.Completed, phaseID)
	}
	s.touch()
	return nil
}

// SeedPhaseID is the reserved phase id for context carried into a
// continuation run, such as the previous chapter's finished text. Seed
// artifacts never mark a phase completed.
const SeedPhaseID = "previous_chapter"

// Seed appends a context artifact without satisfying or completing any
// phase. Used when a continuation run carries material from its seed run.
func (s *State) Seed(a Artifact) {
	a.Revision = s.nextRevision(a.PhaseID)
	if a.CreatedAt == "" {
		a.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	s.Artifacts = append(s.Artifacts, a)
	s.touch()
}

// HasArtifact reports whether any revision exists for the phase.
func (s *State) HasArtifact(phaseID string) bool {
	for i := range s.Artifacts {
		if s.Artifacts[i].PhaseID == phaseID {
			return true
		}
	}
	return false
}

// Latest returns the highest-revision artifact for the phase.
func (s *State) Latest(phaseID string) (Artifact, bool) {
	var best Artifact
	found := false
	for i := range s.Artifacts {
		a := s.Artifacts[i]
		if a.PhaseID == phaseID && (!found || a.Revision > best.Revision) {
			best = a
			found = true
		}
	}
	return best, found
}

// CompletedSet returns the completed phase IDs as a set.
func (s *State) CompletedSet() map[string]bool {
	out := make(map[string]bool, len(s.Completed))
	for _, id := range s.Completed {
		out[id] = true
	}
	return out
}

func (s *State) nextRevision(phaseID string) int {
	max := 0
	for i := range s.Artifacts {
		if s.Artifacts[i].PhaseID == phaseID && s.Artifacts[i].Revision > max {
			max = s.Artifacts[i].Revision
		}
	}
	return max + 1
}

func (s *State) isCompleted(phaseID string) bool {
	for _, id := range s.Completed {
		if id == phaseID {
			return true
		}
	}
	return false
}

func (s *State) touch() {
	s.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}
