package story

import (
	"errors"
	"testing"
)

func newTestState() *State {
	return NewState("run-1", "noir", "The Long Drop", "abc123", nil)
}

func TestApplyRecordsArtifactAndCompletion(t *testing.T) {
	st := newTestState()

	err := st.Apply("research", Artifact{Kind: "research_brief", Payload: "notes", Attempts: 1}, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	a, ok := st.Latest("research")
	if !ok {
		t.Fatal("missing artifact for research")
	}
	if a.Revision != 1 {
		t.Errorf("Revision = %d, want 1", a.Revision)
	}
	if a.Payload != "notes" {
		t.Errorf("Payload = %q, want %q", a.Payload, "notes")
	}
	if len(st.Completed) != 1 || st.Completed[0] != "research" {
		t.Errorf("Completed = %v, want [research]", st.Completed)
	}
}

func TestApplyDependencyNotSatisfied(t *testing.T) {
	st := newTestState()

	err := st.Apply("plot", Artifact{Kind: "plot_outline", Payload: "x"}, []string{"research"})
	if !errors.Is(err, ErrDependencyNotSatisfied) {
		t.Fatalf("Apply = %v, want ErrDependencyNotSatisfied", err)
	}
	// All-or-nothing: nothing may have been written.
	if len(st.Artifacts) != 0 || len(st.Completed) != 0 {
		t.Errorf("state mutated on failed Apply: artifacts=%d completed=%d", len(st.Artifacts), len(st.Completed))
	}
}

func TestApplyRetryPreservesPriorRevisions(t *testing.T) {
	st := newTestState()

	if err := st.Apply("draft", Artifact{Kind: "chapter_text", Payload: "v1"}, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := st.Apply("draft", Artifact{Kind: "chapter_text", Payload: "v2"}, nil); err != nil {
		t.Fatalf("Apply rev 2: %v", err)
	}

	if len(st.Artifacts) != 2 {
		t.Fatalf("len(Artifacts) = %d, want 2 (prior revision preserved)", len(st.Artifacts))
	}
	latest, _ := st.Latest("draft")
	if latest.Revision != 2 || latest.Payload != "v2" {
		t.Errorf("Latest = rev %d payload %q, want rev 2 payload v2", latest.Revision, latest.Payload)
	}
	// Completed must not duplicate.
	if len(st.Completed) != 1 {
		t.Errorf("Completed = %v, want single entry", st.Completed)
	}
}

func TestStatusTransitionsMonotonic(t *testing.T) {
	st := newTestState()

	if err := st.Transition(StatusInProgress); err != nil {
		t.Fatalf("pending -> in_progress: %v", err)
	}
	if err := st.Transition(StatusCompleted); err != nil {
		t.Fatalf("in_progress -> completed: %v", err)
	}
	if err := st.Transition(StatusInProgress); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("completed -> in_progress = %v, want ErrInvalidTransition", err)
	}
}

func TestFailedReopensOnlyViaReopen(t *testing.T) {
	st := newTestState()
	st.Transition(StatusInProgress)
	st.Transition(StatusFailed)

	if err := st.Transition(StatusInProgress); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("failed -> in_progress via Transition = %v, want ErrInvalidTransition", err)
	}
	if err := st.Reopen(); err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	if st.Status != StatusInProgress {
		t.Errorf("Status = %s, want in_progress", st.Status)
	}
}

func TestReopenRejectsNonTerminal(t *testing.T) {
	st := newTestState()
	if err := st.Reopen(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Reopen on pending = %v, want ErrInvalidTransition", err)
	}
	st.Transition(StatusInProgress)
	st.Transition(StatusCompleted)
	if err := st.Reopen(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Reopen on completed = %v, want ErrInvalidTransition", err)
	}
}

func TestSuspendedIsDistinctFromFailed(t *testing.T) {
	st := newTestState()
	st.Transition(StatusInProgress)
	if err := st.Transition(StatusSuspended); err != nil {
		t.Fatalf("in_progress -> suspended: %v", err)
	}
	if err := st.Reopen(); err != nil {
		t.Fatalf("Reopen suspended: %v", err)
	}
}

func TestSeedDoesNotCompletePhases(t *testing.T) {
	st := NewState("run-1", "noir", "", "fp", nil)
	st.Seed(Artifact{PhaseID: SeedPhaseID, Kind: "edited_chapter", Payload: "chapter one"})

	if len(st.Completed) != 0 {
		t.Errorf("seed marked phases completed: %v", st.Completed)
	}
	a, ok := st.Latest(SeedPhaseID)
	if !ok {
		t.Fatal("seed artifact not retrievable")
	}
	if a.Revision != 1 {
		t.Errorf("revision = %d, want 1", a.Revision)
	}
	if a.CreatedAt == "" {
		t.Error("seed artifact missing created_at")
	}

	// Seeds do not satisfy dependencies either.
	err := st.Apply("draft", Artifact{Kind: "chapter_text", Payload: "x"}, []string{"plot"})
	if !errors.Is(err, ErrDependencyNotSatisfied) {
		t.Fatalf("Apply with missing dep = %v, want ErrDependencyNotSatisfied", err)
	}
}
