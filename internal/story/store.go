package story

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/storyforge/storyforge/internal/phase"
)

// Store persists story state on disk, one directory per run:
//
//	<base>/<run-id>/story.json              current snapshot
//	<base>/<run-id>/phases/<phase>/rev-N.txt raw artifact payloads
//
// story.json is the checkpoint; payload files exist so a human can read
// what each phase produced without parsing the snapshot.
type Store struct {
	baseDir string
}

// NewStore creates a Store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// BaseDir returns the store's root directory.
func (s *Store) BaseDir() string {
	return s.baseDir
}

func (s *Store) runDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

func (s *Store) storyPath(runID string) string {
	return filepath.Join(s.runDir(runID), "story.json")
}

func (s *Store) artifactPath(runID string, a Artifact) string {
	return filepath.Join(s.runDir(runID), "phases", a.PhaseID, fmt.Sprintf("rev-%d.txt", a.Revision))
}

// Create persists a fresh state, failing if the run already exists.
func (s *Store) Create(st *State) error {
	dir := s.runDir(st.RunID)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("run %s already exists", st.RunID)
	}
	if err := os.MkdirAll(filepath.Join(dir, "phases"), 0o755); err != nil {
		return fmt.Errorf("mkdir run dir: %w", err)
	}
	return s.Checkpoint(st)
}

// Checkpoint writes the full snapshot atomically. Called after every phase
// completion and on terminal status changes, never mid-phase.
func (s *Store) Checkpoint(st *State) error {
	data, err := st.Snapshot()
	if err != nil {
		return err
	}
	if err := writeAtomic(s.storyPath(st.RunID), data); err != nil {
		return fmt.Errorf("write story.json: %w", err)
	}
	return nil
}

// SaveArtifactFile writes an artifact's raw payload beside the snapshot.
func (s *Store) SaveArtifactFile(runID string, a Artifact) error {
	return writeAtomic(s.artifactPath(runID, a), []byte(a.Payload))
}

// Get reads the raw state for a run without graph verification. Use Load
// when the state will drive further execution.
func (s *Store) Get(runID string) (*State, error) {
	data, err := os.ReadFile(s.storyPath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("run %s not found", runID)
		}
		return nil, err
	}
	return Restore(data, nil)
}

// Load reads and verifies the state against the configured phase set.
// Returns ErrCorruptSnapshot when the snapshot no longer matches.
func (s *Store) Load(runID string, set *phase.Set) (*State, error) {
	data, err := os.ReadFile(s.storyPath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("run %s not found", runID)
		}
		return nil, err
	}
	return Restore(data, set)
}

// Update performs a read-modify-write of the state.
func (s *Store) Update(runID string, fn func(*State)) error {
	st, err := s.Get(runID)
	if err != nil {
		return err
	}
	fn(st)
	st.touch()
	return s.Checkpoint(st)
}

// List returns all runs, optionally filtered by status. Pass "" to return
// everything. Results are ordered by creation time, oldest first.
func (s *Store) List(statusFilter Status) ([]State, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", s.baseDir, err)
	}

	var runs []State
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		st, err := s.Get(entry.Name())
		if err != nil {
			continue // skip broken entries
		}
		if statusFilter == "" || st.Status == statusFilter {
			runs = append(runs, *st)
		}
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt != runs[j].CreatedAt {
			return runs[i].CreatedAt < runs[j].CreatedAt
		}
		return runs[i].RunID < runs[j].RunID
	})
	return runs, nil
}

// Delete removes all data for a run.
func (s *Store) Delete(runID string) error {
	dir := s.runDir(runID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("run %s not found", runID)
	}
	return os.RemoveAll(dir)
}
