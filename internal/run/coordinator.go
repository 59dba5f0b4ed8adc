// Package run drives a story pipeline from creation to a terminal status.
// The coordinator owns the live state of a run: it dispatches ready phases
// to the execution engine, applies their artifacts, and checkpoints after
// every completion so any interruption can resume from the last phase
// boundary.
package run

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/storyforge/storyforge/internal/db"
	"github.com/storyforge/storyforge/internal/engine"
	"github.com/storyforge/storyforge/internal/phase"
	"github.com/storyforge/storyforge/internal/story"
)

// Coordinator composes run lifecycle operations over a fixed phase set.
type Coordinator struct {
	store         *story.Store
	set           *phase.Set
	engine        *engine.Engine
	events        *db.DB // nil disables journaling
	logger        *slog.Logger
	maxConcurrent int
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithEvents enables run-event journaling to the given database.
func WithEvents(d *db.DB) Option {
	return func(c *Coordinator) { c.events = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithMaxConcurrent sets how many independent phases may run at once.
func WithMaxConcurrent(n int) Option {
	return func(c *Coordinator) { c.maxConcurrent = n }
}

// New creates a Coordinator.
func New(store *story.Store, set *phase.Set, eng *engine.Engine, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:         store,
		set:           set,
		engine:        eng,
		logger:        slog.Default(),
		maxConcurrent: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Outcome summarizes what one Start/Resume/Continue invocation did.
type Outcome struct {
	RunID     string          `json:"run_id"`
	Status    story.Status    `json:"status"`
	Final     *story.Artifact `json:"final,omitempty"` // set when the run is completed
	WordCount int             `json:"word_count,omitempty"`
	Executed  int             `json:"executed"` // phase executions performed by this invocation
}

// StatusInfo is the inspection view of a run.
type StatusInfo struct {
	RunID        string       `json:"run_id"`
	Genre        string       `json:"genre"`
	Title        string       `json:"title,omitempty"`
	Chapter      int          `json:"chapter"`
	Status       story.Status `json:"status"`
	Completed    []string     `json:"completed"`
	Pending      []string     `json:"pending"`
	FailurePhase string       `json:"failure_phase,omitempty"`
	FailureKind  string       `json:"failure_kind,omitempty"`
	WordCount    int          `json:"word_count,omitempty"`
	SeedRunID    string       `json:"seed_run_id,omitempty"`
	CreatedAt    string       `json:"created_at"`
	UpdatedAt    string       `json:"updated_at"`
}

// StartOpts holds options for starting a run.
type StartOpts struct {
	Genre        string
	Title        string
	CustomInputs map[string]string
}

// Start creates a new run and drives it until it reaches a terminal
// status or the context is canceled. A run that fails or suspends is not
// an error here: the outcome carries the status and the run stays on disk
// for Resume.
func (c *Coordinator) Start(ctx context.Context, opts StartOpts) (*Outcome, error) {
	if opts.Genre == "" {
		return nil, fmt.Errorf("genre is required")
	}

	runID := uuid.NewString()
	st := story.NewState(runID, opts.Genre, opts.Title, c.set.Fingerprint(), opts.CustomInputs)
	if err := c.store.Create(st); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	c.logEvent(runID, "created", "", 0, "genre="+opts.Genre)
	c.logger.Info("run created", "run", runID, "genre", opts.Genre, "phases", c.set.Len())

	return c.run(ctx, st)
}

// Resume picks up a run where it left off. A completed run is a no-op
// that returns the existing outcome without executing anything. A failed
// or suspended run is reopened; only phases lacking artifacts execute.
func (c *Coordinator) Resume(ctx context.Context, runID string) (*Outcome, error) {
	st, err := c.store.Load(runID, c.set)
	if err != nil {
		return nil, err
	}

	switch st.Status {
	case story.StatusCompleted:
		return c.outcome(st, 0), nil
	case story.StatusFailed, story.StatusSuspended:
		if err := st.Reopen(); err != nil {
			return nil, err
		}
		if err := c.store.Checkpoint(st); err != nil {
			return nil, err
		}
	}

	c.logEvent(runID, "resumed", "", 0, "")
	c.logger.Info("run resumed", "run", runID, "completed", len(st.Completed), "total", c.set.Len())
	return c.run(ctx, st)
}

// Continue starts a new run for the next chapter, seeded with the prior
// run's final text. The prior run must be completed; it is left untouched.
func (c *Coordinator) Continue(ctx context.Context, runID string) (*Outcome, error) {
	prior, err := c.store.Load(runID, c.set)
	if err != nil {
		return nil, err
	}
	if prior.Status != story.StatusCompleted {
		return nil, fmt.Errorf("run %s is %s: only completed runs can be continued", runID, prior.Status)
	}
	final, ok := c.finalArtifact(prior)
	if !ok {
		return nil, fmt.Errorf("run %s has no final artifact", runID)
	}

	inputs := make(map[string]string, len(prior.CustomInputs))
	for k, v := range prior.CustomInputs {
		inputs[k] = v
	}

	st := story.NewState(uuid.NewString(), prior.Genre, prior.Title, c.set.Fingerprint(), inputs)
	st.Chapter = prior.Chapter + 1
	st.SeedRunID = prior.RunID
	st.Seed(story.Artifact{
		PhaseID: story.SeedPhaseID,
		Kind:    final.Kind,
		Payload: final.Payload,
	})

	if err := c.store.Create(st); err != nil {
		return nil, fmt.Errorf("create continuation run: %w", err)
	}
	c.logEvent(st.RunID, "continued", "", 0, "seed="+prior.RunID)
	c.logger.Info("continuation run created", "run", st.RunID, "seed", prior.RunID, "chapter", st.Chapter)

	return c.run(ctx, st)
}

// Status returns the inspection view of a run.
func (c *Coordinator) Status(runID string) (*StatusInfo, error) {
	st, err := c.store.Get(runID)
	if err != nil {
		return nil, err
	}

	completed := st.CompletedSet()
	var pending []string
	for _, p := range c.set.Phases() {
		if !completed[p.ID] {
			pending = append(pending, p.ID)
		}
	}

	return &StatusInfo{
		RunID:        st.RunID,
		Genre:        st.Genre,
		Title:        st.Title,
		Chapter:      st.Chapter,
		Status:       st.Status,
		Completed:    st.Completed,
		Pending:      pending,
		FailurePhase: st.FailurePhase,
		FailureKind:  st.FailureKind,
		WordCount:    st.WordCount,
		SeedRunID:    st.SeedRunID,
		CreatedAt:    st.CreatedAt,
		UpdatedAt:    st.UpdatedAt,
	}, nil
}

// List returns runs from the store, optionally filtered by status.
func (c *Coordinator) List(status story.Status) ([]story.State, error) {
	return c.store.List(status)
}

// Cancel marks a non-terminal run suspended so a later Resume can pick it
// up cleanly. Runs already in a terminal status are rejected.
func (c *Coordinator) Cancel(runID string) error {
	st, err := c.store.Get(runID)
	if err != nil {
		return err
	}
	switch st.Status {
	case story.StatusCompleted, story.StatusFailed, story.StatusSuspended:
		return fmt.Errorf("run %s is already %s", runID, st.Status)
	}

	if st.Status == story.StatusPending {
		if err := st.Transition(story.StatusInProgress); err != nil {
			return err
		}
	}
	if err := st.Transition(story.StatusSuspended); err != nil {
		return err
	}
	if err := c.store.Checkpoint(st); err != nil {
		return err
	}
	c.logEvent(runID, "suspended", "", 0, "canceled")
	return nil
}

// Final returns a completed run's state and final artifact, for export.
func (c *Coordinator) Final(runID string) (*story.State, story.Artifact, error) {
	st, err := c.store.Get(runID)
	if err != nil {
		return nil, story.Artifact{}, err
	}
	if st.Status != story.StatusCompleted {
		return nil, story.Artifact{}, fmt.Errorf("run %s is %s: only completed runs can be exported", runID, st.Status)
	}
	final, ok := c.finalArtifact(st)
	if !ok {
		return nil, story.Artifact{}, fmt.Errorf("run %s has no final artifact", runID)
	}
	return st, final, nil
}

// finalArtifact returns the latest artifact of the last declared phase.
func (c *Coordinator) finalArtifact(st *story.State) (story.Artifact, bool) {
	phases := c.set.Phases()
	if len(phases) == 0 {
		return story.Artifact{}, false
	}
	return st.Latest(phases[len(phases)-1].ID)
}

func (c *Coordinator) outcome(st *story.State, executed int) *Outcome {
	o := &Outcome{
		RunID:     st.RunID,
		Status:    st.Status,
		WordCount: st.WordCount,
		Executed:  executed,
	}
	if st.Status == story.StatusCompleted {
		if final, ok := c.finalArtifact(st); ok {
			o.Final = &final
		}
	}
	return o
}

func (c *Coordinator) logEvent(runID, event, phaseID string, attempt int, detail string) {
	if c.events == nil {
		return
	}
	_ = c.events.LogRunEvent(runID, event, phaseID, attempt, detail)
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
