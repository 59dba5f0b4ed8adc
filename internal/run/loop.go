package run

import (
	"context"
	"fmt"

	"github.com/storyforge/storyforge/internal/engine"
	"github.com/storyforge/storyforge/internal/phase"
	"github.com/storyforge/storyforge/internal/prompt"
	"github.com/storyforge/storyforge/internal/story"
)

type phaseResult struct {
	p   phase.Phase
	res engine.Result
}

// run drives the ready set to a terminal status. The loop goroutine is
// the only writer of the state: workers execute phases and report results
// over a channel, so Apply and the checkpoint that follows are always
// serialized and always happen before any dependent phase dispatches.
func (c *Coordinator) run(ctx context.Context, st *story.State) (*Outcome, error) {
	switch st.Status {
	case story.StatusPending:
		if err := st.Transition(story.StatusInProgress); err != nil {
			return nil, err
		}
		if err := c.store.Checkpoint(st); err != nil {
			return nil, err
		}
	case story.StatusInProgress:
		// reopened or interrupted run, keep going
	default:
		return nil, fmt.Errorf("run %s is %s, not runnable", st.RunID, st.Status)
	}

	limit := c.maxConcurrent
	if limit < 1 {
		limit = 1
	}

	running := make(map[string]bool)
	results := make(chan phaseResult)
	executed := 0
	var failure *phaseResult

	for {
		if failure == nil && ctx.Err() == nil {
			for _, p := range c.set.Ready(st.CompletedSet()) {
				if running[p.ID] || len(running) >= limit {
					continue
				}
				text, err := prompt.Build(p, st)
				if err != nil {
					return nil, fmt.Errorf("build prompt for phase %s: %w", p.ID, err)
				}
				running[p.ID] = true
				go func(p phase.Phase, text string) {
					results <- phaseResult{p: p, res: c.engine.Execute(ctx, p, text)}
				}(p, text)
			}
		}

		if len(running) == 0 {
			return c.finish(st, failure, ctx.Err(), executed)
		}

		out := <-results
		delete(running, out.p.ID)
		executed++

		if out.res.Kind == engine.Success {
			if err := st.Apply(out.p.ID, out.res.Artifact, out.p.DependsOn); err != nil {
				return nil, fmt.Errorf("apply artifact for phase %s: %w", out.p.ID, err)
			}
			applied, _ := st.Latest(out.p.ID)
			if err := c.store.SaveArtifactFile(st.RunID, applied); err != nil {
				return nil, fmt.Errorf("save artifact for phase %s: %w", out.p.ID, err)
			}
			if err := c.store.Checkpoint(st); err != nil {
				return nil, fmt.Errorf("checkpoint after phase %s: %w", out.p.ID, err)
			}
			c.logEvent(st.RunID, "phase_completed", out.p.ID, out.res.Attempts, "")
			c.logger.Info("phase completed",
				"run", st.RunID, "phase", out.p.ID, "attempts", out.res.Attempts, "duration", out.res.Duration)
			continue
		}

		// A timeout reported after the parent context was canceled is the
		// cancellation surfacing, not a phase failure.
		if ctx.Err() != nil && out.res.Kind == engine.Timeout {
			continue
		}

		if failure == nil {
			f := out
			failure = &f
		}
		c.logEvent(st.RunID, "phase_failed", out.p.ID, out.res.Attempts, string(out.res.Kind))
		c.logger.Warn("phase failed",
			"run", st.RunID, "phase", out.p.ID, "kind", string(out.res.Kind),
			"attempts", out.res.Attempts, "error", out.res.Err)
	}
}

// finish settles the run into a terminal status once no work is in flight.
func (c *Coordinator) finish(st *story.State, failure *phaseResult, ctxErr error, executed int) (*Outcome, error) {
	if failure != nil {
		st.FailurePhase = failure.p.ID
		st.FailureKind = string(failure.res.Kind)
		if err := st.Transition(story.StatusFailed); err != nil {
			return nil, err
		}
		if err := c.store.Checkpoint(st); err != nil {
			return nil, err
		}
		c.logEvent(st.RunID, "failed", failure.p.ID, failure.res.Attempts, string(failure.res.Kind))
		c.logger.Warn("run failed", "run", st.RunID, "phase", failure.p.ID, "kind", st.FailureKind)
		return c.outcome(st, executed), nil
	}

	if ctxErr != nil {
		if err := st.Transition(story.StatusSuspended); err != nil {
			return nil, err
		}
		if err := c.store.Checkpoint(st); err != nil {
			return nil, err
		}
		c.logEvent(st.RunID, "suspended", "", 0, ctxErr.Error())
		c.logger.Info("run suspended", "run", st.RunID, "completed", len(st.Completed), "total", c.set.Len())
		return c.outcome(st, executed), nil
	}

	if len(st.Completed) == c.set.Len() {
		if final, ok := c.finalArtifact(st); ok {
			st.WordCount = wordCount(final.Payload)
		}
		if err := st.Transition(story.StatusCompleted); err != nil {
			return nil, err
		}
		if err := c.store.Checkpoint(st); err != nil {
			return nil, err
		}
		c.logEvent(st.RunID, "completed", "", 0, fmt.Sprintf("words=%d", st.WordCount))
		c.logger.Info("run completed", "run", st.RunID, "words", st.WordCount)
		return c.outcome(st, executed), nil
	}

	// The graph was validated ahead of execution, so an empty ready set
	// with phases remaining should be unreachable.
	return nil, fmt.Errorf("run %s stalled with %d of %d phases complete",
		st.RunID, len(st.Completed), c.set.Len())
}
