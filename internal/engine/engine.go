// Package engine executes a single phase against the model invocation
// port with bounded resource use: one wall-clock budget per phase, a
// bounded retry loop for transient failures, and a shape check on the
// output. It never persists state; that stays with the coordinator so the
// retry loop has no side effects to unwind.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/storyforge/storyforge/internal/llm"
	"github.com/storyforge/storyforge/internal/phase"
	"github.com/storyforge/storyforge/internal/story"
)

// RetryPolicy bounds the engine's retry loop. Budget is the total number
// of invocation attempts, not the number of retries after the first.
type RetryPolicy struct {
	Budget  int
	Backoff time.Duration
}

// DefaultRetryPolicy returns the retry defaults applied when a phase does
// not carry its own budget.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Budget:  3,
		Backoff: 2 * time.Second,
	}
}

// Engine runs one phase at a time. Safe for concurrent use: all per-call
// state lives on the stack.
type Engine struct {
	invoker        llm.Invoker
	policy         RetryPolicy
	defaultTimeout time.Duration
	logger         *slog.Logger
	progress       io.Writer // live progress output; nil = silent

	// sleep is swappable so tests don't wait out real backoffs.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithDefaultTimeout sets the wall-clock budget for phases without one.
func WithDefaultTimeout(d time.Duration) Option {
	return func(e *Engine) { e.defaultTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithProgress sets a writer for live progress output (e.g. os.Stderr).
func WithProgress(w io.Writer) Option {
	return func(e *Engine) { e.progress = w }
}

// New creates an Engine over the given invocation port.
func New(invoker llm.Invoker, opts ...Option) *Engine {
	e := &Engine{
		invoker:        invoker,
		policy:         DefaultRetryPolicy(),
		defaultTimeout: 5 * time.Minute,
		logger:         slog.Default(),
		sleep:          sleepCtx,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// logf prints a progress line if a progress writer is configured.
func (e *Engine) logf(format string, args ...interface{}) {
	if e.progress != nil {
		fmt.Fprintf(e.progress, "  → "+format+"\n", args...)
	}
}

// Execute runs one phase to a single unambiguous Result.
//
// The phase's wall-clock timeout covers the whole attempt loop; when it
// expires the result is Timeout and no further attempts are made.
// Transient invocation errors are retried with a fixed backoff up to the
// budget; a permanent invocation error stops the loop immediately. Output
// that fails the shape check is surfaced as ValidationFailed without
// retry: replaying the same request cannot fix unacceptable content.
func (e *Engine) Execute(ctx context.Context, p phase.Phase, prompt string) Result {
	start := time.Now()

	budget := e.policy.Budget
	if p.Retries > 0 {
		budget = p.Retries
	}
	timeout := e.defaultTimeout
	if p.Timeout > 0 {
		timeout = p.Timeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	e.logf("phase %q: role %s, budget %d attempts, timeout %s", p.ID, p.Role, budget, timeout)

	var lastErr error
	for attempt := 1; attempt <= budget; attempt++ {
		out, err := e.invoker.Invoke(ctx, p.Role, prompt)
		if err == nil {
			if reason, ok := checkShape(out); !ok {
				e.logf("phase %q: output rejected: %s", p.ID, reason)
				return Result{
					Kind:     ValidationFailed,
					Reason:   reason,
					Attempts: attempt,
					Duration: time.Since(start),
				}
			}
			e.logf("phase %q: success on attempt %d (%d bytes)", p.ID, attempt, len(out))
			return Result{
				Kind: Success,
				Artifact: story.Artifact{
					Kind:     p.Output,
					Payload:  out,
					Attempts: attempt,
				},
				Attempts: attempt,
				Duration: time.Since(start),
			}
		}

		if ctx.Err() != nil {
			e.logf("phase %q: timed out after attempt %d", p.ID, attempt)
			return Result{
				Kind:     Timeout,
				Err:      fmt.Errorf("phase %q exceeded %s budget: %w", p.ID, timeout, ctx.Err()),
				Attempts: attempt,
				Duration: time.Since(start),
			}
		}

		lastErr = err
		if !llm.IsTransient(err) {
			// Permanent errors burn no further budget.
			e.logf("phase %q: permanent error on attempt %d: %v", p.ID, attempt, err)
			return Result{
				Kind:     RetriesExhausted,
				Err:      fmt.Errorf("permanent invocation error: %w", err),
				Attempts: attempt,
				Duration: time.Since(start),
			}
		}

		e.logger.Warn("transient invocation failure",
			"phase", p.ID, "attempt", attempt, "budget", budget, "error", err)

		if attempt < budget {
			if serr := e.sleep(ctx, e.policy.Backoff); serr != nil {
				return Result{
					Kind:     Timeout,
					Err:      fmt.Errorf("phase %q exceeded %s budget: %w", p.ID, timeout, serr),
					Attempts: attempt,
					Duration: time.Since(start),
				}
			}
		}
	}

	e.logf("phase %q: retry budget (%d) exhausted", p.ID, budget)
	return Result{
		Kind:     RetriesExhausted,
		Err:      fmt.Errorf("retry budget %d exhausted: %w", budget, lastErr),
		Attempts: budget,
		Duration: time.Since(start),
	}
}

// checkShape is the engine's output validation: logically unacceptable
// content (empty or whitespace-only) is rejected, everything else passes.
// Deeper quality judgment is out of scope here.
func checkShape(out string) (string, bool) {
	if strings.TrimSpace(out) == "" {
		return "empty output", false
	}
	return "", true
}
