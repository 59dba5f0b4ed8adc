package engine

import (
	"time"

	"github.com/storyforge/storyforge/internal/story"
)

// Kind classifies the outcome of executing one phase. A Result is exactly
// one of these; there is no partial state.
type Kind string

const (
	Success          Kind = "success"
	Timeout          Kind = "timeout"
	ValidationFailed Kind = "validation_failed"
	RetriesExhausted Kind = "retries_exhausted"
)

// Result captures the outcome of one phase execution.
type Result struct {
	Kind     Kind
	Artifact story.Artifact // populated on Success
	Reason   string         // populated on ValidationFailed
	Err      error          // last underlying error on Timeout / RetriesExhausted
	Attempts int            // invocation attempts consumed
	Duration time.Duration
}

// Failed reports whether the result is any failure kind.
func (r Result) Failed() bool {
	return r.Kind != Success
}
