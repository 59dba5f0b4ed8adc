package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/storyforge/storyforge/internal/llm"
	"github.com/storyforge/storyforge/internal/phase"
)

func noSleep(e *Engine) {
	e.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
}

func testPhase() phase.Phase {
	return phase.Phase{ID: "draft", Role: "writer", Output: "chapter_text"}
}

func TestExecuteSuccessFirstAttempt(t *testing.T) {
	mock := llm.NewMockInvoker()
	mock.Script("writer", llm.MockResult{Output: "a gripping chapter"})
	e := New(mock, noSleep)

	res := e.Execute(context.Background(), testPhase(), "write it")
	if res.Kind != Success {
		t.Fatalf("Kind = %s, want success (err: %v)", res.Kind, res.Err)
	}
	if res.Artifact.Payload != "a gripping chapter" {
		t.Errorf("Payload = %q", res.Artifact.Payload)
	}
	if res.Artifact.Kind != "chapter_text" {
		t.Errorf("Artifact.Kind = %q, want chapter_text", res.Artifact.Kind)
	}
	if res.Attempts != 1 || res.Artifact.Attempts != 1 {
		t.Errorf("Attempts = %d/%d, want 1/1", res.Attempts, res.Artifact.Attempts)
	}
}

func TestExecuteRetriesTransientThenSucceeds(t *testing.T) {
	// Budget 3, port fails twice then succeeds: Success after exactly 3 attempts.
	mock := llm.NewMockInvoker()
	mock.Script("writer",
		llm.MockResult{Err: llm.ErrScripted("connection reset")},
		llm.MockResult{Err: llm.ErrScripted("connection reset")},
		llm.MockResult{Output: "third time lucky"},
	)
	e := New(mock, noSleep, WithRetryPolicy(RetryPolicy{Budget: 3, Backoff: time.Millisecond}))

	res := e.Execute(context.Background(), testPhase(), "write it")
	if res.Kind != Success {
		t.Fatalf("Kind = %s, want success (err: %v)", res.Kind, res.Err)
	}
	if res.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", res.Attempts)
	}
	if res.Artifact.Attempts != 3 {
		t.Errorf("Artifact.Attempts = %d, want 3", res.Artifact.Attempts)
	}
	if mock.CallCount("writer") != 3 {
		t.Errorf("port called %d times, want 3", mock.CallCount("writer"))
	}
}

func TestExecuteRetriesExhausted(t *testing.T) {
	// Budget 2, always transient: RetriesExhausted after exactly 2 attempts.
	mock := llm.NewMockInvoker()
	mock.Script("writer",
		llm.MockResult{Err: llm.ErrScripted("timeout dialing")},
		llm.MockResult{Err: llm.ErrScripted("timeout dialing")},
		llm.MockResult{Err: llm.ErrScripted("timeout dialing")},
	)
	e := New(mock, noSleep, WithRetryPolicy(RetryPolicy{Budget: 2, Backoff: time.Millisecond}))

	res := e.Execute(context.Background(), testPhase(), "write it")
	if res.Kind != RetriesExhausted {
		t.Fatalf("Kind = %s, want retries_exhausted", res.Kind)
	}
	if res.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", res.Attempts)
	}
	if mock.CallCount("writer") != 2 {
		t.Errorf("port called %d times, want exactly 2", mock.CallCount("writer"))
	}
	if res.Err == nil || !strings.Contains(res.Err.Error(), "timeout dialing") {
		t.Errorf("Err = %v, want last underlying error preserved", res.Err)
	}
}

func TestExecuteEmptyOutputIsValidationFailedNoRetry(t *testing.T) {
	mock := llm.NewMockInvoker()
	mock.Script("writer", llm.MockResult{Output: "   \n\t "})
	e := New(mock, noSleep)

	res := e.Execute(context.Background(), testPhase(), "write it")
	if res.Kind != ValidationFailed {
		t.Fatalf("Kind = %s, want validation_failed", res.Kind)
	}
	if res.Reason != "empty output" {
		t.Errorf("Reason = %q", res.Reason)
	}
	if mock.CallCount("writer") != 1 {
		t.Errorf("port called %d times, want 1 (no retry on validation failure)", mock.CallCount("writer"))
	}
}

func TestExecutePermanentErrorStopsEarly(t *testing.T) {
	mock := llm.NewMockInvoker()
	mock.Script("writer", llm.MockResult{Err: llm.NewFatalError(errors.New("401 unauthorized"))})
	e := New(mock, noSleep, WithRetryPolicy(RetryPolicy{Budget: 5, Backoff: time.Millisecond}))

	res := e.Execute(context.Background(), testPhase(), "write it")
	if res.Kind != RetriesExhausted {
		t.Fatalf("Kind = %s, want retries_exhausted", res.Kind)
	}
	if mock.CallCount("writer") != 1 {
		t.Errorf("port called %d times, want 1 (no retry of permanent errors)", mock.CallCount("writer"))
	}
}

func TestExecuteTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	mock := llm.NewMockInvoker()
	mock.Script("writer", llm.MockResult{Output: "too late", Block: block})

	p := testPhase()
	p.Timeout = 20 * time.Millisecond
	e := New(mock, noSleep)

	res := e.Execute(context.Background(), p, "write it")
	if res.Kind != Timeout {
		t.Fatalf("Kind = %s, want timeout", res.Kind)
	}
	if res.Err == nil {
		t.Error("Timeout result should carry the deadline error")
	}
	if res.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", res.Attempts)
	}
}

func TestExecutePhaseOverridesBudget(t *testing.T) {
	mock := llm.NewMockInvoker()
	for i := 0; i < 4; i++ {
		mock.Script("writer", llm.MockResult{Err: llm.ErrScripted("flaky")})
	}
	p := testPhase()
	p.Retries = 4

	e := New(mock, noSleep, WithRetryPolicy(RetryPolicy{Budget: 2, Backoff: time.Millisecond}))
	res := e.Execute(context.Background(), p, "write it")
	if res.Kind != RetriesExhausted {
		t.Fatalf("Kind = %s, want retries_exhausted", res.Kind)
	}
	if mock.CallCount("writer") != 4 {
		t.Errorf("port called %d times, want 4 (per-phase budget)", mock.CallCount("writer"))
	}
}
