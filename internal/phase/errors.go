package phase

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCycleDetected marks a dependency graph that is not acyclic.
	ErrCycleDetected = errors.New("cycle detected")

	// ErrUnknownDependency marks a phase depending on an undeclared phase.
	ErrUnknownDependency = errors.New("unknown dependency")
)

// GraphError wraps a graph validation failure with its detail message.
type GraphError struct {
	Kind error
	Msg  string
}

func (e *GraphError) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *GraphError) Unwrap() error { return e.Kind }

func cycleError(path []string) error {
	msg := ""
	if len(path) > 0 {
		msg = strings.Join(path, " -> ")
	}
	return &GraphError{Kind: ErrCycleDetected, Msg: msg}
}

func unknownDependencyError(phaseID, dep string) error {
	return &GraphError{
		Kind: ErrUnknownDependency,
		Msg:  fmt.Sprintf("phase %q depends on undeclared phase %q", phaseID, dep),
	}
}
