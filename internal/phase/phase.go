// Package phase defines the generation pipeline's task descriptors: the
// set of phases, their role assignments, and the dependency graph that
// determines execution order.
package phase

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Phase is one declared unit of work in the pipeline. Immutable once a
// run starts.
type Phase struct {
	ID        string
	Role      string
	Output    string   // artifact kind produced, e.g. "research_brief", "chapter_text"
	DependsOn []string // phase IDs whose artifacts this phase reads
	Timeout   time.Duration // 0 means use the run default
	Retries   int           // 0 means use the run default
}

// Set is a validated, declaration-ordered collection of phases.
type Set struct {
	phases []Phase
	byID   map[string]int
}

// NewSet builds a Set from declarations, rejecting duplicate IDs.
// Call Validate before executing against the set.
func NewSet(phases []Phase) (*Set, error) {
	byID := make(map[string]int, len(phases))
	for i, p := range phases {
		if p.ID == "" {
			return nil, fmt.Errorf("phase at index %d has empty id", i)
		}
		if _, ok := byID[p.ID]; ok {
			return nil, fmt.Errorf("duplicate phase id %q", p.ID)
		}
		byID[p.ID] = i
	}
	return &Set{phases: phases, byID: byID}, nil
}

// Len returns the number of phases in the set.
func (s *Set) Len() int {
	return len(s.phases)
}

// Phases returns the phases in declaration order.
func (s *Set) Phases() []Phase {
	out := make([]Phase, len(s.phases))
	copy(out, s.phases)
	return out
}

// Get returns the phase with the given ID.
func (s *Set) Get(id string) (Phase, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Phase{}, false
	}
	return s.phases[i], true
}

// Validate checks that every dependency references a declared phase and
// that the dependency graph is acyclic.
func (s *Set) Validate() error {
	for _, p := range s.phases {
		for _, dep := range p.DependsOn {
			if _, ok := s.byID[dep]; !ok {
				return unknownDependencyError(p.ID, dep)
			}
			if dep == p.ID {
				return cycleError([]string{p.ID, p.ID})
			}
		}
	}
	return s.validateAcyclic()
}

// Ready returns the phases whose dependencies are all in completed and
// which are not themselves completed, in declaration order. Declaration
// order keeps runs reproducible.
func (s *Set) Ready(completed map[string]bool) []Phase {
	var ready []Phase
	for _, p := range s.phases {
		if completed[p.ID] {
			continue
		}
		ok := true
		for _, dep := range p.DependsOn {
			if !completed[dep] {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, p)
		}
	}
	return ready
}

// Fingerprint returns a stable hash of the set's structure (IDs and
// dependencies). Snapshots record it so that a resume against a changed
// pipeline is reported instead of silently mis-applied.
func (s *Set) Fingerprint() string {
	var b strings.Builder
	for _, p := range s.phases {
		deps := make([]string, len(p.DependsOn))
		copy(deps, p.DependsOn)
		sort.Strings(deps)
		fmt.Fprintf(&b, "%s:%s<-%s;", p.ID, p.Output, strings.Join(deps, ","))
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}
