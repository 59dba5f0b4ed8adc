package phase

import (
	"errors"
	"testing"
)

func chain(ids ...string) []Phase {
	var phases []Phase
	for i, id := range ids {
		p := Phase{ID: id, Role: "writer", Output: "text"}
		if i > 0 {
			p.DependsOn = []string{ids[i-1]}
		}
		phases = append(phases, p)
	}
	return phases
}

func TestNewSetDuplicateID(t *testing.T) {
	_, err := NewSet([]Phase{{ID: "a"}, {ID: "a"}})
	if err == nil {
		t.Fatal("expected error for duplicate phase id")
	}
}

func TestValidateOK(t *testing.T) {
	s, err := NewSet(chain("research", "plot", "write"))
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateUnknownDependency(t *testing.T) {
	s, err := NewSet([]Phase{
		{ID: "plot", DependsOn: []string{"research"}},
	})
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	err = s.Validate()
	if !errors.Is(err, ErrUnknownDependency) {
		t.Fatalf("Validate = %v, want ErrUnknownDependency", err)
	}
}

func TestValidateCycles(t *testing.T) {
	cases := []struct {
		name   string
		phases []Phase
	}{
		{
			name: "self loop",
			phases: []Phase{
				{ID: "a", DependsOn: []string{"a"}},
			},
		},
		{
			name: "two cycle",
			phases: []Phase{
				{ID: "a", DependsOn: []string{"b"}},
				{ID: "b", DependsOn: []string{"a"}},
			},
		},
		{
			name: "three cycle",
			phases: []Phase{
				{ID: "a", DependsOn: []string{"c"}},
				{ID: "b", DependsOn: []string{"a"}},
				{ID: "c", DependsOn: []string{"b"}},
			},
		},
		{
			name: "cycle behind valid prefix",
			phases: []Phase{
				{ID: "research"},
				{ID: "plot", DependsOn: []string{"research", "edit"}},
				{ID: "write", DependsOn: []string{"plot"}},
				{ID: "edit", DependsOn: []string{"write"}},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := NewSet(tc.phases)
			if err != nil {
				t.Fatalf("NewSet: %v", err)
			}
			err = s.Validate()
			if !errors.Is(err, ErrCycleDetected) {
				t.Fatalf("Validate = %v, want ErrCycleDetected", err)
			}
		})
	}
}

func TestReadyRespectsDependencies(t *testing.T) {
	s, err := NewSet([]Phase{
		{ID: "research"},
		{ID: "worldbuilding", DependsOn: []string{"research"}},
		{ID: "characters", DependsOn: []string{"research", "worldbuilding"}},
		{ID: "plot", DependsOn: []string{"characters"}},
	})
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}

	ready := s.Ready(nil)
	if len(ready) != 1 || ready[0].ID != "research" {
		t.Fatalf("Ready(nil) = %v, want [research]", ids(ready))
	}

	ready = s.Ready(map[string]bool{"research": true})
	if len(ready) != 1 || ready[0].ID != "worldbuilding" {
		t.Fatalf("Ready = %v, want [worldbuilding]", ids(ready))
	}

	// A ready phase never has an unsatisfied dependency.
	completedSets := []map[string]bool{
		nil,
		{"research": true},
		{"research": true, "worldbuilding": true},
		{"research": true, "worldbuilding": true, "characters": true},
	}
	for _, completed := range completedSets {
		for _, p := range s.Ready(completed) {
			for _, dep := range p.DependsOn {
				if !completed[dep] {
					t.Errorf("Ready returned %q with unsatisfied dep %q", p.ID, dep)
				}
			}
			if completed[p.ID] {
				t.Errorf("Ready returned already-completed phase %q", p.ID)
			}
		}
	}
}

func TestReadyDeclarationOrder(t *testing.T) {
	// Two independent roots must come back in declaration order.
	s, err := NewSet([]Phase{
		{ID: "zeta"},
		{ID: "alpha"},
		{ID: "merge", DependsOn: []string{"zeta", "alpha"}},
	})
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	ready := s.Ready(nil)
	if len(ready) != 2 || ready[0].ID != "zeta" || ready[1].ID != "alpha" {
		t.Fatalf("Ready = %v, want [zeta alpha]", ids(ready))
	}
}

func TestFingerprintStableAndSensitive(t *testing.T) {
	a, _ := NewSet(chain("research", "plot", "write"))
	b, _ := NewSet(chain("research", "plot", "write"))
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical sets should share a fingerprint")
	}

	c, _ := NewSet(chain("research", "plot", "write", "edit"))
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different sets should not share a fingerprint")
	}
}

func ids(phases []Phase) []string {
	var out []string
	for _, p := range phases {
		out = append(out, p.ID)
	}
	return out
}
