package prompt

import (
	"strings"
	"testing"

	"github.com/storyforge/storyforge/internal/phase"
	"github.com/storyforge/storyforge/internal/story"
)

func seededState(t *testing.T) *story.State {
	t.Helper()
	st := story.NewState("run-1", "noir", "Dead Letter", "fp", map[string]string{
		"protagonist": "Mara Voss",
		"setting":     "fogbound docks",
	})
	if err := st.Apply("research", story.Artifact{Kind: "research_brief", Payload: "hardboiled conventions"}, nil); err != nil {
		t.Fatal(err)
	}
	if err := st.Apply("worldbuilding", story.Artifact{Kind: "world_description", Payload: "a rotting port city"}, nil); err != nil {
		t.Fatal(err)
	}
	return st
}

func TestBuildIncludesDependencyContextInOrder(t *testing.T) {
	st := seededState(t)
	p := phase.Phase{
		ID:        "characters",
		Role:      "character_creator",
		Output:    "character_profiles",
		DependsOn: []string{"research", "worldbuilding"},
	}

	out, err := Build(p, st)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	ri := strings.Index(out, "Research: hardboiled conventions")
	wi := strings.Index(out, "World: a rotting port city")
	if ri == -1 || wi == -1 {
		t.Fatalf("missing labeled dependency context:\n%s", out)
	}
	if ri > wi {
		t.Error("dependency context should follow declared order")
	}
}

func TestBuildIncludesGenreAndCustomInputs(t *testing.T) {
	st := seededState(t)
	p := phase.Phase{ID: "research", Role: "researcher", Output: "research_brief"}

	out, err := Build(p, st)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(out, "noir") {
		t.Error("prompt should mention the genre")
	}
	if !strings.Contains(out, "protagonist: Mara Voss") {
		t.Errorf("prompt should carry custom inputs:\n%s", out)
	}
	if !strings.Contains(out, `"Dead Letter"`) {
		t.Error("prompt should mention the title")
	}
}

func TestBuildUsesLatestRevision(t *testing.T) {
	st := seededState(t)
	if err := st.Apply("research", story.Artifact{Kind: "research_brief", Payload: "revised brief"}, nil); err != nil {
		t.Fatal(err)
	}
	p := phase.Phase{ID: "worldbuilding", Role: "worldbuilder", Output: "world_description", DependsOn: []string{"research"}}

	out, err := Build(p, st)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(out, "revised brief") {
		t.Error("prompt should use the latest artifact revision")
	}
	if strings.Contains(out, "hardboiled conventions") {
		t.Error("prompt should not include superseded revisions")
	}
}

func TestBuildUnknownRoleFallsBack(t *testing.T) {
	st := seededState(t)
	p := phase.Phase{ID: "custom", Role: "stylist", Output: "styled_text", DependsOn: []string{"research"}}

	out, err := Build(p, st)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(out, "Research: hardboiled conventions") {
		t.Error("generic template should still carry dependency context")
	}
}

func TestBuildWriterIncludesChapter(t *testing.T) {
	st := seededState(t)
	st.Chapter = 3
	p := phase.Phase{ID: "draft", Role: "writer", Output: "chapter_text", DependsOn: []string{"worldbuilding"}}

	out, err := Build(p, st)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(out, "chapter 3") {
		t.Errorf("writer prompt should mention the chapter number:\n%s", out)
	}
}

func TestBuildIncludesCarriedChapter(t *testing.T) {
	st := seededState(t)
	st.Chapter = 2
	st.Seed(story.Artifact{
		PhaseID: story.SeedPhaseID,
		Kind:    "edited_chapter",
		Payload: "chapter one ended in smoke",
	})
	p := phase.Phase{ID: "research", Role: "researcher", Output: "research_brief"}

	out, err := Build(p, st)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(out, "Previous Chapter: chapter one ended in smoke") {
		t.Errorf("prompt should carry the previous chapter:\n%s", out)
	}
}
