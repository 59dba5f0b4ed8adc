// Package prompt assembles the text sent to a role's model endpoint for a
// phase: the role's template plus a labeled block of every dependency
// artifact the phase declared.
package prompt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/storyforge/storyforge/internal/phase"
	"github.com/storyforge/storyforge/internal/story"
)

// labelFor maps an artifact kind to its context heading. Unlisted kinds
// use the phase id.
var labelFor = map[string]string{
	"research_brief":     "Research",
	"world_description":  "World",
	"character_profiles": "Characters",
	"plot_outline":       "Plot",
	"chapter_text":       "Draft",
	"edited_chapter":     "Previous Chapter",
}

// Build renders the prompt for a phase from the story state and the
// latest artifact of each declared dependency.
func Build(p phase.Phase, st *story.State) (string, error) {
	tmpl, ok := roleTemplates[p.Role]
	if !ok {
		tmpl = genericTemplate
	}

	vars := Vars{
		"genre":         st.Genre,
		"title":         st.Title,
		"chapter":       strconv.Itoa(st.Chapter),
		"custom_inputs": formatCustomInputs(st.CustomInputs),
		"context":       formatContext(p, st),
	}
	return Render(tmpl, vars)
}

// formatContext joins dependency artifacts into labeled sections, in the
// phase's declared dependency order.
func formatContext(p phase.Phase, st *story.State) string {
	var sections []string
	if a, ok := st.Latest(story.SeedPhaseID); ok {
		label := labelFor[a.Kind]
		if label == "" {
			label = a.PhaseID
		}
		sections = append(sections, fmt.Sprintf("%s: %s", label, a.Payload))
	}
	for _, dep := range p.DependsOn {
		a, ok := st.Latest(dep)
		if !ok {
			continue
		}
		label := labelFor[a.Kind]
		if label == "" {
			label = dep
		}
		sections = append(sections, fmt.Sprintf("%s: %s", label, a.Payload))
	}
	return strings.Join(sections, "\n\n")
}

// formatCustomInputs renders user-supplied story elements as key: value
// lines in a stable order.
func formatCustomInputs(inputs map[string]string) string {
	if len(inputs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, inputs[k])
	}
	return strings.TrimRight(b.String(), "\n")
}
