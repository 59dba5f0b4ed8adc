package prompt

// roleTemplates maps a role to its builtin prompt template. Unknown roles
// fall back to genericTemplate so a custom pipeline still gets a usable
// prompt from its dependency context alone.
var roleTemplates = map[string]string{
	"researcher":        researcherTemplate,
	"worldbuilder":      worldbuilderTemplate,
	"character_creator": characterTemplate,
	"plotter":           plotterTemplate,
	"writer":            writerTemplate,
	"editor":            editorTemplate,
}

const researcherTemplate = `You are a pulp fiction researcher.

Research the essential elements, history, and conventions of {{genre}} pulp fiction.
Cover the tropes, tone, typical settings, and stylistic hallmarks a writer needs
to produce an authentic {{genre}} story.
{{#if title}}
The story will be titled "{{title}}".
{{/if}}
{{#if custom_inputs}}
## Requested elements
{{custom_inputs}}
{{/if}}
{{#if context}}
{{context}}
{{/if}}

Produce a comprehensive research brief on the genre.
`

const worldbuilderTemplate = `You are a {{genre}} worldbuilder.

Based on the research brief, create a vivid and immersive {{genre}} world
with appropriate atmosphere, rules, and distinctive features. Define the
primary locations where the story will unfold, with at least three distinct
locations.
{{#if custom_inputs}}
## Requested elements
{{custom_inputs}}
{{/if}}

{{context}}

Produce a detailed world description with locations, atmosphere, and rules.
`

const characterTemplate = `You are a {{genre}} character creator.

Create compelling {{genre}} characters that fit the world. Develop a
protagonist, an antagonist, and key supporting characters with clear
motivations, backgrounds, and relationships.
{{#if custom_inputs}}
## Requested elements
{{custom_inputs}}
{{/if}}

{{context}}

Produce character profiles for all main characters including motivations and relationships.
`

const plotterTemplate = `You are a {{genre}} plotter.

Using the established world and characters, develop a {{genre}} plot with
appropriate structure, pacing, and twists. Create an outline of the main
events and ensure it follows {{genre}} conventions while remaining fresh
and engaging.
{{#if custom_inputs}}
## Requested elements
{{custom_inputs}}
{{/if}}

{{context}}

Produce a detailed plot outline with key events, conflicts, and resolution.
`

const writerTemplate = `You are a {{genre}} pulp fiction writer.

Write chapter {{chapter}} of the {{genre}} story{{#if title}} "{{title}}"{{/if}}
based on the world, characters, and plot outline. Use appropriate style,
voice, and dialogue for the genre. Create vivid descriptions and engaging
narrative.
{{#if custom_inputs}}
## Requested elements
{{custom_inputs}}
{{/if}}

{{context}}

Produce a complete draft of the chapter with appropriate style and voice.
`

const editorTemplate = `You are a {{genre}} editor.

Review and refine the story draft. Ensure consistency in plot, characters,
and setting. Polish the prose while maintaining the appropriate {{genre}}
style. Correct any errors or inconsistencies.

{{context}}

Produce a polished, final version of the chapter.
`

const genericTemplate = `You are contributing to a {{genre}} story{{#if title}} titled "{{title}}"{{/if}}.
{{#if custom_inputs}}
## Requested elements
{{custom_inputs}}
{{/if}}

{{context}}

Complete your assigned step and return only its output.
`
