package prompt

// builtinTemplates maps template filename to content, one per V-Model stage.
var builtinTemplates = map[string]string{
	"requirements.md": requirementsTemplate,
	"design.md":       designTemplate,
	"implement.md":    implementTemplate,
	"testing.md":      testingTemplate,
	"integration.md":  integrationTemplate,
}

const requirementsTemplate = `# Elaborate Requirements: {{story_title}}

## Story {{story_id}}
{{story_description}}

{{#if context}}
## Accumulated Context
{{context}}
{{/if}}

## Instructions
Elaborate this user story into structured requirements. Respond with a single
JSON object containing: title, description, functional_requirements (list),
non_functional_requirements (list), acceptance_criteria (list), dependencies
(list), business_value.
`

const designTemplate = `# Design: {{story_title}}

## Story {{story_id}}
{{story_description}}

{{#if requirements}}
## Requirements Artifact
{{requirements}}
{{/if}}

## Instructions
Produce an architecture for the requirements above. Respond with a single JSON
object containing: architecture_overview, components (list of {name,
responsibility}), interfaces (list), diagram (PlantUML source, optional).
`

const implementTemplate = `# Implement: {{story_title}}

## Story {{story_id}}
{{story_description}}

{{#if design}}
## Design Artifact
{{design}}
{{/if}}

## Instructions
Plan the implementation of the design above. Respond with a single JSON object
containing: implementation_plan, files (list of {path, purpose}), notes.
`

const testingTemplate = `# Test Plan ({{test_scope}}): {{story_title}}

## Story {{story_id}}
{{story_description}}

{{#if implementation}}
## Implementation Artifact
{{implementation}}
{{/if}}

## Instructions
Produce a {{test_scope}} test plan for the implementation above. Respond with
a single JSON object containing: test_plan, test_cases (list of {name,
expected}), coverage_targets (list).
`

const integrationTemplate = `# Integration Validation: {{story_title}}

## Story {{story_id}}
{{story_description}}

## Stage Artifacts
{{artifact_summary}}

## Instructions
Validate the full artifact chain for release readiness. Respond with a single
JSON object containing: decision ("GO" or "NO-GO"), summary, risks (list),
release_checks (list).
`
