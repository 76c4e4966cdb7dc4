package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/veriflow/veriflowcc/internal/artifact"
	"github.com/veriflow/veriflowcc/internal/model"
	"github.com/veriflow/veriflowcc/internal/prompt"
)

// Agent type identifiers, also used as config override keys and stage-table
// values.
const (
	TypeRequirementsAnalyst = "requirements_analyst"
	TypeArchitect           = "architect"
	TypeDeveloper           = "developer"
	TypeQATester            = "qa_tester"
	TypeIntegrationEngineer = "integration_engineer"
)

// DefaultOptions returns the baseline model call options for an agent type.
// Project config overrides are merged on top by the caller.
func DefaultOptions(agentType string) model.Options {
	opts := model.Options{
		Model:      "claude-sonnet-4-5",
		MaxTokens:  4096,
		MaxRetries: 2,
	}
	if agentType == TypeDeveloper {
		opts.MaxTokens = 8192
	}
	return opts
}

// RequirementsAnalyst elaborates user stories into structured requirements
// artifacts and maintains the backlog ledger.
type RequirementsAnalyst struct {
	Base
}

// NewRequirementsAnalyst creates the requirements-stage agent.
func NewRequirementsAnalyst(store *artifact.Store, backend model.Backend, opts model.Options, logger *zap.Logger) *RequirementsAnalyst {
	return &RequirementsAnalyst{Base: newBase(TypeRequirementsAnalyst, "", store, backend, opts, logger)}
}

// Process elaborates the story in input into a requirements artifact, persists
// it under requirements/<id>.json, and updates the backlog.
func (a *RequirementsAnalyst) Process(ctx context.Context, input map[string]any) (map[string]any, error) {
	if _, err := requireStory(input); err != nil {
		return nil, err
	}

	p, err := a.RenderPrompt(input)
	if err != nil {
		return nil, err
	}
	resp, err := a.Call(ctx, p)
	if err != nil {
		return nil, err
	}

	art := a.Assemble(input, resp)
	a.Persist(input, art)
	return art, nil
}

// Persist writes the requirements artifact, updates the backlog ledger, and
// saves the session state.
func (a *RequirementsAnalyst) Persist(input, art map[string]any) {
	id, _ := art["id"].(string)
	a.persistArtifact("requirements/"+id+".json", art)

	title, _ := art["title"].(string)
	if title == "" {
		title = storyField(input, "title")
	}
	if err := a.Store().AppendBacklog(id, title, backlogBody(art)); err != nil {
		a.logger.Warn("failed to update backlog", zap.Error(err))
	}
	a.persistSession()
}

// RenderPrompt renders the requirements elaboration prompt for input.
func (a *RequirementsAnalyst) RenderPrompt(input map[string]any) (string, error) {
	tmpl, err := prompt.LoadTemplate("requirements.md", a.Store().BaseDir())
	if err != nil {
		return "", err
	}
	vars := prompt.Vars{
		"story_id":          storyID(input),
		"story_title":       storyField(input, "title"),
		"story_description": storyField(input, "description"),
	}
	if len(a.Session().Context) > 0 {
		vars["context"] = compactJSON(a.Session().Context)
	} else {
		vars["context"] = ""
	}
	return prompt.Render(tmpl, vars)
}

// Assemble turns a raw model response into the requirements artifact,
// attaching identity, provenance, and the elaboration timestamp.
func (a *RequirementsAnalyst) Assemble(input map[string]any, response string) map[string]any {
	art := artifactBody(response)
	art["id"] = storyID(input)
	art["agent"] = TypeRequirementsAnalyst
	art["elaborated_at"] = timestamp()
	return art
}

// backlogBody renders the human-readable backlog section for an artifact.
func backlogBody(art map[string]any) string {
	var b strings.Builder
	if desc, ok := art["description"].(string); ok && desc != "" {
		b.WriteString(desc)
		b.WriteString("\n")
	}
	if frs := stringList(art["functional_requirements"]); len(frs) > 0 {
		b.WriteString("\n### Functional Requirements\n")
		for _, fr := range frs {
			fmt.Fprintf(&b, "- %s\n", fr)
		}
	}
	if acs := stringList(art["acceptance_criteria"]); len(acs) > 0 {
		b.WriteString("\n### Acceptance Criteria\n")
		for _, ac := range acs {
			fmt.Fprintf(&b, "- %s\n", ac)
		}
	}
	return b.String()
}

// stringList coerces a decoded JSON list into strings, tolerating []any.
func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprintf("%v", item))
			}
		}
		return out
	default:
		return nil
	}
}
