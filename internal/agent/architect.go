package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/veriflow/veriflowcc/internal/artifact"
	"github.com/veriflow/veriflowcc/internal/model"
	"github.com/veriflow/veriflowcc/internal/prompt"
)

// Architect turns a requirements artifact into a design artifact, maintains
// the architecture ledger, and writes PlantUML diagrams when the design
// carries one.
type Architect struct {
	Base
}

// NewArchitect creates the design-stage agent.
func NewArchitect(store *artifact.Store, backend model.Backend, opts model.Options, logger *zap.Logger) *Architect {
	return &Architect{Base: newBase(TypeArchitect, "", store, backend, opts, logger)}
}

// Process produces a design artifact for the requirements in input and
// persists it under design/<id>.json.
func (a *Architect) Process(ctx context.Context, input map[string]any) (map[string]any, error) {
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

// Persist writes the design artifact, its PlantUML diagram when present,
// updates the architecture ledger, and saves the session state.
func (a *Architect) Persist(input, art map[string]any) {
	id, _ := art["id"].(string)
	a.persistArtifact("design/"+id+".json", art)

	if diagram, ok := art["diagram"].(string); ok && diagram != "" {
		a.persistArtifact("design/diagrams/"+id+".puml", diagram)
	}

	if overview, ok := art["architecture_overview"].(string); ok && overview != "" {
		if err := a.Store().AppendArchitecture(id, storyField(input, "title"), overview); err != nil {
			a.logger.Warn("failed to update architecture ledger", zap.Error(err))
		}
	}
	a.persistSession()
}

// RenderPrompt renders the design prompt, embedding the upstream requirements
// artifact when present.
func (a *Architect) RenderPrompt(input map[string]any) (string, error) {
	tmpl, err := prompt.LoadTemplate("design.md", a.Store().BaseDir())
	if err != nil {
		return "", err
	}
	vars := prompt.Vars{
		"story_id":          storyID(input),
		"story_title":       storyField(input, "title"),
		"story_description": storyField(input, "description"),
		"requirements":      "",
	}
	if up, ok := input["requirements"].(map[string]any); ok {
		vars["requirements"] = compactJSON(up)
	}
	return prompt.Render(tmpl, vars)
}

// Assemble builds the design artifact, carrying a reference to the upstream
// requirements artifact for traceability.
func (a *Architect) Assemble(input map[string]any, response string) map[string]any {
	art := artifactBody(response)
	art["id"] = storyID(input)
	art["agent"] = TypeArchitect
	art["designed_at"] = timestamp()
	if ref := upstreamRef(input, "requirements"); ref != nil {
		art["requirements_reference"] = ref
	}
	return art
}
