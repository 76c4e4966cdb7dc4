package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/veriflow/veriflowcc/internal/artifact"
	"github.com/veriflow/veriflowcc/internal/model"
	"github.com/veriflow/veriflowcc/internal/prompt"
)

// Developer turns a design artifact into an implementation artifact.
type Developer struct {
	Base
}

// NewDeveloper creates the coding-stage agent.
func NewDeveloper(store *artifact.Store, backend model.Backend, opts model.Options, logger *zap.Logger) *Developer {
	return &Developer{Base: newBase(TypeDeveloper, "", store, backend, opts, logger)}
}

// Process produces an implementation artifact and persists it under
// development/<id>.json.
func (d *Developer) Process(ctx context.Context, input map[string]any) (map[string]any, error) {
	if _, err := requireStory(input); err != nil {
		return nil, err
	}

	p, err := d.RenderPrompt(input)
	if err != nil {
		return nil, err
	}
	resp, err := d.Call(ctx, p)
	if err != nil {
		return nil, err
	}

	art := d.Assemble(input, resp)
	d.Persist(input, art)
	return art, nil
}

// Persist writes the implementation artifact and saves the session state.
func (d *Developer) Persist(input, art map[string]any) {
	id, _ := art["id"].(string)
	d.persistArtifact("development/"+id+".json", art)
	d.persistSession()
}

// RenderPrompt renders the implementation prompt, embedding the upstream
// design artifact when present.
func (d *Developer) RenderPrompt(input map[string]any) (string, error) {
	tmpl, err := prompt.LoadTemplate("implement.md", d.Store().BaseDir())
	if err != nil {
		return "", err
	}
	vars := prompt.Vars{
		"story_id":          storyID(input),
		"story_title":       storyField(input, "title"),
		"story_description": storyField(input, "description"),
		"design":            "",
	}
	if up := designInput(input); up != nil {
		vars["design"] = compactJSON(up)
	}
	return prompt.Render(tmpl, vars)
}

// Assemble builds the implementation artifact with a reference to the design.
func (d *Developer) Assemble(input map[string]any, response string) map[string]any {
	art := artifactBody(response)
	art["id"] = storyID(input)
	art["agent"] = TypeDeveloper
	art["implemented_at"] = timestamp()
	if up := designInput(input); up != nil {
		ref := map[string]any{}
		if id, ok := up["id"].(string); ok {
			ref["id"] = id
		}
		if ag, ok := up["agent"].(string); ok {
			ref["agent"] = ag
		}
		if len(ref) > 0 {
			art["design_reference"] = ref
		}
	}
	return art
}

// designInput accepts the upstream design under either of its accepted keys.
func designInput(input map[string]any) map[string]any {
	if up, ok := input["design"].(map[string]any); ok {
		return up
	}
	if up, ok := input["design_spec"].(map[string]any); ok {
		return up
	}
	return nil
}
