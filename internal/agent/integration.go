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

// IntegrationEngineer performs the GO/NO-GO release validation. Unlike the
// table-driven stages it consumes the union of all artifacts produced so far,
// carried in the input's artifacts list as {id, agent, stage} entries.
type IntegrationEngineer struct {
	Base
}

// NewIntegrationEngineer creates the integration validation agent.
func NewIntegrationEngineer(store *artifact.Store, backend model.Backend, opts model.Options, logger *zap.Logger) *IntegrationEngineer {
	return &IntegrationEngineer{Base: newBase(TypeIntegrationEngineer, "", store, backend, opts, logger)}
}

// Process validates the artifact chain and persists the decision under
// integration/<id>.json.
func (i *IntegrationEngineer) Process(ctx context.Context, input map[string]any) (map[string]any, error) {
	if _, err := requireStory(input); err != nil {
		return nil, err
	}

	p, err := i.RenderPrompt(input)
	if err != nil {
		return nil, err
	}
	resp, err := i.Call(ctx, p)
	if err != nil {
		return nil, err
	}

	art := i.Assemble(input, resp)
	i.Persist(input, art)
	return art, nil
}

// Persist writes the integration artifact and saves the session state.
func (i *IntegrationEngineer) Persist(input, art map[string]any) {
	id, _ := art["id"].(string)
	i.persistArtifact("integration/"+id+".json", art)
	i.persistSession()
}

// RenderPrompt renders the validation prompt, summarizing every artifact
// reference handed to this run.
func (i *IntegrationEngineer) RenderPrompt(input map[string]any) (string, error) {
	tmpl, err := prompt.LoadTemplate("integration.md", i.Store().BaseDir())
	if err != nil {
		return "", err
	}
	vars := prompt.Vars{
		"story_id":          storyID(input),
		"story_title":       storyField(input, "title"),
		"story_description": storyField(input, "description"),
		"artifact_summary":  artifactSummary(artifactRefs(input)),
	}
	return prompt.Render(tmpl, vars)
}

// Assemble builds the integration artifact, embedding the full reference
// chain it was fed.
func (i *IntegrationEngineer) Assemble(input map[string]any, response string) map[string]any {
	art := artifactBody(response)
	art["id"] = storyID(input)
	art["agent"] = TypeIntegrationEngineer
	art["integrated_at"] = timestamp()
	art["artifact_references"] = artifactRefs(input)
	return art
}

// artifactRefs normalizes the input artifacts list.
func artifactRefs(input map[string]any) []map[string]any {
	refs := []map[string]any{}
	list, ok := input["artifacts"].([]map[string]any)
	if ok {
		return append(refs, list...)
	}
	if anyList, ok := input["artifacts"].([]any); ok {
		for _, item := range anyList {
			if m, ok := item.(map[string]any); ok {
				refs = append(refs, m)
			}
		}
	}
	return refs
}

func artifactSummary(refs []map[string]any) string {
	if len(refs) == 0 {
		return "(no stage artifacts recorded)"
	}
	var b strings.Builder
	for _, ref := range refs {
		fmt.Fprintf(&b, "- stage=%v agent=%v id=%v\n", ref["stage"], ref["agent"], ref["id"])
	}
	return b.String()
}
