package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/veriflow/veriflowcc/internal/artifact"
	"github.com/veriflow/veriflowcc/internal/model"
	"github.com/veriflow/veriflowcc/internal/prompt"
)

// QATester produces test plans for the unit, integration, and system testing
// stages. The same agent type serves all three; the stage passes the scope in
// the input's test_scope field.
type QATester struct {
	Base
}

// NewQATester creates the testing-stage agent.
func NewQATester(store *artifact.Store, backend model.Backend, opts model.Options, logger *zap.Logger) *QATester {
	return &QATester{Base: newBase(TypeQATester, "", store, backend, opts, logger)}
}

// Process produces a test artifact for the given scope and persists it under
// testing/<id>.json. Successive testing stages for the same story overwrite
// the file; the shared-resource policy is last-write-wins.
func (q *QATester) Process(ctx context.Context, input map[string]any) (map[string]any, error) {
	if _, err := requireStory(input); err != nil {
		return nil, err
	}

	p, err := q.RenderPrompt(input)
	if err != nil {
		return nil, err
	}
	resp, err := q.Call(ctx, p)
	if err != nil {
		return nil, err
	}

	art := q.Assemble(input, resp)
	q.Persist(input, art)
	return art, nil
}

// Persist writes the test artifact and saves the session state.
func (q *QATester) Persist(input, art map[string]any) {
	id, _ := art["id"].(string)
	q.persistArtifact("testing/"+id+".json", art)
	q.persistSession()
}

// RenderPrompt renders the test-plan prompt for the input's scope.
func (q *QATester) RenderPrompt(input map[string]any) (string, error) {
	tmpl, err := prompt.LoadTemplate("testing.md", q.Store().BaseDir())
	if err != nil {
		return "", err
	}
	vars := prompt.Vars{
		"story_id":          storyID(input),
		"story_title":       storyField(input, "title"),
		"story_description": storyField(input, "description"),
		"test_scope":        testScope(input),
		"implementation":    "",
	}
	if up, ok := input["implementation"].(map[string]any); ok {
		vars["implementation"] = compactJSON(up)
	}
	return prompt.Render(tmpl, vars)
}

// Assemble builds the test artifact with a reference to the implementation.
func (q *QATester) Assemble(input map[string]any, response string) map[string]any {
	art := artifactBody(response)
	art["id"] = storyID(input)
	art["agent"] = TypeQATester
	art["test_scope"] = testScope(input)
	art["tested_at"] = timestamp()
	if ref := upstreamRef(input, "implementation"); ref != nil {
		art["implementation_reference"] = ref
	}
	return art
}

func testScope(input map[string]any) string {
	if scope, ok := input["test_scope"].(string); ok && scope != "" {
		return scope
	}
	return "unit"
}
