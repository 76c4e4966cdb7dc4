package agent

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriflow/veriflowcc/internal/artifact"
	"github.com/veriflow/veriflowcc/internal/model"
)

func storyInput(id string) map[string]any {
	return map[string]any{
		"story": map[string]any{
			"id":          id,
			"title":       "User login",
			"description": "As a user I want to log in with email and password.",
		},
	}
}

func TestRequirementsAnalystProcess(t *testing.T) {
	store := artifact.NewStore(t.TempDir(), nil)
	a := NewRequirementsAnalyst(store, model.NewFixtureBackend(), DefaultOptions(TypeRequirementsAnalyst), nil)

	art, err := a.Process(context.Background(), storyInput("US-001"))
	require.NoError(t, err)

	assert.Equal(t, "US-001", art["id"])
	assert.Equal(t, TypeRequirementsAnalyst, art["agent"])
	assert.NotEmpty(t, art["elaborated_at"])
	assert.NotEmpty(t, art["functional_requirements"])

	// Artifact persisted and loadable through the store.
	loaded, err := store.LoadArtifact("requirements/US-001.json")
	require.NoError(t, err)
	require.IsType(t, map[string]any{}, loaded)
	assert.Equal(t, "US-001", loaded.(map[string]any)["id"])

	// Backlog ledger updated.
	data, err := os.ReadFile(store.Path("backlog.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "## US-001:")

	// Both sides of the exchange are in the session history.
	require.Len(t, a.Session().History, 2)
	assert.Equal(t, "user", a.Session().History[0].Role)
	assert.Equal(t, "assistant", a.Session().History[1].Role)
}

func TestRequirementsAnalystMissingStory(t *testing.T) {
	store := artifact.NewStore(t.TempDir(), nil)
	a := NewRequirementsAnalyst(store, model.NewFixtureBackend(), DefaultOptions(TypeRequirementsAnalyst), nil)

	_, err := a.Process(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.Equal(t, "validation", model.Kind(err))
}

func TestRequirementsAnalystParseFallback(t *testing.T) {
	store := artifact.NewStore(t.TempDir(), nil)
	backend := &model.FixtureBackend{Responses: map[string]string{
		TypeRequirementsAnalyst: "The story looks reasonable but I have no structured output.",
	}}
	a := NewRequirementsAnalyst(store, backend, DefaultOptions(TypeRequirementsAnalyst), nil)

	art, err := a.Process(context.Background(), storyInput("US-002"))
	require.NoError(t, err)

	// The raw response is never lost.
	assert.Equal(t, "US-002", art["id"])
	assert.Contains(t, art["response_text"], "no structured output")
	assert.NotEmpty(t, art["parse_error"])
}

func TestRequirementsAnalystFencedResponse(t *testing.T) {
	store := artifact.NewStore(t.TempDir(), nil)
	backend := &model.FixtureBackend{Responses: map[string]string{
		TypeRequirementsAnalyst: "Here you go:\n```json\n{\"title\": \"Login\", \"acceptance_criteria\": [\"AC-1\", \"AC-2\"]}\n```\nDone.",
	}}
	a := NewRequirementsAnalyst(store, backend, DefaultOptions(TypeRequirementsAnalyst), nil)

	art, err := a.Process(context.Background(), storyInput("US-003"))
	require.NoError(t, err)
	assert.Equal(t, "Login", art["title"])
	assert.NotContains(t, art, "parse_error")
}

func TestBacklogBodyRendersLists(t *testing.T) {
	body := backlogBody(map[string]any{
		"description":             "Login flow.",
		"functional_requirements": []any{"FR-1", "FR-2"},
		"acceptance_criteria":     []string{"AC-1"},
	})
	assert.True(t, strings.Contains(body, "### Functional Requirements"))
	assert.Contains(t, body, "- FR-1")
	assert.Contains(t, body, "- AC-1")
}
