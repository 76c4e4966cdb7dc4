package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func criterionScore(t *testing.T, report map[string]any, group, name string) float64 {
	t.Helper()
	g, ok := report[group].(map[string]any)
	require.True(t, ok, "missing group %s", group)
	c, ok := g[name].(map[string]any)
	require.True(t, ok, "missing criterion %s", name)
	return c["score"].(float64)
}

func criterionIssues(t *testing.T, report map[string]any, group, name string) []string {
	t.Helper()
	c := report[group].(map[string]any)[name].(map[string]any)
	issues, _ := c["issues"].([]string)
	return issues
}

func wellFormedArtifact() map[string]any {
	return map[string]any{
		"description": "As a user I want to log in with email and password so I can access my account.",
		"functional_requirements": []string{
			"FR-1: authenticate by email and password",
			"FR-2: lock account after five failures",
		},
		"acceptance_criteria": []string{
			"Given valid credentials, the user is signed in.",
			"Given five failures, the account is locked.",
		},
		"dependencies":   []string{},
		"business_value": "Reduces support load.",
	}
}

func TestValidateWellFormedArtifact(t *testing.T) {
	report := ValidateRequirements(wellFormedArtifact())

	assert.True(t, report["is_valid"].(bool))
	assert.Equal(t, 1.0, report["overall_score"].(float64))
	assert.Empty(t, report["recommendations"])
}

func TestValidateZeroAcceptanceCriteria(t *testing.T) {
	art := wellFormedArtifact()
	art["acceptance_criteria"] = []string{}
	report := ValidateRequirements(art)

	assert.Equal(t, 0.0, criterionScore(t, report, "invest_criteria", "testable"))
	assert.False(t, report["is_valid"].(bool))
}

func TestValidateSingleAcceptanceCriterion(t *testing.T) {
	art := wellFormedArtifact()
	art["acceptance_criteria"] = []string{"only one"}
	report := ValidateRequirements(art)

	assert.Equal(t, 0.5, criterionScore(t, report, "invest_criteria", "testable"))
	assert.Equal(t, 0.7, criterionScore(t, report, "smart_criteria", "measurable"))
}

func TestValidateTooManyDependencies(t *testing.T) {
	art := wellFormedArtifact()
	art["dependencies"] = []string{"a", "b", "c", "d"}
	report := ValidateRequirements(art)

	assert.Equal(t, 0.5, criterionScore(t, report, "invest_criteria", "independent"))
	issues := criterionIssues(t, report, "invest_criteria", "independent")
	require.NotEmpty(t, issues)
	assert.Contains(t, issues[0], "dependencies")
}

func TestValidateTooManyRequirements(t *testing.T) {
	art := wellFormedArtifact()
	frs := make([]string, 11)
	for i := range frs {
		frs[i] = "FR"
	}
	art["functional_requirements"] = frs
	report := ValidateRequirements(art)

	assert.Equal(t, 0.4, criterionScore(t, report, "invest_criteria", "small"))
}

func TestValidateNoFunctionalRequirements(t *testing.T) {
	art := wellFormedArtifact()
	art["functional_requirements"] = []string{}
	report := ValidateRequirements(art)

	assert.Equal(t, 0.2, criterionScore(t, report, "invest_criteria", "estimable"))
}

func TestValidateCompoundCriticalPenalty(t *testing.T) {
	// Empty artifact trips three critical criteria (testable, estimable,
	// specific); the score drops 0.1 for each beyond the first.
	report := ValidateRequirements(map[string]any{})

	// Raw mean: (1+1+0.5+0.2+1+0 + 0.2+0.3+1+0.5+0.5)/11, minus 0.2.
	assert.InDelta(t, 6.2/11.0-0.2, report["overall_score"].(float64), 1e-9)
	assert.False(t, report["is_valid"].(bool))
	assert.NotEmpty(t, report["recommendations"])
}

func TestValidateNilArtifact(t *testing.T) {
	report := ValidateRequirements(nil)

	assert.False(t, report["is_valid"].(bool))
	assert.Equal(t, 0.0, report["overall_score"])
	assert.NotEmpty(t, report["error"])
	assert.NotEmpty(t, report["recommendations"])
}

func TestValidateToleratesDecodedJSONLists(t *testing.T) {
	// Artifacts loaded back from disk carry []any, not []string.
	art := map[string]any{
		"description":             "A sufficiently long description of the story under validation.",
		"functional_requirements": []any{"FR-1"},
		"acceptance_criteria":     []any{"AC-1", "AC-2"},
		"business_value":          "keeps users",
	}
	report := ValidateRequirements(art)
	assert.True(t, report["is_valid"].(bool))
}
