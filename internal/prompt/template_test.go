package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderVariables(t *testing.T) {
	out, err := Render("Hello {{name}}, story {{id}}", Vars{"name": "dev", "id": "US-1"})
	require.NoError(t, err)
	assert.Equal(t, "Hello dev, story US-1", out)
}

func TestRenderMissingVariable(t *testing.T) {
	_, err := Render("Hello {{name}}", Vars{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}

func TestRenderConditionals(t *testing.T) {
	tmpl := "start{{#if extra}} extra={{extra}}{{/if}} end"

	out, err := Render(tmpl, Vars{"extra": "yes"})
	require.NoError(t, err)
	assert.Equal(t, "start extra=yes end", out)

	out, err = Render(tmpl, Vars{"extra": ""})
	require.NoError(t, err)
	assert.Equal(t, "start end", out)

	out, err = Render(tmpl, Vars{})
	require.NoError(t, err)
	assert.Equal(t, "start end", out)
}

func TestRenderNestedConditionals(t *testing.T) {
	tmpl := "{{#if a}}A{{#if b}}B{{/if}}{{/if}}"

	out, err := Render(tmpl, Vars{"a": "1", "b": "1"})
	require.NoError(t, err)
	assert.Equal(t, "AB", out)

	out, err = Render(tmpl, Vars{"a": "1"})
	require.NoError(t, err)
	assert.Equal(t, "A", out)

	out, err = Render(tmpl, Vars{"b": "1"})
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestRenderDanglingClose(t *testing.T) {
	_, err := Render("text {{/if}}", Vars{})
	require.Error(t, err)
}

func TestRenderUnclosedBlock(t *testing.T) {
	_, err := Render("{{#if a}} body", Vars{"a": "1"})
	require.Error(t, err)
}

func TestLoadBuiltinTemplate(t *testing.T) {
	tmpl, err := LoadTemplate("requirements.md", "")
	require.NoError(t, err)
	assert.Contains(t, tmpl, "{{story_id}}")
}

func TestLoadTemplateProjectOverride(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "templates"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "templates", "requirements.md"), []byte("custom {{story_id}}"), 0o644))

	tmpl, err := LoadTemplate("requirements.md", base)
	require.NoError(t, err)
	assert.Equal(t, "custom {{story_id}}", tmpl)
}

func TestLoadTemplateRejectsTraversal(t *testing.T) {
	base := t.TempDir()
	project := filepath.Join(base, "proj")
	require.NoError(t, os.MkdirAll(filepath.Join(project, "templates"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "outside.md"), []byte("leaked"), 0o644))

	// A name escaping the templates directory never resolves to a file.
	_, err := LoadTemplate("../../outside.md", project)
	require.Error(t, err)
}

func TestLoadUnknownTemplate(t *testing.T) {
	_, err := LoadTemplate("nope.md", t.TempDir())
	require.Error(t, err)
}
