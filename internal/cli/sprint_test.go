package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStory(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadStoryJSON(t *testing.T) {
	path := writeStory(t, "story.json", `{"id": "US-001", "title": "Login"}`)

	story, err := loadStory(path)
	require.NoError(t, err)
	assert.Equal(t, "US-001", story["id"])
	assert.Equal(t, "Login", story["title"])
}

func TestLoadStoryYAML(t *testing.T) {
	path := writeStory(t, "story.yml", "id: US-001\ntitle: Login\ndescription: As a user I log in.\n")

	story, err := loadStory(path)
	require.NoError(t, err)
	assert.Equal(t, "US-001", story["id"])
}

func TestLoadStoryMissingFile(t *testing.T) {
	_, err := loadStory(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoadStoryUnparseable(t *testing.T) {
	path := writeStory(t, "story.yml", "id: [unclosed")
	_, err := loadStory(path)
	require.Error(t, err)
}
