package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	storyFile    string
	sprintNumber int
	checkpointAs string
)

var sprintCmd = &cobra.Command{
	Use:   "sprint",
	Short: "Run one full V-Model sprint for a story",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		defer logger.Sync()

		story, err := loadStory(storyFile)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		orch, events, err := newOrchestrator(ctx, logger)
		if err != nil {
			return err
		}
		defer events.Close()

		result := orch.RunSprint(ctx, map[string]any{
			"sprint_number": sprintNumber,
			"story":         story,
		})

		if checkpointAs != "" {
			if err := orch.Checkpoint(ctx, checkpointAs); err != nil {
				return err
			}
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	sprintCmd.Flags().StringVarP(&storyFile, "story", "s", "", "path to the story file (JSON or YAML)")
	sprintCmd.Flags().IntVarP(&sprintNumber, "number", "n", 1, "sprint number")
	sprintCmd.Flags().StringVar(&checkpointAs, "checkpoint", "", "save a named checkpoint after the sprint")
	sprintCmd.MarkFlagRequired("story")
}

// loadStory reads a story map from a JSON or YAML file.
func loadStory(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read story file: %w", err)
	}

	story := map[string]any{}
	if json.Valid(data) {
		if err := json.Unmarshal(data, &story); err != nil {
			return nil, fmt.Errorf("parse story JSON: %w", err)
		}
		return story, nil
	}
	if err := yaml.Unmarshal(data, &story); err != nil {
		return nil, fmt.Errorf("parse story YAML: %w", err)
	}
	return story, nil
}
