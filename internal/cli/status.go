package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize artifacts in the project directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		dirs := []string{"requirements", "design", "development", "testing", "integration"}
		for _, dir := range dirs {
			ids := artifactIDs(filepath.Join(projectDir, dir))
			fmt.Printf("%-12s %d artifact(s)", dir, len(ids))
			if len(ids) > 0 {
				fmt.Printf("  [%s]", strings.Join(ids, ", "))
			}
			fmt.Println()
		}
		return nil
	},
}

func artifactIDs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
		}
	}
	return ids
}
