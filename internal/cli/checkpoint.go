package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Manage orchestrator checkpoints",
}

var checkpointListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved checkpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := filepath.Join(projectDir, "checkpoints")
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Println("no checkpoints")
				return nil
			}
			return err
		}
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".json") {
				fmt.Println(strings.TrimSuffix(e.Name(), ".json"))
			}
		}
		return nil
	},
}

var checkpointRestoreCmd = &cobra.Command{
	Use:   "restore <name>",
	Short: "Restore orchestrator state from a named checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		defer logger.Sync()

		ctx := cmd.Context()
		orch, events, err := newOrchestrator(ctx, logger)
		if err != nil {
			return err
		}
		defer events.Close()

		ok, err := orch.RestoreCheckpoint(ctx, args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("checkpoint %q not found", args[0])
		}
		fmt.Printf("restored checkpoint %q (stage: %v)\n", args[0], orch.State()["current_stage"])
		return nil
	},
}

func init() {
	checkpointCmd.AddCommand(checkpointListCmd)
	checkpointCmd.AddCommand(checkpointRestoreCmd)
}
