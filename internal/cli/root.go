// Package cli wires the veriflow commands. The commands are thin plumbing
// over the orchestrator; all pipeline behavior lives in the internal packages.
package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/veriflow/veriflowcc/internal/artifact"
	"github.com/veriflow/veriflowcc/internal/config"
	"github.com/veriflow/veriflowcc/internal/eventlog"
	"github.com/veriflow/veriflowcc/internal/model"
	"github.com/veriflow/veriflowcc/internal/orchestrator"
)

var (
	version    = "dev"
	projectDir string
	verbose    bool
)

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "veriflow",
	Short: "veriflow — a V-Model agent pipeline",
	Long: `veriflow drives a five-stage V-Model development workflow
(requirements, design, coding, testing, integration) by delegating each stage
to a model-backed agent. Artifacts, session state, and checkpoints are stored
as JSON under the project directory.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "p", ".veriflow", "project base directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(sprintCmd)
	rootCmd.AddCommand(checkpointCmd)
	rootCmd.AddCommand(statusCmd)
}

func newLogger() *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}

// newOrchestrator assembles the orchestrator for the configured project
// directory. The fixture backend stands in for the live model service; an
// event log is attached when VERIFLOW_DB is set.
func newOrchestrator(ctx context.Context, logger *zap.Logger) (*orchestrator.Orchestrator, *eventlog.Log, error) {
	cfg, err := config.Load(filepath.Join(projectDir, "config.yml"))
	if err != nil {
		return nil, nil, err
	}

	var events *eventlog.Log
	if dsn := os.Getenv("VERIFLOW_DB"); dsn != "" {
		events, err = eventlog.Open(ctx, dsn, logger)
		if err != nil {
			logger.Warn("event log unavailable, continuing without it", zap.Error(err))
			events = nil
		}
	}

	store := artifact.NewStore(projectDir, logger)
	backend := model.NewFixtureBackend()
	return orchestrator.New(store, backend, cfg, events, logger), events, nil
}
