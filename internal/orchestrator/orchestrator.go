// Package orchestrator sequences the V-Model stages for one sprint.
//
// The orchestrator is pure dispatch: each stage's output schema is owned by
// its agent and returned unchanged. The orchestrator's own state tracks
// progress (current stage, completed stages, per-stage metrics) and supports
// named checkpoint/restore for failure recovery.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veriflow/veriflowcc/internal/agent"
	"github.com/veriflow/veriflowcc/internal/artifact"
	"github.com/veriflow/veriflowcc/internal/config"
	"github.com/veriflow/veriflowcc/internal/eventlog"
	"github.com/veriflow/veriflowcc/internal/model"
)

// Orchestrator holds one stage agent per V-Model stage and drives them in
// order. It is not safe for concurrent use; run one sprint per project
// directory at a time.
type Orchestrator struct {
	store       *artifact.Store
	cfg         *config.Config
	agents      map[Stage]agent.StageAgent
	integration agent.StageAgent
	events      *eventlog.Log
	logger      *zap.Logger
	runID       string
	state       map[string]any
}

// New builds an orchestrator with the standard agent set, applying per-agent
// config overrides on top of the agent defaults. events may be nil.
func New(store *artifact.Store, backend model.Backend, cfg *config.Config, events *eventlog.Log, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.Default()
	}

	opts := func(key string) model.Options {
		return cfg.OptionsFor(key, agent.DefaultOptions(key))
	}

	qa := agent.NewQATester(store, backend, opts(agent.TypeQATester), logger)
	agents := map[Stage]agent.StageAgent{
		StageRequirements:       agent.NewRequirementsAnalyst(store, backend, opts(agent.TypeRequirementsAnalyst), logger),
		StageDesign:             agent.NewArchitect(store, backend, opts(agent.TypeArchitect), logger),
		StageCoding:             agent.NewDeveloper(store, backend, opts(agent.TypeDeveloper), logger),
		StageUnitTesting:        qa,
		StageIntegrationTesting: qa,
		StageSystemTesting:      qa,
	}

	runID := uuid.NewString()
	return &Orchestrator{
		store:       store,
		cfg:         cfg,
		agents:      agents,
		integration: agent.NewIntegrationEngineer(store, backend, opts(agent.TypeIntegrationEngineer), logger),
		events:      events,
		logger:      logger,
		runID:       runID,
		state: map[string]any{
			"run_id":           runID,
			"completed_stages": []any{},
			"agent_metrics":    map[string]any{},
			"session_state":    map[string]any{},
		},
	}
}

// SetAgent replaces the agent for a stage. Used by tests and callers that
// need a custom stage implementation.
func (o *Orchestrator) SetAgent(stage Stage, a agent.StageAgent) {
	o.agents[stage] = a
}

// SetIntegrationAgent replaces the integration validation agent.
func (o *Orchestrator) SetIntegrationAgent(a agent.StageAgent) {
	o.integration = a
}

// State returns the live orchestrator state map. Callers may add keys; a
// later RestoreCheckpoint drops anything added after the snapshot.
func (o *Orchestrator) State() map[string]any {
	return o.state
}

// ExecuteStage dispatches one stage to its mapped agent and returns the agent
// output unchanged. Agent errors propagate so the caller can decide to
// checkpoint-rollback; a result whose status is "error" or "partial" is
// returned as-is, not converted into an error.
func (o *Orchestrator) ExecuteStage(ctx context.Context, stage Stage, input map[string]any) (map[string]any, error) {
	a, ok := o.agents[stage]
	if !ok {
		return nil, fmt.Errorf("no agent mapped for stage %q", stage)
	}

	o.state["current_stage"] = string(stage)
	start := time.Now()

	out, err := a.Process(ctx, input)
	duration := time.Since(start)
	if err != nil {
		o.events.StageRun(ctx, o.runID, string(stage), a.AgentType(), "error", duration)
		return nil, err
	}

	status := resultStatus(out)
	metrics, _ := o.state["agent_metrics"].(map[string]any)
	if metrics == nil {
		metrics = map[string]any{}
		o.state["agent_metrics"] = metrics
	}
	metrics[string(stage)] = map[string]any{
		"agent":       a.AgentType(),
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	}
	if status == "success" {
		o.appendCompleted(string(stage))
	}
	o.state["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	o.events.StageRun(ctx, o.runID, string(stage), a.AgentType(), status, duration)
	return out, nil
}

// RunSprint drives all stages in order for one story, then runs the
// integration validation over the union of produced artifacts. Under hard
// gating the sprint stops advancing at the first non-success stage; under
// soft gating the failure is recorded and the pipeline continues. RunSprint
// itself never returns an error: failed stages appear in the stages map with
// status "error" and an errors list.
func (o *Orchestrator) RunSprint(ctx context.Context, sprintData map[string]any) map[string]any {
	story, _ := sprintData["story"].(map[string]any)
	result := map[string]any{
		"sprint_number": sprintData["sprint_number"],
		"story":         story,
		"stages":        map[string]any{},
	}
	stages := result["stages"].(map[string]any)

	hard := o.cfg.VModel.GatingMode == config.GatingHard
	o.events.PipelineEvent(ctx, o.runID, "sprint_started", "", fmt.Sprintf("gating=%s", o.cfg.VModel.GatingMode))

	stageCtx := map[string]any{"story": story}
	halted := false
	for _, st := range Order {
		in := cloneMap(stageCtx)
		if scope, ok := testScope[st]; ok {
			in["test_scope"] = scope
		}

		out, err := o.ExecuteStage(ctx, st, in)
		if err != nil {
			out = map[string]any{
				"status":     "error",
				"error":      err.Error(),
				"error_type": model.Kind(err),
			}
		}
		normalizeErrors(out)
		stages[string(st)] = out

		if stageFailed(out) {
			o.events.PipelineEvent(ctx, o.runID, "stage_failed", string(st), "")
			if hard {
				o.logger.Info("halting sprint on stage failure",
					zap.String("stage", string(st)))
				halted = true
				break
			}
			o.logger.Warn("stage failed, continuing under soft gating",
				zap.String("stage", string(st)))
			continue
		}
		stageCtx[contextKey[st]] = out
	}

	if !halted {
		out := o.runIntegration(ctx, story, stages)
		normalizeErrors(out)
		stages["integration"] = out
		if !stageFailed(out) {
			o.appendCompleted("integration")
		}
	}

	event := "sprint_completed"
	if halted {
		event = "sprint_halted"
	}
	o.events.PipelineEvent(ctx, o.runID, event, "", "")
	return result
}

// runIntegration invokes the GO/NO-GO validation with every artifact
// reference produced so far, in stage order.
func (o *Orchestrator) runIntegration(ctx context.Context, story map[string]any, stages map[string]any) map[string]any {
	refs := []map[string]any{}
	for _, st := range Order {
		out, ok := stages[string(st)].(map[string]any)
		if !ok || stageFailed(out) {
			continue
		}
		id, _ := out["id"].(string)
		if id == "" {
			continue
		}
		ag, _ := out["agent"].(string)
		refs = append(refs, map[string]any{"id": id, "agent": ag, "stage": string(st)})
	}

	in := map[string]any{"story": story, "artifacts": refs}
	start := time.Now()
	out, err := o.integration.Process(ctx, in)
	if err != nil {
		o.events.StageRun(ctx, o.runID, "integration", o.integration.AgentType(), "error", time.Since(start))
		return map[string]any{
			"status":     "error",
			"error":      err.Error(),
			"error_type": model.Kind(err),
		}
	}
	o.events.StageRun(ctx, o.runID, "integration", o.integration.AgentType(), resultStatus(out), time.Since(start))
	return out
}

// checkpointFile is the on-disk shape of an orchestrator snapshot.
type checkpointFile struct {
	CurrentStage string         `json:"current_stage"`
	State        map[string]any `json:"state"`
	CreatedAt    string         `json:"created_at"`
}

// Checkpoint snapshots the full orchestrator state to
// checkpoints/<name>.json. Checkpointing the same name twice overwrites.
func (o *Orchestrator) Checkpoint(ctx context.Context, name string) error {
	current, _ := o.state["current_stage"].(string)
	cp := checkpointFile{
		CurrentStage: current,
		State:        o.state,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := artifact.WriteJSON(o.store.Path("checkpoints/"+name+".json"), &cp); err != nil {
		return fmt.Errorf("write checkpoint %q: %w", name, err)
	}
	o.events.PipelineEvent(ctx, o.runID, "checkpoint_saved", current, name)
	return nil
}

// RestoreCheckpoint replaces the orchestrator state with the named snapshot.
// Keys added to the state after the snapshot was taken are dropped. A missing
// checkpoint returns (false, nil) without mutating current state.
func (o *Orchestrator) RestoreCheckpoint(ctx context.Context, name string) (bool, error) {
	var cp checkpointFile
	if err := artifact.ReadJSON(o.store.Path("checkpoints/"+name+".json"), &cp); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read checkpoint %q: %w", name, err)
	}
	if cp.State == nil {
		cp.State = map[string]any{}
	}
	o.state = cp.State
	if cp.CurrentStage != "" {
		o.state["current_stage"] = cp.CurrentStage
	}
	o.events.PipelineEvent(ctx, o.runID, "checkpoint_restored", cp.CurrentStage, name)
	return true, nil
}

// --- helpers ---

// appendCompleted records a stage as completed, at most once per stage, so
// re-executing a stage after a rollback does not duplicate the entry.
func (o *Orchestrator) appendCompleted(stage string) {
	switch list := o.state["completed_stages"].(type) {
	case []any:
		for _, s := range list {
			if s == stage {
				return
			}
		}
		o.state["completed_stages"] = append(list, stage)
	case []string:
		for _, s := range list {
			if s == stage {
				return
			}
		}
		o.state["completed_stages"] = append(list, stage)
	default:
		o.state["completed_stages"] = []any{stage}
	}
}

// resultStatus reads the status from an agent result; results without a
// status key are successes (Process returns artifacts, not wrappers).
func resultStatus(out map[string]any) string {
	if s, ok := out["status"].(string); ok && s != "" {
		return s
	}
	return "success"
}

func stageFailed(out map[string]any) bool {
	s := resultStatus(out)
	return s == "error" || s == "partial"
}

// normalizeErrors guarantees failed stage results carry an errors list; the
// sprint result never silently drops a failure.
func normalizeErrors(out map[string]any) {
	if !stageFailed(out) {
		return
	}
	if _, ok := out["errors"]; ok {
		return
	}
	msg, _ := out["error"].(string)
	if msg == "" {
		msg = "stage failed"
	}
	out["errors"] = []string{msg}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
