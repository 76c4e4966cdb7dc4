package agent

import (
	"context"

	"github.com/veriflow/veriflowcc/internal/model"
)

// Execute is the lenient counterpart to Process: failures become data instead
// of errors. It restores prior session state, merges kwargs into the session
// context, runs Process, saves the session, and wraps the outcome in a uniform
// result map. Callers that need typed errors call Process directly.
func Execute(ctx context.Context, a StageAgent, kwargs map[string]any) map[string]any {
	sess := a.Session()

	if _, err := sess.Load(); err != nil {
		// A corrupt session snapshot is a hard error from Load; at this
		// boundary it degrades into an error result like everything else.
		return errorResult(a, err)
	}
	sess.Merge(kwargs)

	result, err := a.Process(ctx, kwargs)
	if err != nil {
		return errorResult(a, err)
	}

	if err := sess.Save(); err != nil {
		return errorResult(a, err)
	}

	return map[string]any{
		"status":        "success",
		"agent":         sess.Identity(),
		"agent_type":    a.AgentType(),
		"result":        result,
		"session_turns": len(sess.History),
	}
}

func errorResult(a StageAgent, err error) map[string]any {
	return map[string]any{
		"status":     "error",
		"agent_type": a.AgentType(),
		"error":      err.Error(),
		"error_type": model.Kind(err),
	}
}
