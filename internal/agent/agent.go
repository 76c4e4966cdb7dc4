// Package agent implements the V-Model stage agents.
//
// Every stage agent turns a stage-specific input payload into a structured
// artifact while maintaining conversational continuity with the model backend.
// Process is the strict operation: it validates input, calls the model, and
// propagates typed errors. Execute is the lenient wrapper: it never returns an
// error, converting failures into tagged result maps.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veriflow/veriflowcc/internal/artifact"
	"github.com/veriflow/veriflowcc/internal/model"
)

// StageAgent is the uniform contract every stage agent satisfies.
//
// Process runs the full stage: validate input, render the prompt, call the
// model, assemble and persist the artifact. RenderPrompt, Assemble, and
// Persist expose the prompt, artifact-assembly, and persistence steps so the
// streaming path can interleave them with chunked model output.
type StageAgent interface {
	AgentType() string
	Process(ctx context.Context, input map[string]any) (map[string]any, error)
	RenderPrompt(input map[string]any) (string, error)
	Assemble(input map[string]any, response string) map[string]any

	// Persist writes the stage artifact, any ledgers, and the session state
	// for an assembled result. Failures are logged, never returned.
	Persist(input, result map[string]any)

	Session() *Session
	Backend() model.Backend
	CallOptions() model.Options
}

// Base carries the state and helpers shared by all stage agents. Concrete
// agents embed it and implement the stage-specific methods.
type Base struct {
	agentType string
	store     *artifact.Store
	backend   model.Backend
	opts      model.Options
	logger    *zap.Logger
	session   *Session
}

func newBase(agentType, instanceID string, store *artifact.Store, backend model.Backend, opts model.Options, logger *zap.Logger) Base {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.Agent = agentType
	return Base{
		agentType: agentType,
		store:     store,
		backend:   backend,
		opts:      opts,
		logger:    logger.With(zap.String("agent", agentType)),
		session:   NewSession(agentType, instanceID, store, logger),
	}
}

// NewInstanceID returns a short random instance identifier for callers that
// run same-typed agents concurrently and need distinct session files.
func NewInstanceID() string {
	return uuid.NewString()[:8]
}

// AgentType returns the stage identifier string, e.g. "requirements_analyst".
func (b *Base) AgentType() string { return b.agentType }

// Session returns the agent's session state.
func (b *Base) Session() *Session { return b.session }

// Backend returns the injected model backend.
func (b *Base) Backend() model.Backend { return b.backend }

// CallOptions returns the agent's model call options.
func (b *Base) CallOptions() model.Options { return b.opts }

// Store returns the project artifact store.
func (b *Base) Store() *artifact.Store { return b.store }

// Call sends a prompt to the model with retry, recording both sides of the
// exchange in the session history.
func (b *Base) Call(ctx context.Context, prompt string) (string, error) {
	b.session.Append("user", prompt)
	text, err := model.Complete(ctx, b.backend, prompt, b.opts)
	if err != nil {
		return "", err
	}
	b.session.Append("assistant", text)
	return text, nil
}

// persistArtifact writes the stage artifact, downgrading failures to a logged
// warning. Losing the file must not fail a stage whose primary content was
// produced.
func (b *Base) persistArtifact(name string, content any) {
	if err := b.store.SaveArtifact(name, content); err != nil {
		b.logger.Warn("failed to save artifact", zap.String("name", name), zap.Error(err))
	}
}

// persistSession saves the session state, warn-only like persistArtifact.
func (b *Base) persistSession() {
	if err := b.session.Save(); err != nil {
		b.logger.Warn("failed to save session state", zap.Error(err))
	}
}

// --- shared input/response helpers ---

// parseJSONObject extracts a JSON object from a model response, tolerating
// markdown code fences and surrounding prose.
func parseJSONObject(text string) (map[string]any, error) {
	candidate := strings.TrimSpace(text)
	if idx := strings.Index(candidate, "```json"); idx >= 0 {
		candidate = candidate[idx+len("```json"):]
		if end := strings.Index(candidate, "```"); end >= 0 {
			candidate = candidate[:end]
		}
	}
	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start < 0 || end <= start {
		return nil, &model.ParseError{Err: fmt.Errorf("no JSON object in response")}
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(candidate[start:end+1]), &parsed); err != nil {
		return nil, &model.ParseError{Err: err}
	}
	return parsed, nil
}

// artifactBody returns the parsed response, or a fallback carrying the raw
// text and the parse error. The pipeline never discards a model response.
func artifactBody(response string) map[string]any {
	parsed, err := parseJSONObject(response)
	if err != nil {
		return map[string]any{
			"response_text": response,
			"parse_error":   err.Error(),
		}
	}
	return parsed
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// storyID returns the caller-supplied story identifier, autogenerating one
// from a timestamp when absent.
func storyID(input map[string]any) string {
	if story, ok := input["story"].(map[string]any); ok {
		if id, ok := story["id"].(string); ok && id != "" {
			return id
		}
	}
	if id, ok := input["id"].(string); ok && id != "" {
		return id
	}
	return "story-" + time.Now().UTC().Format("20060102T150405")
}

func storyField(input map[string]any, field string) string {
	if story, ok := input["story"].(map[string]any); ok {
		if v, ok := story[field].(string); ok {
			return v
		}
	}
	return ""
}

// upstreamRef extracts the {id, agent} reference from an upstream artifact
// carried in the input under key.
func upstreamRef(input map[string]any, key string) map[string]any {
	up, ok := input[key].(map[string]any)
	if !ok {
		return nil
	}
	ref := map[string]any{}
	if id, ok := up["id"].(string); ok {
		ref["id"] = id
	}
	if ag, ok := up["agent"].(string); ok {
		ref["agent"] = ag
	}
	if len(ref) == 0 {
		return nil
	}
	return ref
}

// compactJSON renders a value for embedding into a prompt.
func compactJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// requireStory validates that input carries a story map.
func requireStory(input map[string]any) (map[string]any, error) {
	story, ok := input["story"].(map[string]any)
	if !ok || len(story) == 0 {
		return nil, &model.ValidationError{Field: "story", Reason: "required map is missing"}
	}
	return story, nil
}
