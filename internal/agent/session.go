package agent

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/veriflow/veriflowcc/internal/artifact"
)

// Turn is one conversational exchange with the model.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// sessionSnapshot is the on-disk shape of a persisted session.
type sessionSnapshot struct {
	AgentType       string         `json:"agent_type"`
	Context         map[string]any `json:"context"`
	SessionHistory  []Turn         `json:"session_history"`
	ToolPermissions []string       `json:"tool_permissions"`
}

// Session tracks an agent's conversational context and history, and persists
// them across agent instances via the artifact store.
//
// Identity is the composite (agent type, instance ID). An empty instance ID
// yields the legacy session_state_<agent_type>.json file name, which means two
// same-typed agents with empty instance IDs share a session file. Callers that
// drive same-typed agents concurrently must assign distinct instance IDs.
type Session struct {
	agentType  string
	instanceID string
	store      *artifact.Store
	logger     *zap.Logger

	Context         map[string]any
	History         []Turn
	ToolPermissions []string
}

// NewSession creates an empty session for the given agent type.
func NewSession(agentType, instanceID string, store *artifact.Store, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		agentType:  agentType,
		instanceID: instanceID,
		store:      store,
		logger:     logger,
		Context:    map[string]any{},
		History:    []Turn{},
	}
}

// Identity returns the composite session identity: the agent type, suffixed
// with the instance ID when one is set.
func (s *Session) Identity() string {
	if s.instanceID == "" {
		return s.agentType
	}
	return s.agentType + "_" + s.instanceID
}

// FileName returns the session file name for this session's identity.
func (s *Session) FileName() string {
	return fmt.Sprintf("session_state_%s.json", s.Identity())
}

// Append records one conversational turn.
func (s *Session) Append(role, content string) {
	s.History = append(s.History, Turn{Role: role, Content: content})
}

// Merge shallow-merges kv into the session context.
func (s *Session) Merge(kv map[string]any) {
	for k, v := range kv {
		s.Context[k] = v
	}
}

// Save serializes the full session to its file, overwriting any previous
// snapshot.
func (s *Session) Save() error {
	snap := sessionSnapshot{
		AgentType:       s.agentType,
		Context:         s.Context,
		SessionHistory:  s.History,
		ToolPermissions: s.ToolPermissions,
	}
	return artifact.WriteJSON(s.store.Path(s.FileName()), &snap)
}

// Load restores a previously saved session. A missing snapshot returns
// (false, nil) and leaves the in-memory state untouched. A corrupt snapshot is
// a hard error: a known file that fails to parse needs explicit handling, not
// a silent reset. On success the snapshot context is shallow-merged into the
// current context and the history is replaced wholesale.
func (s *Session) Load() (bool, error) {
	var snap sessionSnapshot
	if err := artifact.ReadJSON(s.store.Path(s.FileName()), &snap); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("load session %s: %w", s.FileName(), err)
	}

	for k, v := range snap.Context {
		s.Context[k] = v
	}
	s.History = snap.SessionHistory
	if s.History == nil {
		s.History = []Turn{}
	}
	if len(snap.ToolPermissions) > 0 {
		s.ToolPermissions = snap.ToolPermissions
	}
	s.logger.Debug("session restored",
		zap.String("agent_type", s.agentType),
		zap.Int("turns", len(s.History)))
	return true, nil
}
