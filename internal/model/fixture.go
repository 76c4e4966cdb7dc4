package model

import (
	"context"
	"encoding/json"
	"fmt"
)

// FixtureBackend serves canned responses keyed by the requesting agent type.
// It stands in for the live model service in tests and offline runs.
type FixtureBackend struct {
	// Responses maps agent type to the canned response text. Agents without
	// an entry get a minimal JSON object so parsing still succeeds.
	Responses map[string]string

	// Err, when set, is returned from every call. Used to simulate backend
	// failures.
	Err error

	// ChunkSize controls how the streaming path splits the response.
	// Defaults to 64 bytes.
	ChunkSize int

	calls []string
}

// NewFixtureBackend returns a backend preloaded with plausible artifacts for
// each of the standard stage agents.
func NewFixtureBackend() *FixtureBackend {
	return &FixtureBackend{Responses: defaultFixtures()}
}

// Calls returns the agent types of all calls made, in order.
func (f *FixtureBackend) Calls() []string {
	return f.calls
}

// Complete returns the canned response for opts.Agent.
func (f *FixtureBackend) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Err != nil {
		return "", f.Err
	}
	f.calls = append(f.calls, opts.Agent)
	return f.response(opts.Agent), nil
}

// Stream splits the canned response into text chunks followed by a terminal
// complete event.
func (f *FixtureBackend) Stream(ctx context.Context, prompt string, opts Options) (<-chan StreamEvent, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	f.calls = append(f.calls, opts.Agent)

	text := f.response(opts.Agent)
	size := f.ChunkSize
	if size <= 0 {
		size = 64
	}

	out := make(chan StreamEvent)
	go func() {
		defer close(out)
		for start := 0; start < len(text); start += size {
			end := start + size
			if end > len(text) {
				end = len(text)
			}
			select {
			case <-ctx.Done():
				out <- StreamEvent{Type: "error", Err: ctx.Err()}
				return
			case out <- StreamEvent{Type: "text", Text: text[start:end]}:
			}
		}
		out <- StreamEvent{Type: "complete"}
	}()
	return out, nil
}

func (f *FixtureBackend) response(agentType string) string {
	if r, ok := f.Responses[agentType]; ok {
		return r
	}
	fallback, _ := json.Marshal(map[string]any{
		"summary": fmt.Sprintf("fixture response for %s", agentType),
	})
	return string(fallback)
}

func defaultFixtures() map[string]string {
	fixtures := map[string]any{
		"requirements_analyst": map[string]any{
			"title":       "Elaborated story",
			"description": "Expanded user story with functional and non-functional requirements.",
			"functional_requirements": []string{
				"FR-1: The system shall authenticate users by email and password.",
				"FR-2: The system shall lock accounts after five failed attempts.",
			},
			"non_functional_requirements": []string{
				"NFR-1: Authentication responses within 500ms at p95.",
			},
			"acceptance_criteria": []string{
				"Given valid credentials, the user is signed in.",
				"Given five failed attempts, the account is locked.",
			},
			"dependencies":   []string{},
			"business_value": "Reduces support load from account lockouts.",
		},
		"architect": map[string]any{
			"architecture_overview": "Layered service with a stateless auth API over a session store.",
			"components": []map[string]any{
				{"name": "auth-api", "responsibility": "credential verification"},
				{"name": "session-store", "responsibility": "token persistence"},
			},
			"interfaces": []string{"POST /login", "POST /logout"},
			"diagram":    "@startuml\n[auth-api] --> [session-store]\n@enduml",
		},
		"developer": map[string]any{
			"implementation_plan": "Implement handler, service, and store layers.",
			"files": []map[string]any{
				{"path": "internal/auth/handler.go", "purpose": "HTTP handlers"},
				{"path": "internal/auth/service.go", "purpose": "credential checks"},
			},
			"notes": "Follows the component boundaries from the design.",
		},
		"qa_tester": map[string]any{
			"test_plan": "Cover credential verification and lockout behavior.",
			"test_cases": []map[string]any{
				{"name": "valid login", "expected": "session issued"},
				{"name": "lockout after five failures", "expected": "account locked"},
			},
			"coverage_targets": []string{"auth service", "lockout policy"},
		},
		"integration_engineer": map[string]any{
			"decision":       "GO",
			"summary":        "All stage artifacts are consistent and traceable.",
			"risks":          []string{},
			"release_checks": []string{"artifact chain verified"},
		},
	}

	out := make(map[string]string, len(fixtures))
	for k, v := range fixtures {
		data, _ := json.MarshalIndent(v, "", "  ")
		out[k] = string(data)
	}
	return out
}
