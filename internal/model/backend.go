// Package model defines the boundary to the external language-model service.
//
// The pipeline core never constructs prompts for a specific provider or parses
// provider wire formats; it consumes this interface. Backends are selected by
// dependency injection: a live backend in production, FixtureBackend in tests
// and offline runs.
package model

import (
	"context"
	"time"
)

// Options configures a single model call. Zero values fall back to backend
// defaults. Agent tags the call with the requesting stage agent so fixture
// backends and telemetry can key off it.
type Options struct {
	Agent        string
	SystemPrompt string
	Model        string
	MaxTokens    int
	MaxTurns     int
	Temperature  float64
	ToolsEnabled bool

	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// StreamEvent is one element of a streaming response.
type StreamEvent struct {
	Type string `json:"type"` // "text", "status", "usage", "complete", "error"
	Text string `json:"text,omitempty"`
	Err  error  `json:"-"`
}

// Backend is the external model service.
//
// Complete returns the full response text. Stream returns a channel of events;
// the backend closes the channel after sending a terminal "complete" or
// "error" event, and sends nothing after an error event. Both honor ctx
// cancellation. Credentials are resolved lazily at call time; a backend that
// cannot authenticate returns *AuthenticationError from the call itself.
type Backend interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
	Stream(ctx context.Context, prompt string, opts Options) (<-chan StreamEvent, error)
}
