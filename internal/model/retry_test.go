package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedBackend returns each error in errs for successive calls, then
// succeeds with text.
type scriptedBackend struct {
	errs  []error
	text  string
	calls int
}

func (s *scriptedBackend) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return "", err
	}
	return s.text, nil
}

func (s *scriptedBackend) Stream(ctx context.Context, prompt string, opts Options) (<-chan StreamEvent, error) {
	out := make(chan StreamEvent, 2)
	out <- StreamEvent{Type: "text", Text: s.text}
	out <- StreamEvent{Type: "complete"}
	close(out)
	return out, nil
}

func TestCompleteRetriesTransient(t *testing.T) {
	b := &scriptedBackend{
		errs: []error{&TransientError{Op: "dial", Err: errors.New("refused")}},
		text: "ok",
	}
	opts := Options{MaxRetries: 2, RetryDelay: time.Millisecond}

	text, err := Complete(context.Background(), b, "prompt", opts)
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 2, b.calls)
}

func TestCompleteExhaustsRetries(t *testing.T) {
	transient := &TransientError{Op: "dial", Err: errors.New("refused")}
	b := &scriptedBackend{errs: []error{transient, transient, transient}}
	opts := Options{MaxRetries: 2, RetryDelay: time.Millisecond}

	_, err := Complete(context.Background(), b, "prompt", opts)
	require.Error(t, err)
	assert.Equal(t, "connection", Kind(err))
	assert.Equal(t, 3, b.calls)
}

func TestCompleteAuthNotRetried(t *testing.T) {
	b := &scriptedBackend{errs: []error{&AuthenticationError{Reason: "bad key"}}}
	opts := Options{MaxRetries: 5, RetryDelay: time.Millisecond}

	_, err := Complete(context.Background(), b, "prompt", opts)
	require.Error(t, err)
	assert.Equal(t, "authentication", Kind(err))
	assert.Equal(t, 1, b.calls)
}

func TestCompleteDeadlineBecomesTimeout(t *testing.T) {
	b := &scriptedBackend{errs: []error{context.DeadlineExceeded}}
	opts := Options{MaxRetries: 0, Timeout: time.Second}

	_, err := Complete(context.Background(), b, "prompt", opts)
	require.Error(t, err)
	var timeoutErr *TimeoutError
	assert.ErrorAs(t, err, &timeoutErr)
	assert.True(t, Retryable(err))
}

func TestCompleteHonorsCancellation(t *testing.T) {
	transient := &TransientError{Op: "dial", Err: errors.New("refused")}
	b := &scriptedBackend{errs: []error{transient, transient}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// First attempt runs, the retry delay observes the canceled context.
	_, err := Complete(ctx, b, "prompt", Options{MaxRetries: 3, RetryDelay: time.Minute})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, b.calls)
}

func TestKindClosedSet(t *testing.T) {
	assert.Equal(t, "authentication", Kind(&AuthenticationError{Reason: "x"}))
	assert.Equal(t, "timeout", Kind(&TimeoutError{Op: "call", Timeout: time.Second}))
	assert.Equal(t, "connection", Kind(&TransientError{Op: "dial", Err: errors.New("x")}))
	assert.Equal(t, "validation", Kind(&ValidationError{Field: "story", Reason: "missing"}))
	assert.Equal(t, "parse", Kind(&ParseError{Err: errors.New("bad json")}))
	assert.Equal(t, "internal", Kind(errors.New("anything else")))
}

func TestRetryableClassification(t *testing.T) {
	assert.True(t, Retryable(&TimeoutError{Op: "call", Timeout: time.Second}))
	assert.True(t, Retryable(&TransientError{Op: "dial", Err: errors.New("x")}))
	assert.False(t, Retryable(&AuthenticationError{Reason: "x"}))
	assert.False(t, Retryable(&ValidationError{Field: "story", Reason: "missing"}))
	assert.False(t, Retryable(&ParseError{Err: errors.New("x")}))
	assert.False(t, Retryable(errors.New("x")))
}
