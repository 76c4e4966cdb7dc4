package agent

import (
	"context"
	"strings"

	"github.com/veriflow/veriflowcc/internal/model"
)

// Event is one element of a streaming stage run. Status is one of "started",
// "streaming", "completed", "error". At most one terminal event (completed or
// error) is emitted, nothing follows it, and the channel is closed afterwards.
// When ctx is canceled and the consumer has stopped receiving, the channel is
// closed without a terminal event.
type Event struct {
	Status  string         `json:"status"`
	Content string         `json:"content,omitempty"`
	Result  map[string]any `json:"result,omitempty"`
	Error   string         `json:"error,omitempty"`
	Type    string         `json:"error_type,omitempty"`
}

// StreamProcess runs a stage with chunked model output. The consumer receives
// a started event, zero or more streaming events carrying content chunks, and
// one terminal event. Canceling ctx stops the producer: a consumer still
// receiving gets an error terminal event, an abandoned channel is simply
// closed. On completion the artifact and session are persisted exactly as in
// Process. No retry is attempted inside the stream.
func StreamProcess(ctx context.Context, a StageAgent, input map[string]any) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)

		send := func(ev Event) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}
		// terminal delivers best-effort once ctx is canceled: a consumer
		// blocked in receive still gets the event, an absent one does not
		// keep the producer alive.
		terminal := func(ev Event) {
			select {
			case out <- ev:
			case <-ctx.Done():
				select {
				case out <- ev:
				default:
				}
			}
		}
		fail := func(err error) {
			terminal(Event{Status: "error", Error: err.Error(), Type: model.Kind(err)})
		}

		if !send(Event{Status: "started"}) {
			fail(ctx.Err())
			return
		}

		prompt, err := a.RenderPrompt(input)
		if err != nil {
			fail(err)
			return
		}

		events, err := a.Backend().Stream(ctx, prompt, a.CallOptions())
		if err != nil {
			fail(err)
			return
		}

		var buf strings.Builder
		for ev := range events {
			switch ev.Type {
			case "text":
				buf.WriteString(ev.Text)
				if !send(Event{Status: "streaming", Content: ev.Text}) {
					fail(ctx.Err())
					return
				}
			case "error":
				fail(ev.Err)
				return
			}
		}

		sess := a.Session()
		sess.Append("user", prompt)
		sess.Append("assistant", buf.String())

		result := a.Assemble(input, buf.String())
		a.Persist(input, result)
		terminal(Event{Status: "completed", Result: result})
	}()
	return out
}
