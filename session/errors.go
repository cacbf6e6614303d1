package session

import "fmt"

// ValidationError is a precondition failure rejected before any network
// call: missing verified source metadata, or a synthesis selection that is
// too small.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// StreamError is an error frame that arrived mid-stream. The message is the
// backend's own wording, passed through verbatim.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	if e.Message == "" {
		return "generation stream reported an error"
	}
	return fmt.Sprintf("generation failed: %s", e.Message)
}
