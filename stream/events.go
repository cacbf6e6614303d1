package stream

import "pustaka/types"

// Event is one parsed frame payload from a generation stream. Events are
// transient: the session consumes them immediately and does not retain them.
type Event interface {
	isEvent()
}

// ContentDelta carries a fragment of brief text, appended verbatim.
type ContentDelta struct {
	Text string
}

// StatusUpdate replaces the current human-readable phase label.
type StatusUpdate struct {
	Text string
}

// ProgressUpdate reports phase completion. Percentages are per phase, not
// cumulative: a later value may be lower than an earlier one.
type ProgressUpdate struct {
	Percent int
}

// Completed is the terminal success event. Stats are normalized from
// whatever fields the final frame supplied. Diversity and Synthesis are
// populated only for synthesis streams that reported them.
type Completed struct {
	Stats     types.UsageStats
	Diversity *types.DiversityAnalysis
	Synthesis *types.SynthesisMetadata
}

// ErrorFrame is the terminal failure event for an in-stream error.
type ErrorFrame struct {
	Message string
}

func (ContentDelta) isEvent()   {}
func (StatusUpdate) isEvent()   {}
func (ProgressUpdate) isEvent() {}
func (Completed) isEvent()      {}
func (ErrorFrame) isEvent()     {}
