package generation

import "pustaka/types"

// Frame is one event on the generation wire. Serialized as the JSON payload
// of a "data: <json>" line; pointer fields are omitted when absent so a
// frame carries only what actually happened.
type Frame struct {
	Error    *string `json:"error,omitempty"`
	Status   *string `json:"status,omitempty"`
	Progress *int    `json:"progress,omitempty"`
	Content  *string `json:"content,omitempty"`
	Done     bool    `json:"done,omitempty"`

	Model             string                   `json:"model,omitempty"`
	Provider          string                   `json:"provider,omitempty"`
	Usage             *types.TokenUsage        `json:"usage,omitempty"`
	CostEstimate      *types.CostEstimate      `json:"cost_estimate,omitempty"`
	DurationSeconds   float64                  `json:"duration_seconds,omitempty"`
	IsEnhanced        bool                     `json:"is_enhanced,omitempty"`
	IsSynthesis       bool                     `json:"is_synthesis,omitempty"`
	DraftCount        int                      `json:"draft_count,omitempty"`
	SourceDraftCount  int                      `json:"source_draft_count,omitempty"`
	SourceModels      []string                 `json:"source_models,omitempty"`
	DiversityAnalysis *types.DiversityAnalysis `json:"diversity_analysis,omitempty"`
	SynthesisMetadata *types.SynthesisMetadata `json:"synthesis_metadata,omitempty"`
}

// Emitter receives frames as they are produced. Returning an error stops
// the generation; the writer uses this to notice a disconnected client.
type Emitter func(Frame) error

func statusFrame(text string) Frame    { return Frame{Status: &text} }
func progressFrame(pct int) Frame      { return Frame{Progress: &pct} }
func contentFrame(delta string) Frame  { return Frame{Content: &delta} }
func errorFrame(message string) Frame  { return Frame{Error: &message} }
