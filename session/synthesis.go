package session

import (
	"context"
	"io"

	"pustaka/types"
)

// SynthesisCoordinator merges two or more archived variants into one new
// brief. It reuses the Session machinery against the synthesis endpoint and
// additionally surfaces diversity and transparency metadata from the
// completion frame.
type SynthesisCoordinator struct {
	*Session
}

// NewSynthesisCoordinator creates an idle coordinator bound to a streamer.
func NewSynthesisCoordinator(streamer Streamer) *SynthesisCoordinator {
	return &SynthesisCoordinator{Session: NewSession(streamer)}
}

// Start begins a synthesis. Fewer than two variant ids is a precondition
// failure: it is reported to the caller and nothing is sent to the network.
func (c *SynthesisCoordinator) Start(req types.SynthesisRequest) error {
	if len(req.VariantIDs) < 2 {
		return &ValidationError{Reason: "synthesis requires at least two variants"}
	}

	open := func(ctx context.Context, _ string) (io.ReadCloser, error) {
		return c.streamer.OpenSynthesisStream(ctx, req)
	}
	fallback := types.UsageStats{
		Model:        req.Model,
		Provider:     req.Provider,
		CostEstimate: types.CostEstimate{Currency: "USD", IsFree: true},
	}
	finalize := func(r *Result) {
		// A successful synthesis always carries its provenance, whether or
		// not the backend echoed it in the terminal frame.
		r.Stats.IsSynthesis = true
		if r.Stats.SourceCount == 0 {
			r.Stats.SourceCount = len(req.VariantIDs)
		}
		if r.Synthesis == nil {
			r.Synthesis = &types.SynthesisMetadata{
				SourceCount:  r.Stats.SourceCount,
				SourceModels: r.Stats.SourceModels,
			}
		}
		if len(r.Stats.SourceModels) == 0 {
			r.Stats.SourceModels = r.Synthesis.SourceModels
		}
	}

	c.begin(open, finalize, "", fallback, false)
	return nil
}
