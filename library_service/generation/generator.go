package generation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"pustaka/types"
)

// Generator runs brief generations and syntheses, emitting wire frames.
type Generator struct {
	embeddings EmbeddingsProvider

	// newProvider is swapped in tests.
	newProvider func(apiKey, baseURL string) ChatStreamer
}

// NewGenerator creates a generator. embeddings may be nil; diversity
// analysis then uses the lexical fallback.
func NewGenerator(embeddings EmbeddingsProvider) *Generator {
	return &Generator{
		embeddings: embeddings,
		newProvider: func(apiKey, baseURL string) ChatStreamer {
			return NewOpenRouterProvider(apiKey, baseURL)
		},
	}
}

// Generate streams one brief. Frames go to emit in order; an emit error
// (client gone) stops the run quietly, a provider error produces a terminal
// error frame.
func (g *Generator) Generate(ctx context.Context, req types.GenerationRequest, emit Emitter) {
	if len(req.Metadata) == 0 {
		_ = emit(errorFrame("metadata with at least one verified source is required"))
		return
	}
	if req.APIKey == "" {
		_ = emit(errorFrame("API key is required"))
		return
	}

	provider := g.newProvider(req.APIKey, req.BaseURL)
	start := time.Now()

	if err := emit(statusFrame("Building prompt")); err != nil {
		return
	}
	if err := emit(progressFrame(5)); err != nil {
		return
	}

	drafts := req.DraftCount
	if drafts < 1 {
		drafts = 1
	}
	if req.PartialContent != "" {
		// A resume continues the existing text in a single pass; drafting
		// from scratch would repeat everything before the seam.
		drafts = 1
	}

	var usage types.TokenUsage
	var err error
	enhanced := false

	if drafts > 1 && req.SelfCorrect {
		_, usage, err = g.multiDraft(ctx, provider, req, drafts, emit)
		enhanced = err == nil
	} else {
		prompt := buildSummaryPrompt(req.Metadata, req.PartialContent)
		if e := emit(statusFrame("Generating brief")); e != nil {
			return
		}
		_, usage, err = g.streamTo(ctx, provider, req.Model, prompt, emit)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || emitGone(err) {
			return
		}
		_ = emit(errorFrame(err.Error()))
		return
	}

	_ = emit(progressFrame(100))
	_ = emit(Frame{
		Done:            true,
		Model:           req.Model,
		Provider:        req.Provider,
		Usage:           &usage,
		CostEstimate:    costPtr(EstimateCost(req.Model, usage)),
		DurationSeconds: roundSeconds(time.Since(start)),
		IsEnhanced:      enhanced,
		DraftCount:      drafts,
	})
}

// multiDraft generates several silent drafts and streams only the merged
// self-correction pass to the client.
func (g *Generator) multiDraft(ctx context.Context, provider ChatStreamer, req types.GenerationRequest, count int, emit Emitter) (string, types.TokenUsage, error) {
	var total types.TokenUsage
	drafts := make([]string, 0, count)

	for i := 0; i < count; i++ {
		if err := emit(statusFrame(fmt.Sprintf("Drafting %d/%d", i+1, count))); err != nil {
			return "", total, errEmitGone
		}
		if err := emit(progressFrame(5 + (i*60)/count)); err != nil {
			return "", total, errEmitGone
		}
		prompt := buildSummaryPrompt(req.Metadata, "")
		draft, usage, err := collect(ctx, provider, req.Model, prompt)
		if err != nil {
			return "", total, err
		}
		addUsage(&total, usage)
		drafts = append(drafts, draft)
	}

	if err := emit(statusFrame("Merging drafts")); err != nil {
		return "", total, errEmitGone
	}
	if err := emit(progressFrame(70)); err != nil {
		return "", total, errEmitGone
	}

	merged, usage, err := g.streamTo(ctx, provider, req.Model, buildSelfCorrectPrompt(req.Metadata, drafts), emit)
	addUsage(&total, usage)
	return merged, total, err
}

// Synthesize streams a merge of previously saved variants, with a
// diversity analysis of the sources attached to the terminal frame.
func (g *Generator) Synthesize(ctx context.Context, req types.SynthesisRequest, variants []types.SummaryVariant, emit Emitter) {
	if len(variants) < 2 {
		_ = emit(errorFrame("synthesis requires at least 2 variants"))
		return
	}
	if req.APIKey == "" {
		_ = emit(errorFrame("API key is required"))
		return
	}

	provider := g.newProvider(req.APIKey, req.BaseURL)
	start := time.Now()

	if err := emit(statusFrame("Analyzing source briefs")); err != nil {
		return
	}
	if err := emit(progressFrame(5)); err != nil {
		return
	}

	texts := make([]string, len(variants))
	models := make([]string, len(variants))
	for i, v := range variants {
		texts[i] = v.SummaryContent
		models[i] = v.Model
	}
	diversity := AnalyzeDiversity(texts, g.embeddings)

	if err := emit(statusFrame("Synthesizing")); err != nil {
		return
	}
	_, usage, err := g.streamTo(ctx, provider, req.Model, buildSynthesisPrompt(variants), emit)
	if err != nil {
		if errors.Is(err, context.Canceled) || emitGone(err) {
			return
		}
		_ = emit(errorFrame(err.Error()))
		return
	}

	_ = emit(progressFrame(100))
	_ = emit(Frame{
		Done:              true,
		Model:             req.Model,
		Provider:          req.Provider,
		Usage:             &usage,
		CostEstimate:      costPtr(EstimateCost(req.Model, usage)),
		DurationSeconds:   roundSeconds(time.Since(start)),
		IsSynthesis:       true,
		SourceDraftCount:  len(variants),
		SourceModels:      models,
		DiversityAnalysis: diversity,
		SynthesisMetadata: &types.SynthesisMetadata{
			SourceCount:  len(variants),
			SourceModels: models,
		},
	})
}

// errEmitGone marks a disconnected client; nothing more can be sent.
var errEmitGone = errors.New("client disconnected")

func emitGone(err error) bool { return errors.Is(err, errEmitGone) }

// streamTo relays provider deltas as content frames and returns the full
// text.
func (g *Generator) streamTo(ctx context.Context, provider ChatStreamer, model, prompt string, emit Emitter) (string, types.TokenUsage, error) {
	var content string
	usage, err := provider.StreamChat(ctx, model, prompt, func(delta string) error {
		content += delta
		if err := emit(contentFrame(delta)); err != nil {
			return errEmitGone
		}
		return nil
	})
	return content, usage, err
}

// collect runs a non-relayed completion, used for silent drafts.
func collect(ctx context.Context, provider ChatStreamer, model, prompt string) (string, types.TokenUsage, error) {
	var content string
	usage, err := provider.StreamChat(ctx, model, prompt, func(delta string) error {
		content += delta
		return nil
	})
	return content, usage, err
}

func addUsage(total *types.TokenUsage, u types.TokenUsage) {
	total.PromptTokens += u.PromptTokens
	total.CompletionTokens += u.CompletionTokens
	total.TotalTokens += u.TotalTokens
}

func costPtr(c types.CostEstimate) *types.CostEstimate { return &c }

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
