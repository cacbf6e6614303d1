// Package stream decodes the line-delimited event frames produced by the
// library service's generation endpoints. The response body is UTF-8 text
// arriving in arbitrary chunks; only lines of the form "data: <json>" carry
// payload. Chunk boundaries never affect the parsed output: a logical frame
// split across chunks is reassembled before decoding.
package stream

import (
	"encoding/json"
	"log"
	"strings"

	"pustaka/types"
)

// frame is the JSON shape of a single data line. Pointer fields distinguish
// "absent" from zero values; a single frame may carry several of them.
type frame struct {
	Error    *string `json:"error"`
	Status   *string `json:"status"`
	Progress *int    `json:"progress"`
	Content  *string `json:"content"`
	Done     bool    `json:"done"`

	// Completion-only fields.
	Model             string                   `json:"model"`
	Provider          string                   `json:"provider"`
	Usage             *types.TokenUsage        `json:"usage"`
	CostEstimate      *types.CostEstimate      `json:"cost_estimate"`
	DurationSeconds   float64                  `json:"duration_seconds"`
	IsEnhanced        bool                     `json:"is_enhanced"`
	IsSynthesis       bool                     `json:"is_synthesis"`
	DraftCount        int                      `json:"draft_count"`
	SourceDraftCount  int                      `json:"source_draft_count"`
	SourceModels      []string                 `json:"source_models"`
	DiversityAnalysis *types.DiversityAnalysis `json:"diversity_analysis"`
	SynthesisMetadata *types.SynthesisMetadata `json:"synthesis_metadata"`
}

// Parser is the incremental frame decoder. Feed it chunks as they arrive
// and call Finish at end of stream to flush an unterminated final line.
// Zero value is not usable; call NewParser.
type Parser struct {
	remainder string
	terminal  bool
}

// NewParser returns a decoder positioned at the start of a stream.
func NewParser() *Parser {
	return &Parser{}
}

// Terminal reports whether a terminal frame (done or error) has been seen.
// Once terminal, the parser emits nothing further.
func (p *Parser) Terminal() bool {
	return p.terminal
}

// Feed consumes the next chunk and returns every event completed by it, in
// frame order. The trailing line fragment, if any, is held until the next
// chunk supplies its newline.
func (p *Parser) Feed(chunk []byte) []Event {
	if p.terminal {
		return nil
	}
	text := p.remainder + string(chunk)
	lines := strings.Split(text, "\n")
	p.remainder = lines[len(lines)-1]

	var events []Event
	for _, line := range lines[:len(lines)-1] {
		events = append(events, p.parseLine(line)...)
		if p.terminal {
			break
		}
	}
	return events
}

// Finish flushes the pending unterminated line at end of stream. After
// Finish the parser is terminal regardless of what the line contained:
// end-of-stream with no explicit done frame is still the end of the session.
func (p *Parser) Finish() []Event {
	if p.terminal {
		p.remainder = ""
		return nil
	}
	line := p.remainder
	p.remainder = ""
	events := p.parseLine(line)
	p.terminal = true
	return events
}

// parseLine decodes one complete line. Lines without the data prefix are
// ignored (blank keep-alives, comments). A malformed JSON payload is logged
// and skipped: one bad frame must not end the session.
func (p *Parser) parseLine(line string) []Event {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "data:") {
		return nil
	}
	payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	if payload == "" {
		return nil
	}

	var f frame
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		log.Printf("stream: skipping malformed frame: %v", err)
		return nil
	}
	return p.frameEvents(f)
}

// frameEvents expands one decoded frame into events, honoring the handling
// priority: error, status, progress, content, done.
func (p *Parser) frameEvents(f frame) []Event {
	if f.Error != nil {
		p.terminal = true
		return []Event{ErrorFrame{Message: *f.Error}}
	}

	var events []Event
	if f.Status != nil {
		events = append(events, StatusUpdate{Text: *f.Status})
	}
	if f.Progress != nil {
		events = append(events, ProgressUpdate{Percent: *f.Progress})
	}
	if f.Content != nil {
		events = append(events, ContentDelta{Text: *f.Content})
	}
	if f.Done {
		p.terminal = true
		events = append(events, Completed{
			Stats:     normalizeStats(f),
			Diversity: f.DiversityAnalysis,
			Synthesis: f.SynthesisMetadata,
		})
	}
	return events
}

// normalizeStats builds UsageStats from whatever the terminal frame
// supplied: token counts default to zero and cost to free.
func normalizeStats(f frame) types.UsageStats {
	stats := types.UsageStats{
		Model:           f.Model,
		Provider:        f.Provider,
		CostEstimate:    types.CostEstimate{Currency: "USD", IsFree: true},
		DurationSeconds: f.DurationSeconds,
		IsEnhanced:      f.IsEnhanced,
		IsSynthesis:     f.IsSynthesis,
		DraftCount:      f.DraftCount,
		SourceCount:     f.SourceDraftCount,
		SourceModels:    f.SourceModels,
	}
	if f.Usage != nil {
		stats.Tokens = *f.Usage
	}
	if f.CostEstimate != nil {
		stats.CostEstimate = *f.CostEstimate
	}
	return stats
}
