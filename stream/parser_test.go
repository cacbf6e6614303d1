package stream

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"
)

func collect(p *Parser, chunks ...string) []Event {
	var events []Event
	for _, c := range chunks {
		events = append(events, p.Feed([]byte(c))...)
	}
	events = append(events, p.Finish()...)
	return events
}

func TestFeedSingleFrameFields(t *testing.T) {
	p := NewParser()
	events := collect(p, "data: {\"status\": \"drafting\", \"progress\": 40, \"content\": \"Hello\"}\n")

	want := []Event{
		StatusUpdate{Text: "drafting"},
		ProgressUpdate{Percent: 40},
		ContentDelta{Text: "Hello"},
	}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("events = %#v, want %#v", events, want)
	}
}

func TestChunkBoundariesDoNotAffectOutput(t *testing.T) {
	raw := "data: {\"status\": \"verifying sources\"}\n" +
		"\n" +
		"data: {\"content\": \"The first\"}\n" +
		"data: {\"content\": \" and second\"}\n" +
		"data: {\"progress\": 100}\n" +
		"data: {\"done\": true, \"model\": \"gpt-x\", \"usage\": {\"prompt_tokens\": 10, \"completion_tokens\": 20, \"total_tokens\": 30}}\n"

	whole := collect(NewParser(), raw)

	// Byte-at-a-time.
	p := NewParser()
	var chunks []string
	for i := 0; i < len(raw); i++ {
		chunks = append(chunks, raw[i:i+1])
	}
	if got := collect(p, chunks...); !reflect.DeepEqual(got, whole) {
		t.Fatalf("byte-at-a-time events differ:\n got %#v\nwant %#v", got, whole)
	}

	// Random splits, seeded for reproducibility.
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		var parts []string
		rest := raw
		for len(rest) > 0 {
			n := 1 + rng.Intn(len(rest))
			parts = append(parts, rest[:n])
			rest = rest[n:]
		}
		if got := collect(NewParser(), parts...); !reflect.DeepEqual(got, whole) {
			t.Fatalf("trial %d: split %q changed output", trial, parts)
		}
	}
}

func TestMalformedFrameIsSkipped(t *testing.T) {
	p := NewParser()
	events := collect(p,
		"data: {\"content\": \"before\"}\n",
		"data: {not valid json\n",
		"data: {\"content\": \"after\"}\n",
	)

	want := []Event{
		ContentDelta{Text: "before"},
		ContentDelta{Text: "after"},
	}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("events = %#v, want %#v", events, want)
	}
}

func TestNonDataLinesIgnored(t *testing.T) {
	p := NewParser()
	events := collect(p, ": keep-alive\n\nevent: message\ndata: {\"content\": \"x\"}\n")
	want := []Event{ContentDelta{Text: "x"}}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("events = %#v, want %#v", events, want)
	}
}

func TestErrorFrameTerminatesStream(t *testing.T) {
	p := NewParser()
	events := collect(p,
		"data: {\"error\": \"model overloaded\"}\n",
		"data: {\"content\": \"never delivered\"}\n",
	)

	want := []Event{ErrorFrame{Message: "model overloaded"}}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("events = %#v, want %#v", events, want)
	}
	if !p.Terminal() {
		t.Fatal("parser should be terminal after an error frame")
	}
}

func TestErrorTakesPriorityWithinFrame(t *testing.T) {
	p := NewParser()
	events := collect(p, "data: {\"content\": \"partial\", \"error\": \"boom\"}\n")
	want := []Event{ErrorFrame{Message: "boom"}}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("events = %#v, want %#v", events, want)
	}
}

func TestDoneFrameNormalizesStats(t *testing.T) {
	p := NewParser()
	events := collect(p, "data: {\"done\": true}\n")

	if len(events) != 1 {
		t.Fatalf("expected one event, got %#v", events)
	}
	done, ok := events[0].(Completed)
	if !ok {
		t.Fatalf("expected Completed, got %#v", events[0])
	}
	if done.Stats.Tokens.TotalTokens != 0 {
		t.Errorf("tokens should default to zero, got %d", done.Stats.Tokens.TotalTokens)
	}
	if !done.Stats.CostEstimate.IsFree {
		t.Error("cost should default to free")
	}
	if done.Diversity != nil {
		t.Error("diversity must not appear on a plain completion")
	}
}

func TestDoneFrameCopiesCompletionFields(t *testing.T) {
	line := "data: {\"done\": true, \"model\": \"m\", \"provider\": \"OpenRouter\", " +
		"\"usage\": {\"total_tokens\": 812}, \"duration_seconds\": 3.5, " +
		"\"is_enhanced\": true, \"is_synthesis\": true, \"source_draft_count\": 2, " +
		"\"source_models\": [\"a\", \"b\"], " +
		"\"diversity_analysis\": {\"diversity_score\": 0.42, \"interpretation\": \"moderate\"}}\n"

	events := collect(NewParser(), line)
	if len(events) != 1 {
		t.Fatalf("expected one event, got %#v", events)
	}
	done := events[0].(Completed)
	if done.Stats.Tokens.TotalTokens != 812 {
		t.Errorf("total tokens = %d, want 812", done.Stats.Tokens.TotalTokens)
	}
	if !done.Stats.IsSynthesis || !done.Stats.IsEnhanced {
		t.Error("flags not copied through")
	}
	if done.Stats.SourceCount != 2 || len(done.Stats.SourceModels) != 2 {
		t.Errorf("source metadata not copied: %+v", done.Stats)
	}
	if done.Diversity == nil || done.Diversity.DiversityScore != 0.42 {
		t.Errorf("diversity not extracted: %+v", done.Diversity)
	}
}

func TestFinishFlushesUnterminatedLine(t *testing.T) {
	p := NewParser()
	events := p.Feed([]byte("data: {\"content\": \"tail\"}"))
	if len(events) != 0 {
		t.Fatalf("unterminated line must not emit yet: %#v", events)
	}
	events = p.Finish()
	want := []Event{ContentDelta{Text: "tail"}}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("Finish = %#v, want %#v", events, want)
	}
	if !p.Terminal() {
		t.Fatal("parser should be terminal after Finish")
	}
}

func TestEndToEndScenario(t *testing.T) {
	// 40 content frames, a progress frame, then an explicit done.
	p := NewParser()
	var events []Event
	events = append(events, p.Feed([]byte("data: {\"status\": \"drafting\"}\n"))...)
	wantContent := ""
	for i := 0; i < 40; i++ {
		delta := fmt.Sprintf("chunk-%d ", i)
		wantContent += delta
		line := fmt.Sprintf("data: {\"content\": %q}\n", delta)
		events = append(events, p.Feed([]byte(line))...)
	}
	events = append(events, p.Feed([]byte("data: {\"progress\": 100}\n"))...)
	events = append(events, p.Feed([]byte("data: {\"done\": true, \"usage\": {\"total_tokens\": 812}}\n"))...)

	var content string
	var total int
	for _, ev := range events {
		switch e := ev.(type) {
		case ContentDelta:
			content += e.Text
		case Completed:
			total = e.Stats.Tokens.TotalTokens
		}
	}
	if content != wantContent {
		t.Errorf("accumulated content mismatch")
	}
	if total != 812 {
		t.Errorf("total tokens = %d, want 812", total)
	}
}
