package generation

import (
	"fmt"
	"strings"

	"pustaka/types"
)

// buildSummaryPrompt assembles the brief prompt from the verified sources.
// The first source carries the canonical identity; the first non-empty
// description supplies context.
func buildSummaryPrompt(sources []types.Source, partial string) string {
	primary := sources[0]
	description := ""
	for _, src := range sources {
		if src.Description != "" {
			description = src.Description
			break
		}
	}

	var b strings.Builder
	b.WriteString("You are a literary analyst who writes dense, specific book briefs.\n\n")
	fmt.Fprintf(&b, "BOOK\nTitle: %s\nAuthor: %s\n", primary.Title, primary.Author)
	if primary.PublishedDate != "" {
		fmt.Fprintf(&b, "Published: %s\n", primary.PublishedDate)
	}
	if description != "" {
		fmt.Fprintf(&b, "Publisher description: %s\n", description)
	}
	b.WriteString(`
Write a structured brief of this book with the following sections:

1. Metadata (title, author, year, genre)
2. Executive summary: 3-4 information-dense paragraphs. Every sentence
   must carry a specific concept or fact from the book; no marketing
   language.
3. Key arguments, each with supporting specifics
4. Chapter/topic structure reconstruction
5. Glossary: 5-7 technical terms with definitions as used in the book
6. The book's core logic: problem, methodology, conclusion
7. Actionable insights, concrete rather than philosophical
8. One iconic quotation with analysis
9. TL;DR: one paragraph, at most 150 words

Rules: be specific, not general. If a sentence can be removed without
losing information, remove it. Do not repeat these instructions.
`)

	if partial != "" {
		b.WriteString("\nThe brief below was cut off. Continue it exactly where it stops,")
		b.WriteString(" without repeating any earlier text:\n\n")
		b.WriteString(partial)
	}
	return b.String()
}

// buildSelfCorrectPrompt asks the model to merge its drafts into one
// improved brief.
func buildSelfCorrectPrompt(sources []types.Source, drafts []string) string {
	primary := sources[0]
	var b strings.Builder
	fmt.Fprintf(&b, "Below are %d independent draft briefs of %q by %s.\n",
		len(drafts), primary.Title, primary.Author)
	b.WriteString("Merge them into a single brief that keeps every specific fact,")
	b.WriteString(" resolves contradictions in favor of the majority, and preserves")
	b.WriteString(" the numbered section structure of the drafts.\n")
	for i, draft := range drafts {
		fmt.Fprintf(&b, "\n--- DRAFT %d ---\n%s\n", i+1, draft)
	}
	return b.String()
}

// buildSynthesisPrompt merges previously saved brief variants.
func buildSynthesisPrompt(variants []types.SummaryVariant) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Below are %d briefs of the same book, written by different models.\n", len(variants))
	b.WriteString("Synthesize them into one definitive brief: keep every specific fact")
	b.WriteString(" any variant contributes, drop repetition, and note real disagreements")
	b.WriteString(" between the variants explicitly. Preserve the numbered section structure.\n")
	for i, v := range variants {
		fmt.Fprintf(&b, "\n--- BRIEF %d (model: %s) ---\n%s\n", i+1, v.Model, v.SummaryContent)
	}
	return b.String()
}
