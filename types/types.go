package types

import "strings"

// Book is one entry in the saved library: identity metadata plus every
// brief variant generated for it. Owned by the library service; clients
// treat it as read-mostly and mutate only through explicit save/delete calls.
type Book struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Author        string           `json:"author"`
	ISBN          string           `json:"isbn,omitempty"`
	Genre         string           `json:"genre,omitempty"`
	PublishedDate string           `json:"published_date,omitempty"`
	ImageURL      string           `json:"image_url,omitempty"`
	CreatedAt     string           `json:"created_at,omitempty"`
	LastUpdated   string           `json:"last_updated"`
	Variants      []SummaryVariant `json:"summaries"`
}

// SummaryVariant is one generated brief. Created exactly once per successful
// generation and immutable afterwards except for attached notes.
type SummaryVariant struct {
	ID             string            `json:"id"`
	Model          string            `json:"model"`
	Provider       string            `json:"provider"`
	SummaryContent string            `json:"summary_content"`
	UsageStats     UsageStats        `json:"usage_stats"`
	Notes          []Note            `json:"notes"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Timestamp      string            `json:"timestamp,omitempty"`
}

// Note is a user annotation attached to a variant.
type Note struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Section   string `json:"section,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// TokenUsage mirrors the provider token accounting.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CostEstimate is the (best effort) price of a generation.
type CostEstimate struct {
	TotalUSD float64 `json:"total_usd"`
	Currency string  `json:"currency"`
	IsFree   bool    `json:"is_free"`
}

// UsageStats records what produced a variant and what it cost.
type UsageStats struct {
	Model           string       `json:"model"`
	Provider        string       `json:"provider"`
	Tokens          TokenUsage   `json:"tokens"`
	CostEstimate    CostEstimate `json:"cost_estimate"`
	DurationSeconds float64      `json:"duration_seconds"`
	IsEnhanced      bool         `json:"is_enhanced,omitempty"`
	IsSynthesis     bool         `json:"is_synthesis,omitempty"`
	DraftCount      int          `json:"draft_count,omitempty"`
	SourceCount     int          `json:"source_count,omitempty"`
	SourceModels    []string     `json:"source_models,omitempty"`
}

// VerificationStatus classifies a verification outcome.
type VerificationStatus string

const (
	VerificationSuccess VerificationStatus = "success"
	VerificationWarning VerificationStatus = "warning"
	VerificationFailure VerificationStatus = "failure"
)

// Source is one external catalog hit for a verified book.
type Source struct {
	SourceName    string `json:"source"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	ISBN          string `json:"isbn,omitempty"`
	Genre         string `json:"genre,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
	Description   string `json:"description,omitempty"`
}

// VerificationResult is the outcome of a book identity check.
type VerificationResult struct {
	IsValid bool               `json:"is_valid"`
	Status  VerificationStatus `json:"status"`
	Message string             `json:"message"`
	Sources []Source           `json:"sources"`
}

// GenerationRequest carries every parameter of one brief generation attempt.
// All configuration travels here explicitly; the session reads no ambient state.
type GenerationRequest struct {
	Metadata       []Source `json:"metadata"`
	Provider       string   `json:"provider"`
	Model          string   `json:"model"`
	APIKey         string   `json:"api_key,omitempty"`
	BaseURL        string   `json:"base_url,omitempty"`
	PartialContent string   `json:"partial_content,omitempty"`
	DraftCount     int      `json:"draft_count,omitempty"`
	SelfCorrect    bool     `json:"self_correct,omitempty"`
	Enrich         bool     `json:"enrich,omitempty"`
}

// SynthesisRequest asks the service to merge previously generated variants
// into one new brief.
type SynthesisRequest struct {
	VariantIDs []string `json:"variant_ids"`
	Provider   string   `json:"provider"`
	Model      string   `json:"model"`
	APIKey     string   `json:"api_key,omitempty"`
	BaseURL    string   `json:"base_url,omitempty"`
}

// DiversityAnalysis describes how different the source variants of a
// synthesis were. Attached to synthesis results only.
type DiversityAnalysis struct {
	DiversityScore        float64  `json:"diversity_score"`
	Interpretation        string   `json:"interpretation"`
	MostDifferentSections []string `json:"most_different_sections,omitempty"`
}

// SynthesisMetadata is transparency data recorded alongside a synthesis.
type SynthesisMetadata struct {
	SourceCount  int      `json:"source_count"`
	SourceModels []string `json:"source_models"`
}

// NormalizeISBN strips hyphens and whitespace so ISBN-10/13 spellings of the
// same number compare equal.
func NormalizeISBN(isbn string) string {
	isbn = strings.TrimSpace(isbn)
	isbn = strings.ReplaceAll(isbn, "-", "")
	return isbn
}

// PrimarySource returns the first verified source, which carries the
// canonical title/author for a generation.
func (v VerificationResult) PrimarySource() (Source, bool) {
	if len(v.Sources) == 0 {
		return Source{}, false
	}
	return v.Sources[0], true
}
