package client

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"pustaka/types"
)

// BookHint is the user's partial identification of a book.
type BookHint struct {
	ISBN   string `json:"isbn,omitempty"`
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
}

// SaveRequest persists a finished brief into the archive.
type SaveRequest struct {
	Title          string            `json:"title"`
	Author         string            `json:"author"`
	SummaryContent string            `json:"summary_content"`
	UsageStats     types.UsageStats  `json:"usage_stats"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// CoverResult is one candidate cover image from a loose search.
type CoverResult struct {
	URL    string `json:"url"`
	Source string `json:"source"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// MetadataUpdate edits a book's identity fields.
type MetadataUpdate struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
	Genre  string `json:"genre,omitempty"`
}

// Verify checks a book's identity against the service's catalog sources.
func (c *Library) Verify(ctx context.Context, hint BookHint) (types.VerificationResult, error) {
	var result types.VerificationResult
	err := c.doJSONRequest(ctx, "POST", "/api/verify", hint, &result)
	return result, err
}

// SearchCovers looks up candidate cover images for a free-text query.
func (c *Library) SearchCovers(ctx context.Context, query string) ([]CoverResult, error) {
	var results []CoverResult
	path := "/api/covers/search?query=" + url.QueryEscape(query)
	err := c.doJSONRequest(ctx, "GET", path, nil, &results)
	return results, err
}

// Saved lists the whole archive, books with their variants.
func (c *Library) Saved(ctx context.Context) ([]types.Book, error) {
	var books []types.Book
	err := c.doJSONRequest(ctx, "GET", "/api/saved", nil, &books)
	return books, err
}

// Save persists a new brief and returns the created variant.
func (c *Library) Save(ctx context.Context, req SaveRequest) (types.SummaryVariant, error) {
	var variant types.SummaryVariant
	err := c.doJSONRequest(ctx, "POST", "/api/save", req, &variant)
	return variant, err
}

// DeleteVariant removes one brief variant.
func (c *Library) DeleteVariant(ctx context.Context, variantID string) error {
	return c.doJSONRequest(ctx, "DELETE", "/api/saved/"+variantID, nil, nil)
}

// DeleteBook removes a book and all its variants.
func (c *Library) DeleteBook(ctx context.Context, bookID string) error {
	return c.doJSONRequest(ctx, "DELETE", "/api/books/"+bookID, nil, nil)
}

// UpdateCover points a book at a new cover image and returns the stored path.
func (c *Library) UpdateCover(ctx context.Context, bookID, imageURL string) (string, error) {
	payload := map[string]string{"image_url": imageURL}
	var result struct {
		Success  bool   `json:"success"`
		ImageURL string `json:"image_url"`
	}
	if err := c.doJSONRequest(ctx, "PUT", "/api/books/"+bookID+"/cover", payload, &result); err != nil {
		return "", err
	}
	return result.ImageURL, nil
}

// UpdateMetadata edits a book's identity fields and returns the updated book.
func (c *Library) UpdateMetadata(ctx context.Context, bookID string, update MetadataUpdate) (types.Book, error) {
	var book types.Book
	err := c.doJSONRequest(ctx, "PUT", "/api/books/"+bookID+"/metadata", update, &book)
	return book, err
}

// AddNote attaches an annotation to a variant.
func (c *Library) AddNote(ctx context.Context, variantID string, note types.Note) (types.Note, error) {
	var created types.Note
	err := c.doJSONRequest(ctx, "POST", "/api/saved/"+variantID+"/notes", note, &created)
	return created, err
}

// UpdateNote edits an existing annotation.
func (c *Library) UpdateNote(ctx context.Context, variantID string, note types.Note) (types.Note, error) {
	if note.ID == "" {
		return types.Note{}, fmt.Errorf("note id is required")
	}
	var updated types.Note
	err := c.doJSONRequest(ctx, "PUT", "/api/saved/"+variantID+"/notes/"+note.ID, note, &updated)
	return updated, err
}

// DeleteNote removes an annotation.
func (c *Library) DeleteNote(ctx context.Context, variantID, noteID string) error {
	return c.doJSONRequest(ctx, "DELETE", "/api/saved/"+variantID+"/notes/"+noteID, nil, nil)
}

// Models validates an API key against the provider and lists model ids.
func (c *Library) Models(ctx context.Context, apiKey string) ([]string, error) {
	payload := map[string]string{"api_key": apiKey}
	var result struct {
		Valid  bool     `json:"valid"`
		Models []string `json:"models"`
	}
	if err := c.doJSONRequest(ctx, "POST", "/api/models", payload, &result); err != nil {
		return nil, err
	}
	return result.Models, nil
}

// OpenSummaryStream starts a brief generation and returns the frame stream.
func (c *Library) OpenSummaryStream(ctx context.Context, req types.GenerationRequest) (io.ReadCloser, error) {
	return c.openStream(ctx, "/api/summarize/stream", req)
}

// OpenSynthesisStream starts a merge of archived variants and returns the
// frame stream.
func (c *Library) OpenSynthesisStream(ctx context.Context, req types.SynthesisRequest) (io.ReadCloser, error) {
	return c.openStream(ctx, "/api/synthesize/stream", req)
}
