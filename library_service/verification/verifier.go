package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pustaka/types"
)

const (
	defaultGoogleBooksURL = "https://www.googleapis.com/books/v1/volumes"
	defaultOpenLibraryURL = "https://openlibrary.org/search.json"
)

// Archive is the part of the storage layer the verifier consults: a book
// already saved in the library counts as verified.
type Archive interface {
	All() ([]types.Book, error)
}

// Verifier checks book identities against the saved library, the redis
// cache, then Google Books and OpenLibrary.
type Verifier struct {
	archive Archive
	cache   *Cache
	client  *http.Client

	googleBooksURL string
	openLibraryURL string
}

// NewVerifier creates a verifier. cache may be nil.
func NewVerifier(archive Archive, cache *Cache) *Verifier {
	return &Verifier{
		archive:        archive,
		cache:          cache,
		client:         &http.Client{Timeout: 15 * time.Second},
		googleBooksURL: defaultGoogleBooksURL,
		openLibraryURL: defaultOpenLibraryURL,
	}
}

// Verify resolves the identity hints into a verification result. Two or
// more external sources agree: success. One: warning. None: failure.
func (v *Verifier) Verify(ctx context.Context, isbn, title, author string) types.VerificationResult {
	// 1. Already in the library.
	if v.archive != nil {
		if src := v.checkLibrary(isbn, title, author); src != nil {
			return types.VerificationResult{
				IsValid: true,
				Status:  types.VerificationSuccess,
				Message: "Verified: found in your library",
				Sources: []types.Source{*src},
			}
		}
	}

	// 2. A previous session already verified this book.
	if src := v.cache.Get(ctx, isbn, title, author); src != nil {
		cached := *src
		cached.SourceName = cached.SourceName + " (Cached)"
		return types.VerificationResult{
			IsValid: true,
			Status:  types.VerificationSuccess,
			Message: "Verified: found in cache",
			Sources: []types.Source{cached},
		}
	}

	// 3. External catalogs.
	var sources []types.Source
	if src := v.checkGoogleBooks(ctx, isbn, title, author); src != nil {
		sources = append(sources, *src)
	}
	if src := v.checkOpenLibrary(ctx, isbn, title, author); src != nil {
		sources = append(sources, *src)
	}

	switch {
	case len(sources) >= 2:
		v.cache.Put(ctx, isbn, title, author, sources[0])
		return types.VerificationResult{
			IsValid: true,
			Status:  types.VerificationSuccess,
			Message: fmt.Sprintf("Verified by %d sources", len(sources)),
			Sources: sources,
		}
	case len(sources) == 1:
		// Partial hits are cached too so the next lookup is fast.
		v.cache.Put(ctx, isbn, title, author, sources[0])
		return types.VerificationResult{
			IsValid: false,
			Status:  types.VerificationWarning,
			Message: "Partial verification: only one source found",
			Sources: sources,
		}
	default:
		return types.VerificationResult{
			IsValid: false,
			Status:  types.VerificationFailure,
			Message: "Not found in any catalog",
			Sources: []types.Source{},
		}
	}
}

// checkLibrary matches the hints against saved books, ISBN first.
func (v *Verifier) checkLibrary(isbn, title, author string) *types.Source {
	books, err := v.archive.All()
	if err != nil {
		log.Printf("library check failed: %v", err)
		return nil
	}
	normISBN := types.NormalizeISBN(isbn)
	for _, b := range books {
		match := false
		if normISBN != "" && b.ISBN != "" {
			match = normISBN == types.NormalizeISBN(b.ISBN)
		} else if title != "" && author != "" {
			match = strings.EqualFold(b.Title, strings.TrimSpace(title)) &&
				strings.EqualFold(b.Author, strings.TrimSpace(author))
		}
		if match {
			return &types.Source{
				SourceName:  "Pustaka (Saved)",
				Title:       b.Title,
				Author:      b.Author,
				ISBN:        b.ISBN,
				ImageURL:    b.ImageURL,
				Description: "This book is already in your library.",
			}
		}
	}
	return nil
}

type googleVolumeInfo struct {
	Title               string   `json:"title"`
	Authors             []string `json:"authors"`
	PublishedDate       string   `json:"publishedDate"`
	Description         string   `json:"description"`
	IndustryIdentifiers []struct {
		Type       string `json:"type"`
		Identifier string `json:"identifier"`
	} `json:"industryIdentifiers"`
	ImageLinks struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"imageLinks"`
}

type googleBooksResponse struct {
	Items []struct {
		VolumeInfo googleVolumeInfo `json:"volumeInfo"`
	} `json:"items"`
}

// checkGoogleBooks queries the Google Books volumes API.
func (v *Verifier) checkGoogleBooks(ctx context.Context, isbn, title, author string) *types.Source {
	var queryParts []string
	if isbn != "" {
		queryParts = append(queryParts, "isbn:"+isbn)
	}
	if title != "" {
		queryParts = append(queryParts, "intitle:"+title)
	}
	if author != "" {
		queryParts = append(queryParts, "inauthor:"+author)
	}
	if len(queryParts) == 0 {
		return nil
	}

	params := url.Values{}
	params.Set("q", strings.Join(queryParts, "+"))
	params.Set("maxResults", "1")

	var parsed googleBooksResponse
	if err := v.getJSON(ctx, v.googleBooksURL+"?"+params.Encode(), &parsed); err != nil {
		log.Printf("Google Books check failed: %v", err)
		return nil
	}
	if len(parsed.Items) == 0 {
		return nil
	}

	info := parsed.Items[0].VolumeInfo
	foundISBN := ""
	for _, ident := range info.IndustryIdentifiers {
		if ident.Type == "ISBN_13" || ident.Type == "ISBN_10" {
			foundISBN = ident.Identifier
			break
		}
	}
	return &types.Source{
		SourceName:    "Google Books",
		Title:         info.Title,
		Author:        strings.Join(info.Authors, ", "),
		ISBN:          foundISBN,
		PublishedDate: info.PublishedDate,
		Description:   info.Description,
		ImageURL:      strings.Replace(info.ImageLinks.Thumbnail, "http://", "https://", 1),
	}
}

type openLibraryResponse struct {
	Docs []struct {
		Title            string   `json:"title"`
		AuthorName       []string `json:"author_name"`
		ISBN             []string `json:"isbn"`
		FirstPublishYear int      `json:"first_publish_year"`
		CoverID          int      `json:"cover_i"`
	} `json:"docs"`
}

// checkOpenLibrary queries the OpenLibrary search API.
func (v *Verifier) checkOpenLibrary(ctx context.Context, isbn, title, author string) *types.Source {
	params := url.Values{}
	if isbn != "" {
		params.Set("isbn", isbn)
	}
	if title != "" {
		params.Set("title", title)
	}
	if author != "" {
		params.Set("author", author)
	}
	if len(params) == 0 {
		return nil
	}

	var parsed openLibraryResponse
	if err := v.getJSON(ctx, v.openLibraryURL+"?"+params.Encode(), &parsed); err != nil {
		log.Printf("OpenLibrary check failed: %v", err)
		return nil
	}
	if len(parsed.Docs) == 0 {
		return nil
	}

	doc := parsed.Docs[0]
	foundISBN := ""
	if len(doc.ISBN) > 0 {
		foundISBN = doc.ISBN[0]
	}
	publishedDate := ""
	if doc.FirstPublishYear > 0 {
		publishedDate = fmt.Sprintf("%d", doc.FirstPublishYear)
	}
	imageURL := ""
	if doc.CoverID > 0 {
		imageURL = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-L.jpg", doc.CoverID)
	}
	return &types.Source{
		SourceName:    "OpenLibrary",
		Title:         doc.Title,
		Author:        strings.Join(doc.AuthorName, ", "),
		ISBN:          foundISBN,
		PublishedDate: publishedDate,
		ImageURL:      imageURL,
	}
}

// SearchCovers looks up candidate cover images from both catalogs for a
// free-text query.
func (v *Verifier) SearchCovers(ctx context.Context, query string) []CoverHit {
	var results []CoverHit

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", "5")
	var gb googleBooksResponse
	if err := v.getJSON(ctx, v.googleBooksURL+"?"+params.Encode(), &gb); err != nil {
		log.Printf("cover search in Google Books failed: %v", err)
	} else {
		for _, item := range gb.Items {
			thumb := item.VolumeInfo.ImageLinks.Thumbnail
			if thumb == "" {
				continue
			}
			results = append(results, CoverHit{
				URL:    strings.Replace(thumb, "http://", "https://", 1),
				Source: "Google Books",
				Title:  item.VolumeInfo.Title,
				Author: strings.Join(item.VolumeInfo.Authors, ", "),
			})
		}
	}

	olParams := url.Values{}
	olParams.Set("q", query)
	olParams.Set("limit", "5")
	var ol openLibraryResponse
	if err := v.getJSON(ctx, v.openLibraryURL+"?"+olParams.Encode(), &ol); err != nil {
		log.Printf("cover search in OpenLibrary failed: %v", err)
	} else {
		for _, doc := range ol.Docs {
			if doc.CoverID == 0 {
				continue
			}
			results = append(results, CoverHit{
				URL:    fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-L.jpg", doc.CoverID),
				Source: "OpenLibrary",
				Title:  doc.Title,
				Author: strings.Join(doc.AuthorName, ", "),
			})
		}
	}

	return results
}

// CoverHit is one candidate cover image.
type CoverHit struct {
	URL    string `json:"url"`
	Source string `json:"source"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

func (v *Verifier) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
