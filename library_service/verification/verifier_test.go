package verification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"pustaka/types"
)

const googleHit = `{"items":[{"volumeInfo":{
	"title":"Clean Code",
	"authors":["Robert C. Martin"],
	"publishedDate":"2008",
	"description":"A handbook of agile software craftsmanship.",
	"industryIdentifiers":[{"type":"ISBN_13","identifier":"9780132350884"}],
	"imageLinks":{"thumbnail":"http://books.google.com/cover.jpg"}
}}]}`

const openLibraryHit = `{"docs":[{
	"title":"Clean Code",
	"author_name":["Robert C. Martin"],
	"isbn":["9780132350884"],
	"first_publish_year":2008,
	"cover_i":12345
}]}`

func newTestVerifier(t *testing.T, googleBody, openLibraryBody string) *Verifier {
	t.Helper()
	google := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if googleBody == "" {
			w.Write([]byte(`{"items":[]}`))
			return
		}
		w.Write([]byte(googleBody))
	}))
	t.Cleanup(google.Close)
	ol := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if openLibraryBody == "" {
			w.Write([]byte(`{"docs":[]}`))
			return
		}
		w.Write([]byte(openLibraryBody))
	}))
	t.Cleanup(ol.Close)

	v := NewVerifier(nil, nil)
	v.googleBooksURL = google.URL
	v.openLibraryURL = ol.URL
	return v
}

func TestVerifyTwoSourcesIsSuccess(t *testing.T) {
	v := newTestVerifier(t, googleHit, openLibraryHit)

	result := v.Verify(context.Background(), "9780132350884", "", "")
	if result.Status != types.VerificationSuccess || !result.IsValid {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(result.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(result.Sources))
	}
	if result.Sources[0].SourceName != "Google Books" {
		t.Errorf("unexpected first source %q", result.Sources[0].SourceName)
	}
	if result.Sources[0].ISBN != "9780132350884" {
		t.Errorf("ISBN should be extracted, got %q", result.Sources[0].ISBN)
	}
	if result.Sources[0].ImageURL != "https://books.google.com/cover.jpg" {
		t.Errorf("thumbnail should be upgraded to https, got %q", result.Sources[0].ImageURL)
	}
}

func TestVerifyOneSourceIsWarning(t *testing.T) {
	v := newTestVerifier(t, googleHit, "")

	result := v.Verify(context.Background(), "", "Clean Code", "Robert C. Martin")
	if result.Status != types.VerificationWarning {
		t.Fatalf("expected warning, got %+v", result)
	}
	if result.IsValid {
		t.Error("a single source must not count as valid")
	}
	if len(result.Sources) != 1 {
		t.Errorf("expected 1 source, got %d", len(result.Sources))
	}
}

func TestVerifyNoSourcesIsFailure(t *testing.T) {
	v := newTestVerifier(t, "", "")

	result := v.Verify(context.Background(), "", "Nonexistent Book", "Nobody")
	if result.Status != types.VerificationFailure || result.IsValid {
		t.Fatalf("expected failure, got %+v", result)
	}
	if len(result.Sources) != 0 {
		t.Errorf("expected no sources, got %d", len(result.Sources))
	}
}

type fakeArchive struct {
	books []types.Book
}

func (f *fakeArchive) All() ([]types.Book, error) { return f.books, nil }

func TestVerifySavedBookShortCircuits(t *testing.T) {
	// Unreachable catalog endpoints prove no external call is made.
	v := NewVerifier(&fakeArchive{books: []types.Book{{
		Title:  "Clean Code",
		Author: "Robert C. Martin",
		ISBN:   "978-0132350884",
	}}}, nil)
	v.googleBooksURL = "http://127.0.0.1:1"
	v.openLibraryURL = "http://127.0.0.1:1"

	result := v.Verify(context.Background(), "9780132350884", "", "")
	if result.Status != types.VerificationSuccess {
		t.Fatalf("saved book should verify, got %+v", result)
	}
	if result.Sources[0].SourceName != "Pustaka (Saved)" {
		t.Errorf("unexpected source %q", result.Sources[0].SourceName)
	}
}

func TestOpenLibraryFieldMapping(t *testing.T) {
	v := newTestVerifier(t, "", openLibraryHit)

	result := v.Verify(context.Background(), "", "Clean Code", "Robert C. Martin")
	if len(result.Sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(result.Sources))
	}
	src := result.Sources[0]
	if src.SourceName != "OpenLibrary" {
		t.Errorf("unexpected source %q", src.SourceName)
	}
	if src.PublishedDate != "2008" {
		t.Errorf("first_publish_year should map to published date, got %q", src.PublishedDate)
	}
	if src.ImageURL != "https://covers.openlibrary.org/b/id/12345-L.jpg" {
		t.Errorf("cover id should build the cover URL, got %q", src.ImageURL)
	}
}

func TestSearchCoversMergesBothCatalogs(t *testing.T) {
	v := newTestVerifier(t, googleHit, openLibraryHit)

	hits := v.SearchCovers(context.Background(), "clean code")
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Source != "Google Books" || hits[1].Source != "OpenLibrary" {
		t.Errorf("unexpected sources: %+v", hits)
	}
}
