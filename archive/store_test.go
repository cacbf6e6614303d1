package archive

import (
	"testing"

	"pustaka/types"
)

func TestInsertGroupsByISBN(t *testing.T) {
	s := NewStore()
	s.Replace([]types.Book{{
		ID: "b1", Title: "Clean Code", Author: "Robert C. Martin", ISBN: "978-0132350884",
		LastUpdated: "2026-01-01T00:00:00Z",
		Variants:    []types.SummaryVariant{{ID: "v1", Model: "gpt-x"}},
	}})

	s.Insert(BookMeta{Title: "Clean Code, 2nd", Author: "R. Martin", ISBN: "9780132350884"},
		types.SummaryVariant{ID: "v2", Model: "claude-y", Timestamp: "2026-02-01T00:00:00Z"})

	if s.Len() != 1 {
		t.Fatalf("expected grouping into one book, got %d", s.Len())
	}
	book, ok := s.Book("b1")
	if !ok || len(book.Variants) != 2 {
		t.Fatalf("expected two variants, got %+v", book)
	}
	if book.Variants[0].ID != "v2" {
		t.Errorf("newest variant should be first, got %s", book.Variants[0].ID)
	}
}

func TestInsertGroupsByTitleAuthorCaseInsensitive(t *testing.T) {
	s := NewStore()
	s.Insert(BookMeta{Title: "Dune", Author: "Frank Herbert"},
		types.SummaryVariant{ID: "v1", Timestamp: "2026-01-01T00:00:00Z"})
	s.Insert(BookMeta{Title: "DUNE", Author: "frank herbert"},
		types.SummaryVariant{ID: "v2", Timestamp: "2026-01-02T00:00:00Z"})

	if s.Len() != 1 {
		t.Fatalf("expected one grouped book, got %d", s.Len())
	}
}

func TestInsertCreatesNewBookWhenNoMatch(t *testing.T) {
	s := NewStore()
	s.Insert(BookMeta{Title: "Dune", Author: "Frank Herbert"},
		types.SummaryVariant{ID: "v1", Timestamp: "2026-01-01T00:00:00Z"})
	s.Insert(BookMeta{Title: "Hyperion", Author: "Dan Simmons"},
		types.SummaryVariant{ID: "v2", Timestamp: "2026-01-02T00:00:00Z"})

	if s.Len() != 2 {
		t.Fatalf("expected two books, got %d", s.Len())
	}
	// Most recently updated first.
	if s.Books()[0].Title != "Hyperion" {
		t.Errorf("expected Hyperion first, got %s", s.Books()[0].Title)
	}
}

func TestVariantLookupAndSelection(t *testing.T) {
	s := NewStore()
	s.Replace([]types.Book{{
		ID: "b1", Title: "Dune", Author: "Frank Herbert",
		Variants: []types.SummaryVariant{{ID: "v1"}, {ID: "v2"}},
	}})

	book, v, ok := s.Variant("v2")
	if !ok || book.ID != "b1" || v.ID != "v2" {
		t.Fatalf("lookup failed: %v %v %v", book.ID, v.ID, ok)
	}

	selected := s.VariantsByIDs([]string{"v2", "missing", "v1"})
	if len(selected) != 2 || selected[0].ID != "v2" || selected[1].ID != "v1" {
		t.Fatalf("selection mismatch: %+v", selected)
	}
}

func TestRemoveVariantDropsEmptyBook(t *testing.T) {
	s := NewStore()
	s.Replace([]types.Book{{
		ID: "b1", Title: "Dune", Author: "Frank Herbert",
		Variants: []types.SummaryVariant{{ID: "v1"}},
	}})

	if !s.RemoveVariant("v1") {
		t.Fatal("expected removal")
	}
	if s.Len() != 0 {
		t.Fatalf("book with no variants should be dropped, got %d books", s.Len())
	}
	if s.RemoveVariant("v1") {
		t.Fatal("second removal should report false")
	}
}
