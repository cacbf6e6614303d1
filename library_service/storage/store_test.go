package storage

import (
	"testing"
	"time"

	"pustaka/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	// Deterministic, strictly increasing timestamps.
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		base = base.Add(time.Second)
		return base
	}
	return store
}

func save(t *testing.T, s *Store, in SaveInput) types.SummaryVariant {
	t.Helper()
	v, err := s.Save(in)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	return v
}

func TestSaveGroupsByISBN(t *testing.T) {
	s := newTestStore(t)

	save(t, s, SaveInput{
		Title:          "Clean Code",
		Author:         "Robert Martin",
		SummaryContent: "first",
		UsageStats:     types.UsageStats{Model: "gpt-4o"},
		Metadata:       map[string]string{"isbn": "978-0132350884"},
	})
	save(t, s, SaveInput{
		Title:          "CLEAN CODE (annotated)",
		Author:         "R. Martin",
		SummaryContent: "second",
		UsageStats:     types.UsageStats{Model: "gemini"},
		Metadata:       map[string]string{"isbn": "9780132350884"},
	})

	books, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("expected 1 book after ISBN grouping, got %d", len(books))
	}
	if len(books[0].Variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(books[0].Variants))
	}
	if books[0].Variants[0].SummaryContent != "second" {
		t.Errorf("newest variant should be first, got %q", books[0].Variants[0].SummaryContent)
	}
}

func TestSaveGroupsByTitleAuthorCaseInsensitive(t *testing.T) {
	s := newTestStore(t)

	save(t, s, SaveInput{Title: "Dune", Author: "Frank Herbert", SummaryContent: "a"})
	save(t, s, SaveInput{Title: "DUNE", Author: "frank herbert", SummaryContent: "b"})
	save(t, s, SaveInput{Title: "Dune Messiah", Author: "Frank Herbert", SummaryContent: "c"})

	books, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected 2 books, got %d", len(books))
	}
}

func TestSaveOrdersBooksByRecency(t *testing.T) {
	s := newTestStore(t)

	save(t, s, SaveInput{Title: "First", Author: "A", SummaryContent: "x"})
	save(t, s, SaveInput{Title: "Second", Author: "B", SummaryContent: "y"})

	books, _ := s.All()
	if books[0].Title != "Second" {
		t.Errorf("most recently updated book should lead, got %q", books[0].Title)
	}

	// Touching the older book moves it back to the front.
	save(t, s, SaveInput{Title: "First", Author: "A", SummaryContent: "z"})
	books, _ = s.All()
	if books[0].Title != "First" {
		t.Errorf("updated book should lead, got %q", books[0].Title)
	}
}

func TestDeleteVariantDropsEmptyBook(t *testing.T) {
	s := newTestStore(t)

	v := save(t, s, SaveInput{Title: "Solo", Author: "X", SummaryContent: "only"})

	found, err := s.DeleteVariant(v.ID)
	if err != nil {
		t.Fatalf("DeleteVariant: %v", err)
	}
	if !found {
		t.Fatal("expected variant to be found")
	}
	books, _ := s.All()
	if len(books) != 0 {
		t.Errorf("book with no variants should be removed, got %d books", len(books))
	}

	found, _ = s.DeleteVariant(v.ID)
	if found {
		t.Error("deleting a deleted variant should report not found")
	}
}

func TestSaveBackfillsMissingISBN(t *testing.T) {
	s := newTestStore(t)

	save(t, s, SaveInput{Title: "Hyperion", Author: "Dan Simmons", SummaryContent: "a"})
	save(t, s, SaveInput{
		Title: "Hyperion", Author: "Dan Simmons", SummaryContent: "b",
		Metadata: map[string]string{"isbn": "978-0553283686"},
	})

	books, _ := s.All()
	if len(books) != 1 {
		t.Fatalf("expected 1 book, got %d", len(books))
	}
	if books[0].ISBN == "" {
		t.Error("ISBN from the later save should be backfilled onto the book")
	}
}

func TestNotesLifecycle(t *testing.T) {
	s := newTestStore(t)
	v := save(t, s, SaveInput{Title: "Notes", Author: "N", SummaryContent: "text"})

	note, err := s.AddNote(v.ID, types.Note{Content: "insightful", Section: "2"})
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	if note == nil || note.ID == "" || note.Timestamp == "" {
		t.Fatalf("note should get id and timestamp, got %+v", note)
	}

	updated, err := s.UpdateNote(v.ID, note.ID, types.Note{Content: "revised"})
	if err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}
	if updated == nil || updated.Content != "revised" {
		t.Fatalf("expected revised note, got %+v", updated)
	}
	if updated.Section != "2" {
		t.Errorf("empty section in update should leave the old value, got %q", updated.Section)
	}

	found, err := s.DeleteNote(v.ID, note.ID)
	if err != nil || !found {
		t.Fatalf("DeleteNote: found=%v err=%v", found, err)
	}
	_, variant, ok, _ := s.Variant(v.ID)
	if !ok || len(variant.Notes) != 0 {
		t.Errorf("expected no notes left, got %+v", variant.Notes)
	}
}

func TestUpdateMetadataAndLookup(t *testing.T) {
	s := newTestStore(t)
	save(t, s, SaveInput{Title: "Old", Author: "O", SummaryContent: "v"})
	books, _ := s.All()

	book, err := s.UpdateMetadata(books[0].ID, "New", "N", "123", "Sci-Fi")
	if err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	if book == nil || book.Title != "New" || book.Genre != "Sci-Fi" {
		t.Fatalf("unexpected book after update: %+v", book)
	}

	missing, err := s.UpdateMetadata("no-such-id", "a", "b", "", "")
	if err != nil || missing != nil {
		t.Errorf("unknown book should return nil, got %+v err=%v", missing, err)
	}
}
