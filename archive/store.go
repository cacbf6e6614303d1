// Package archive keeps the in-memory mirror of the saved library. It is
// pure bookkeeping: loading happens through the HTTP client, persistence
// through the library service. Sessions treat the store as append-only and
// never mutate an existing variant.
package archive

import (
	"sort"
	"strings"
	"sync"

	"pustaka/types"
)

// BookMeta is the identity under which a new variant is filed.
type BookMeta struct {
	Title         string
	Author        string
	ISBN          string
	Genre         string
	PublishedDate string
	ImageURL      string
}

// Store holds the archive snapshot with thread-safe access.
type Store struct {
	mu    sync.RWMutex
	books []types.Book
}

// NewStore returns an empty archive mirror.
func NewStore() *Store {
	return &Store{}
}

// Replace swaps in a freshly listed archive, most recently updated first.
func (s *Store) Replace(books []types.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books = append([]types.Book{}, books...)
	sortByRecency(s.books)
}

// Books returns a copy of the archive snapshot.
func (s *Store) Books() []types.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Book{}, s.books...)
}

// Len reports the number of books.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

// Book looks up a book by id.
func (s *Store) Book(id string) (types.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.books {
		if b.ID == id {
			return b, true
		}
	}
	return types.Book{}, false
}

// Variant looks up a variant by id, returning its owning book too.
func (s *Store) Variant(id string) (types.Book, types.SummaryVariant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.books {
		for _, v := range b.Variants {
			if v.ID == id {
				return b, v, true
			}
		}
	}
	return types.Book{}, types.SummaryVariant{}, false
}

// VariantsByIDs resolves a selection of variant ids, preserving order.
// Unknown ids are skipped.
func (s *Store) VariantsByIDs(ids []string) []types.SummaryVariant {
	var selected []types.SummaryVariant
	for _, id := range ids {
		if _, v, ok := s.Variant(id); ok {
			selected = append(selected, v)
		}
	}
	return selected
}

// Insert files a new variant under an existing book when the identity
// matches (normalized ISBN first, else case-insensitive title+author), or
// creates a new book entry. The variant goes first in the book's list and
// the book moves to the front of the archive.
func (s *Store) Insert(meta BookMeta, variant types.SummaryVariant) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if book := s.findByIdentity(meta); book != nil {
		book.Variants = append([]types.SummaryVariant{variant}, book.Variants...)
		if book.ISBN == "" {
			book.ISBN = meta.ISBN
		}
		if book.Genre == "" {
			book.Genre = meta.Genre
		}
		if book.ImageURL == "" {
			book.ImageURL = meta.ImageURL
		}
		book.LastUpdated = variant.Timestamp
		sortByRecency(s.books)
		return
	}

	s.books = append([]types.Book{{
		Title:         meta.Title,
		Author:        meta.Author,
		ISBN:          meta.ISBN,
		Genre:         meta.Genre,
		PublishedDate: meta.PublishedDate,
		ImageURL:      meta.ImageURL,
		LastUpdated:   variant.Timestamp,
		Variants:      []types.SummaryVariant{variant},
	}}, s.books...)
}

// RemoveVariant drops a variant; a book left with no variants is dropped
// with it, matching the service's behavior.
func (s *Store) RemoveVariant(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for bi := range s.books {
		book := &s.books[bi]
		for vi := range book.Variants {
			if book.Variants[vi].ID != id {
				continue
			}
			book.Variants = append(book.Variants[:vi], book.Variants[vi+1:]...)
			if len(book.Variants) == 0 {
				s.books = append(s.books[:bi], s.books[bi+1:]...)
			}
			return true
		}
	}
	return false
}

// RemoveBook drops a book and all its variants.
func (s *Store) RemoveBook(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.books {
		if s.books[i].ID == id {
			s.books = append(s.books[:i], s.books[i+1:]...)
			return true
		}
	}
	return false
}

// findByIdentity must be called with the lock held.
func (s *Store) findByIdentity(meta BookMeta) *types.Book {
	isbn := types.NormalizeISBN(meta.ISBN)
	title := strings.ToLower(strings.TrimSpace(meta.Title))
	author := strings.ToLower(strings.TrimSpace(meta.Author))

	for i := range s.books {
		b := &s.books[i]
		if isbn != "" && b.ISBN != "" && types.NormalizeISBN(b.ISBN) == isbn {
			return b
		}
		if title != "" && author != "" &&
			strings.ToLower(strings.TrimSpace(b.Title)) == title &&
			strings.ToLower(strings.TrimSpace(b.Author)) == author {
			return b
		}
	}
	return nil
}

func sortByRecency(books []types.Book) {
	sort.SliceStable(books, func(i, j int) bool {
		return books[i].LastUpdated > books[j].LastUpdated
	})
}
