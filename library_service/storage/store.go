package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pustaka/types"
)

// SaveInput is everything needed to file a new brief.
type SaveInput struct {
	Title          string
	Author         string
	SummaryContent string
	UsageStats     types.UsageStats
	Metadata       map[string]string
}

// Store persists books and their brief variants in a single JSON file.
// Books are grouped by ISBN when present, otherwise by case-insensitive
// title+author. All methods are safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	dataFile string
	covers   *CoverManager
	now      func() time.Time
}

// NewStore creates a store rooted at dataDir, creating the directory and an
// empty data file if needed.
func NewStore(dataDir string, covers *CoverManager) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{
		dataFile: filepath.Join(dataDir, "saved_summaries.json"),
		covers:   covers,
		now:      time.Now,
	}
	if _, err := os.Stat(s.dataFile); os.IsNotExist(err) {
		if err := s.save([]types.Book{}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() ([]types.Book, error) {
	raw, err := os.ReadFile(s.dataFile)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.Book{}, nil
		}
		return nil, fmt.Errorf("read data file: %w", err)
	}
	var books []types.Book
	if err := json.Unmarshal(raw, &books); err != nil {
		return nil, fmt.Errorf("decode data file: %w", err)
	}
	return books, nil
}

func (s *Store) save(books []types.Book) error {
	data, err := json.MarshalIndent(books, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.dataFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write data file: %w", err)
	}
	return os.Rename(tmp, s.dataFile)
}

// All returns every saved book with its variants, most recently updated
// book first.
func (s *Store) All() ([]types.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save files a new brief variant, appending to an existing book when the
// identity matches and creating the book otherwise. Returns the new variant.
func (s *Store) Save(in SaveInput) (types.SummaryVariant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.load()
	if err != nil {
		return types.SummaryVariant{}, err
	}

	isbn := in.Metadata["isbn"]
	title := strings.TrimSpace(in.Title)
	author := strings.TrimSpace(in.Author)
	timestamp := s.now().Format(time.RFC3339)

	variant := types.SummaryVariant{
		ID:             uuid.NewString(),
		Model:          in.UsageStats.Model,
		Provider:       in.UsageStats.Provider,
		SummaryContent: in.SummaryContent,
		UsageStats:     in.UsageStats,
		Notes:          []types.Note{},
		Metadata:       in.Metadata,
		Timestamp:      timestamp,
	}

	idx := s.findBook(books, isbn, title, author)
	if idx >= 0 {
		book := &books[idx]
		// Newest variant first.
		book.Variants = append([]types.SummaryVariant{variant}, book.Variants...)
		book.LastUpdated = timestamp
		if book.ISBN == "" && isbn != "" {
			book.ISBN = isbn
		}
		if book.Genre == "" {
			book.Genre = in.Metadata["genre"]
		}
		if book.PublishedDate == "" {
			book.PublishedDate = in.Metadata["published_date"]
		}
		if book.ImageURL == "" && s.covers != nil {
			book.ImageURL = s.covers.Fetch(in.Metadata["image_url"], book.ID)
		}
	} else {
		bookID := uuid.NewString()
		imageURL := in.Metadata["image_url"]
		if s.covers != nil {
			imageURL = s.covers.Fetch(imageURL, bookID)
		}
		books = append(books, types.Book{
			ID:            bookID,
			Title:         title,
			Author:        author,
			Genre:         in.Metadata["genre"],
			PublishedDate: in.Metadata["published_date"],
			ISBN:          isbn,
			ImageURL:      imageURL,
			CreatedAt:     timestamp,
			LastUpdated:   timestamp,
			Variants:      []types.SummaryVariant{variant},
		})
	}

	sortByRecency(books)
	if err := s.save(books); err != nil {
		return types.SummaryVariant{}, err
	}
	return variant, nil
}

// findBook returns the index of the book matching the identity, or -1.
// ISBN wins when both sides have one; when either side lacks an ISBN the
// title+author compare case-insensitively.
func (s *Store) findBook(books []types.Book, isbn, title, author string) int {
	normISBN := types.NormalizeISBN(isbn)
	for i := range books {
		if normISBN != "" && books[i].ISBN != "" {
			if types.NormalizeISBN(books[i].ISBN) == normISBN {
				return i
			}
			continue
		}
		if strings.EqualFold(books[i].Title, title) &&
			strings.EqualFold(books[i].Author, author) {
			return i
		}
	}
	return -1
}

// DeleteVariant removes one brief. A book left with no variants is removed
// as well. Returns false when the variant does not exist.
func (s *Store) DeleteVariant(variantID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.load()
	if err != nil {
		return false, err
	}
	found := false
	for i := range books {
		kept := books[i].Variants[:0]
		for _, v := range books[i].Variants {
			if v.ID == variantID {
				found = true
				continue
			}
			kept = append(kept, v)
		}
		books[i].Variants = kept
		if found {
			break
		}
	}
	if !found {
		return false, nil
	}
	pruned := books[:0]
	for _, b := range books {
		if len(b.Variants) > 0 {
			pruned = append(pruned, b)
		}
	}
	return true, s.save(pruned)
}

// DeleteBook removes a book and every variant under it.
func (s *Store) DeleteBook(bookID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.load()
	if err != nil {
		return false, err
	}
	kept := books[:0]
	for _, b := range books {
		if b.ID != bookID {
			kept = append(kept, b)
		}
	}
	if len(kept) == len(books) {
		return false, nil
	}
	return true, s.save(kept)
}

// UpdateCover downloads a new cover for the book and records its path.
// Returns the stored path, or "" when the book does not exist.
func (s *Store) UpdateCover(bookID, imageURL string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.load()
	if err != nil {
		return "", err
	}
	for i := range books {
		if books[i].ID != bookID {
			continue
		}
		path := imageURL
		if s.covers != nil {
			path = s.covers.Fetch(imageURL, bookID)
		}
		books[i].ImageURL = path
		books[i].LastUpdated = s.now().Format(time.RFC3339)
		return path, s.save(books)
	}
	return "", nil
}

// UpdateMetadata edits a book's identity fields. Returns the updated book,
// or nil when it does not exist.
func (s *Store) UpdateMetadata(bookID, title, author, isbn, genre string) (*types.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range books {
		if books[i].ID != bookID {
			continue
		}
		books[i].Title = title
		books[i].Author = author
		books[i].ISBN = isbn
		if genre != "" {
			books[i].Genre = genre
		}
		books[i].LastUpdated = s.now().Format(time.RFC3339)
		if err := s.save(books); err != nil {
			return nil, err
		}
		book := books[i]
		return &book, nil
	}
	return nil, nil
}

// Variant returns one brief by id along with its owning book.
func (s *Store) Variant(variantID string) (types.Book, types.SummaryVariant, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.load()
	if err != nil {
		return types.Book{}, types.SummaryVariant{}, false, err
	}
	for _, b := range books {
		for _, v := range b.Variants {
			if v.ID == variantID {
				return b, v, true, nil
			}
		}
	}
	return types.Book{}, types.SummaryVariant{}, false, nil
}

// AddNote attaches a note to a brief, filling in id and timestamp.
func (s *Store) AddNote(variantID string, note types.Note) (*types.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.load()
	if err != nil {
		return nil, err
	}
	timestamp := s.now().Format(time.RFC3339)
	for i := range books {
		for j := range books[i].Variants {
			if books[i].Variants[j].ID != variantID {
				continue
			}
			if note.ID == "" {
				note.ID = uuid.NewString()
			}
			note.Timestamp = timestamp
			books[i].Variants[j].Notes = append(books[i].Variants[j].Notes, note)
			books[i].LastUpdated = timestamp
			sortByRecency(books)
			return &note, s.save(books)
		}
	}
	return nil, nil
}

// UpdateNote edits an existing note on a brief.
func (s *Store) UpdateNote(variantID, noteID string, note types.Note) (*types.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.load()
	if err != nil {
		return nil, err
	}
	timestamp := s.now().Format(time.RFC3339)
	for i := range books {
		for j := range books[i].Variants {
			if books[i].Variants[j].ID != variantID {
				continue
			}
			notes := books[i].Variants[j].Notes
			for k := range notes {
				if notes[k].ID != noteID {
					continue
				}
				if note.Content != "" {
					notes[k].Content = note.Content
				}
				if note.Section != "" {
					notes[k].Section = note.Section
				}
				notes[k].Timestamp = timestamp
				books[i].LastUpdated = timestamp
				updated := notes[k]
				sortByRecency(books)
				return &updated, s.save(books)
			}
			return nil, nil
		}
	}
	return nil, nil
}

// DeleteNote removes a note from a brief.
func (s *Store) DeleteNote(variantID, noteID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.load()
	if err != nil {
		return false, err
	}
	for i := range books {
		for j := range books[i].Variants {
			if books[i].Variants[j].ID != variantID {
				continue
			}
			notes := books[i].Variants[j].Notes
			kept := notes[:0]
			for _, n := range notes {
				if n.ID != noteID {
					kept = append(kept, n)
				}
			}
			if len(kept) == len(notes) {
				return false, nil
			}
			books[i].Variants[j].Notes = kept
			books[i].LastUpdated = s.now().Format(time.RFC3339)
			return true, s.save(books)
		}
	}
	return false, nil
}

func sortByRecency(books []types.Book) {
	sort.SliceStable(books, func(i, j int) bool {
		return books[i].LastUpdated > books[j].LastUpdated
	})
}
