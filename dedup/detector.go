// Package dedup decides whether a verified book already has an archived
// brief for the active model, so the UI can short-circuit regeneration.
package dedup

import (
	"strings"

	"pustaka/types"
)

// Match points at an existing book and the variant produced by the active
// model. Pointers reference entries of the archive slice passed to Find.
type Match struct {
	Book    *types.Book
	Variant *types.SummaryVariant
}

// Find returns the archived variant matching the verified identity and the
// active model, or nil. Pure with respect to its inputs: no side effects,
// no network.
//
// Matching rules: an ISBN match (hyphens stripped on both sides) wins
// regardless of title/author; otherwise title AND author must match
// case-insensitively. Within the matched book the variant's model must
// equal activeModel exactly.
func Find(verification types.VerificationResult, activeModel string, archive []types.Book) *Match {
	source, ok := verification.PrimarySource()
	if !ok {
		return nil
	}

	targetISBN := types.NormalizeISBN(source.ISBN)
	targetTitle := strings.ToLower(strings.TrimSpace(source.Title))
	targetAuthor := strings.ToLower(strings.TrimSpace(source.Author))

	for i := range archive {
		book := &archive[i]
		if !bookMatches(book, targetISBN, targetTitle, targetAuthor) {
			continue
		}
		for j := range book.Variants {
			if book.Variants[j].Model == activeModel {
				return &Match{Book: book, Variant: &book.Variants[j]}
			}
		}
		// Book matched but no variant for this model: not a hit, and no
		// other book can match better.
		return nil
	}
	return nil
}

func bookMatches(book *types.Book, isbn, title, author string) bool {
	if isbn != "" && book.ISBN != "" {
		if isbn == types.NormalizeISBN(book.ISBN) {
			return true
		}
	}
	if title == "" || author == "" {
		return false
	}
	return strings.ToLower(strings.TrimSpace(book.Title)) == title &&
		strings.ToLower(strings.TrimSpace(book.Author)) == author
}
