package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"pustaka/client"
	"pustaka/config"
	"pustaka/session"
)

// loadArchive creates a command to fetch the saved archive
func loadArchive(c *client.Library) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), config.ArchiveCallTimeout)
		defer cancel()
		books, err := c.Saved(ctx)
		return ArchiveLoadedMsg{Books: books, Err: err}
	}
}

// verifyBook creates a command to verify the lookup form against the catalog
func verifyBook(c *client.Library, hint client.BookHint) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), config.VerifyTimeout)
		defer cancel()
		result, err := c.Verify(ctx, hint)
		return VerifiedMsg{Result: result, Err: err}
	}
}

// listenSession creates a command that waits for the next session update.
// Re-issued from Update after each message so the stream keeps flowing.
func listenSession(updates <-chan session.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		return SessionUpdateMsg{Update: u, OK: ok}
	}
}

// saveBrief creates a command to persist a finished brief. The request is
// echoed back in the message so the local archive can insert the new
// variant without a full reload.
func saveBrief(c *client.Library, req client.SaveRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), config.ArchiveCallTimeout)
		defer cancel()
		variant, err := c.Save(ctx, req)
		return SavedMsg{Request: req, Variant: variant, Err: err}
	}
}

// deleteVariant creates a command to remove one saved brief
func deleteVariant(c *client.Library, variantID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), config.ArchiveCallTimeout)
		defer cancel()
		err := c.DeleteVariant(ctx, variantID)
		return VariantDeletedMsg{VariantID: variantID, Err: err}
	}
}

// deleteBook creates a command to remove a book and all its briefs
func deleteBook(c *client.Library, bookID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), config.ArchiveCallTimeout)
		defer cancel()
		err := c.DeleteBook(ctx, bookID)
		return BookDeletedMsg{BookID: bookID, Err: err}
	}
}
