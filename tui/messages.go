package tui

import (
	"pustaka/client"
	"pustaka/session"
	"pustaka/types"
)

// Messages for the tea program

// ArchiveLoadedMsg is sent when the saved archive has been fetched
type ArchiveLoadedMsg struct {
	Books []types.Book
	Err   error
}

// VerifiedMsg is sent when book verification finishes
type VerifiedMsg struct {
	Result types.VerificationResult
	Err    error
}

// SessionUpdateMsg wraps one update from the live generation session
type SessionUpdateMsg struct {
	Update session.Update
	OK     bool // false once the channel is drained with no live session
}

// SavedMsg is sent when a finished brief was persisted
type SavedMsg struct {
	Request client.SaveRequest
	Variant types.SummaryVariant
	Err     error
}

// VariantDeletedMsg is sent after a delete request completes
type VariantDeletedMsg struct {
	VariantID string
	Err       error
}

// BookDeletedMsg is sent after a whole book was removed
type BookDeletedMsg struct {
	BookID string
	Err    error
}

// CoversMsg carries candidate cover images for the current book
type CoversMsg struct {
	Covers []client.CoverResult
	Err    error
}
