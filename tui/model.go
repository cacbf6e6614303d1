package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"pustaka/archive"
	"pustaka/client"
	"pustaka/config"
	"pustaka/dedup"
	"pustaka/session"
	"pustaka/types"
)

// Screen identifies which view the client is showing.
type Screen string

const (
	ScreenLibrary    Screen = "library"
	ScreenLookup     Screen = "lookup"
	ScreenVerified   Screen = "verified"
	ScreenGenerating Screen = "generating"
)

// lookup form field indices
const (
	fieldTitle = iota
	fieldAuthor
	fieldISBN
	fieldCount
)

// Model represents the TUI client state.
type Model struct {
	Client *client.Library
	Store  *archive.Store
	Config config.Config

	Screen Screen

	// Lookup form
	Fields  [fieldCount]string
	Focused int

	// Verification outcome for the current lookup
	Verification *types.VerificationResult
	Duplicate    *dedup.Match

	// Active generation (one of the two, never both)
	Session   *session.Session
	Synthesis *session.SynthesisCoordinator
	Snapshot  session.Snapshot
	Result    *session.Result
	Saved     bool

	// Library browser
	Cursor   int
	Selected map[string]bool // variant ids picked for synthesis

	Logs []string
	Err  error
}

// NewModel creates the initial TUI model.
func NewModel(cfg config.Config) Model {
	lib := client.NewLibrary(cfg.APIURL)
	return Model{
		Client:   lib,
		Store:    archive.NewStore(),
		Config:   cfg,
		Screen:   ScreenLibrary,
		Selected: make(map[string]bool),
	}
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	return loadArchive(m.Client)
}

// AddLog appends a log line, keeping the last 8.
func (m Model) AddLog(msg string) Model {
	m.Logs = append(m.Logs, msg)
	if len(m.Logs) > 8 {
		m.Logs = m.Logs[len(m.Logs)-8:]
	}
	return m
}

// activeUpdates returns the updates channel of whichever session is live.
func (m Model) activeUpdates() <-chan session.Update {
	if m.Synthesis != nil {
		return m.Synthesis.Updates()
	}
	if m.Session != nil {
		return m.Session.Updates()
	}
	return nil
}

// activeSnapshot reads the live session's snapshot.
func (m Model) activeSnapshot() session.Snapshot {
	if m.Synthesis != nil {
		return m.Synthesis.Snapshot()
	}
	if m.Session != nil {
		return m.Session.Snapshot()
	}
	return session.Snapshot{}
}

// selectedVariantIDs returns the synthesis selection in a stable order,
// walking the archive so the order matches the on-screen list.
func (m Model) selectedVariantIDs() []string {
	var ids []string
	for _, book := range m.Store.Books() {
		for _, v := range book.Variants {
			if m.Selected[v.ID] {
				ids = append(ids, v.ID)
			}
		}
	}
	return ids
}

// variantAt resolves the cursor position to a book/variant pair in the
// flattened library listing.
func (m Model) variantAt(pos int) (types.Book, types.SummaryVariant, bool) {
	i := 0
	for _, book := range m.Store.Books() {
		for _, v := range book.Variants {
			if i == pos {
				return book, v, true
			}
			i++
		}
	}
	return types.Book{}, types.SummaryVariant{}, false
}

// variantCount is the number of rows in the flattened library listing.
func (m Model) variantCount() int {
	n := 0
	for _, book := range m.Store.Books() {
		n += len(book.Variants)
	}
	return n
}
