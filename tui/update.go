package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"pustaka/archive"
	"pustaka/client"
	"pustaka/dedup"
	"pustaka/session"
	"pustaka/types"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case ArchiveLoadedMsg:
		return m.handleArchiveLoaded(msg)
	case VerifiedMsg:
		return m.handleVerified(msg)
	case SessionUpdateMsg:
		return m.handleSessionUpdate(msg)
	case SavedMsg:
		return m.handleSaved(msg)
	case VariantDeletedMsg:
		return m.handleVariantDeleted(msg)
	case BookDeletedMsg:
		return m.handleBookDeleted(msg)
	}
	return m, nil
}

// handleKeyPress routes keyboard input to the active screen
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.abortActive()
		return m, tea.Quit
	}
	switch m.Screen {
	case ScreenLookup:
		return m.handleLookupKeys(msg)
	case ScreenVerified:
		return m.handleVerifiedKeys(msg)
	case ScreenGenerating:
		return m.handleGeneratingKeys(msg)
	default:
		return m.handleLibraryKeys(msg)
	}
}

// handleLibraryKeys processes input on the archive browser
func (m Model) handleLibraryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < m.variantCount()-1 {
			m.Cursor++
		}
	case " ":
		if _, v, ok := m.variantAt(m.Cursor); ok {
			if m.Selected[v.ID] {
				delete(m.Selected, v.ID)
			} else {
				m.Selected[v.ID] = true
			}
		}
	case "n":
		m.Screen = ScreenLookup
		m.Fields = [fieldCount]string{}
		m.Focused = fieldTitle
		m.Verification = nil
		m.Duplicate = nil
		m.Err = nil
	case "d":
		if _, v, ok := m.variantAt(m.Cursor); ok {
			return m, deleteVariant(m.Client, v.ID)
		}
	case "D":
		if book, _, ok := m.variantAt(m.Cursor); ok {
			return m, deleteBook(m.Client, book.ID)
		}
	case "r":
		return m, loadArchive(m.Client)
	case "s":
		return m.startSynthesis()
	}
	return m, nil
}

// handleLookupKeys processes input on the book lookup form
func (m Model) handleLookupKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.Screen = ScreenLibrary
	case tea.KeyTab, tea.KeyDown:
		m.Focused = (m.Focused + 1) % fieldCount
	case tea.KeyShiftTab, tea.KeyUp:
		m.Focused = (m.Focused + fieldCount - 1) % fieldCount
	case tea.KeyBackspace:
		f := m.Fields[m.Focused]
		if len(f) > 0 {
			m.Fields[m.Focused] = f[:len(f)-1]
		}
	case tea.KeyEnter:
		hint := client.BookHint{
			Title:  strings.TrimSpace(m.Fields[fieldTitle]),
			Author: strings.TrimSpace(m.Fields[fieldAuthor]),
			ISBN:   strings.TrimSpace(m.Fields[fieldISBN]),
		}
		if hint.Title == "" && hint.ISBN == "" {
			m.Err = fmt.Errorf("enter a title or an ISBN")
			return m, nil
		}
		m.Err = nil
		m = m.AddLog("Verifying book...")
		return m, verifyBook(m.Client, hint)
	case tea.KeySpace:
		m.Fields[m.Focused] += " "
	case tea.KeyRunes:
		m.Fields[m.Focused] += string(msg.Runes)
	}
	return m, nil
}

// handleVerifiedKeys processes input on the verification result screen
func (m Model) handleVerifiedKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Screen = ScreenLookup
	case "g":
		return m.startGeneration()
	case "v":
		// Jump to the duplicate in the library instead of regenerating.
		if m.Duplicate != nil {
			m.Screen = ScreenLibrary
			m.focusVariant(m.Duplicate.Variant.ID)
		}
	}
	return m, nil
}

// handleGeneratingKeys processes input while a brief is streaming
func (m Model) handleGeneratingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "a":
		m.abortActive()
	case "r":
		if m.Session != nil && m.Synthesis == nil {
			if err := m.Session.Resume(); err != nil {
				m.Err = err
				return m, nil
			}
			m.Err = nil
			m = m.AddLog("Resuming from partial brief...")
			return m, listenSession(m.Session.Updates())
		}
	case "s":
		return m.saveResult()
	case "esc":
		m.abortActive()
		m.Screen = ScreenLibrary
		m.Session = nil
		m.Synthesis = nil
		m.Result = nil
	}
	return m, nil
}

func (m Model) handleArchiveLoaded(msg ArchiveLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.Err = msg.Err
		return m, nil
	}
	m.Store.Replace(msg.Books)
	if m.Cursor >= m.variantCount() {
		m.Cursor = 0
	}
	m.Err = nil
	m = m.AddLog(fmt.Sprintf("Loaded %d saved books", len(msg.Books)))
	return m, nil
}

func (m Model) handleVerified(msg VerifiedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.Err = msg.Err
		return m, nil
	}
	m.Verification = &msg.Result
	m.Duplicate = dedup.Find(msg.Result, m.Config.Model, m.Store.Books())
	m.Screen = ScreenVerified
	m.Err = nil
	return m, nil
}

func (m Model) handleSessionUpdate(msg SessionUpdateMsg) (tea.Model, tea.Cmd) {
	updates := m.activeUpdates()
	if !msg.OK || updates == nil {
		return m, nil
	}
	m.Snapshot = m.activeSnapshot()
	u := msg.Update
	if u.Kind == session.UpdateDone {
		m.Result = u.Result
		m = m.AddLog("Brief complete")
		return m, nil
	}
	if u.Kind == session.UpdateError {
		m.Err = u.Err
		return m, nil
	}
	if u.Kind == session.UpdateState && u.State.Terminal() {
		return m, nil
	}
	return m, listenSession(updates)
}

func (m Model) handleSaved(msg SavedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.Err = msg.Err
		return m, nil
	}
	m.Saved = true
	m.Store.Insert(archive.BookMeta{
		Title:         msg.Request.Title,
		Author:        msg.Request.Author,
		ISBN:          msg.Request.Metadata["isbn"],
		Genre:         msg.Request.Metadata["genre"],
		PublishedDate: msg.Request.Metadata["published_date"],
		ImageURL:      msg.Request.Metadata["image_url"],
	}, msg.Variant)
	m = m.AddLog("Saved to archive")
	m.Screen = ScreenLibrary
	m.Session = nil
	m.Synthesis = nil
	m.Result = nil
	m.Selected = make(map[string]bool)
	return m, nil
}

func (m Model) handleVariantDeleted(msg VariantDeletedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.Err = msg.Err
		return m, nil
	}
	m.Store.RemoveVariant(msg.VariantID)
	delete(m.Selected, msg.VariantID)
	if m.Cursor >= m.variantCount() && m.Cursor > 0 {
		m.Cursor--
	}
	m = m.AddLog("Deleted saved brief")
	return m, nil
}

func (m Model) handleBookDeleted(msg BookDeletedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.Err = msg.Err
		return m, nil
	}
	m.Store.RemoveBook(msg.BookID)
	for id := range m.Selected {
		if _, _, ok := m.Store.Variant(id); !ok {
			delete(m.Selected, id)
		}
	}
	if n := m.variantCount(); m.Cursor >= n {
		m.Cursor = 0
		if n > 0 {
			m.Cursor = n - 1
		}
	}
	m = m.AddLog("Deleted book and its briefs")
	return m, nil
}

// startGeneration kicks off a summary stream for the verified book
func (m Model) startGeneration() (tea.Model, tea.Cmd) {
	if m.Verification == nil {
		return m, nil
	}
	sess := session.NewSession(m.Client)
	req := types.GenerationRequest{
		Metadata:    m.Verification.Sources,
		Provider:    m.Config.Provider,
		Model:       m.Config.Model,
		APIKey:      m.Config.APIKey,
		BaseURL:     m.Config.BaseURL,
		DraftCount:  m.Config.DraftCount,
		SelfCorrect: m.Config.SelfCorrect,
		Enrich:      m.Config.Enrich,
	}
	if err := sess.Start(req); err != nil {
		m.Err = err
		return m, nil
	}
	m.Session = sess
	m.Synthesis = nil
	m.Result = nil
	m.Saved = false
	m.Err = nil
	m.Snapshot = sess.Snapshot()
	m.Screen = ScreenGenerating
	return m, listenSession(sess.Updates())
}

// startSynthesis merges the selected variants into a new brief
func (m Model) startSynthesis() (tea.Model, tea.Cmd) {
	ids := m.selectedVariantIDs()
	if len(m.Store.VariantsByIDs(ids)) != len(m.Selected) {
		m.Err = fmt.Errorf("selection is stale, refresh the library")
		return m, nil
	}
	coord := session.NewSynthesisCoordinator(m.Client)
	req := types.SynthesisRequest{
		VariantIDs: ids,
		Provider:   m.Config.Provider,
		Model:      m.Config.Model,
		APIKey:     m.Config.APIKey,
		BaseURL:    m.Config.BaseURL,
	}
	if err := coord.Start(req); err != nil {
		m.Err = err
		return m, nil
	}
	m.Synthesis = coord
	m.Session = nil
	m.Result = nil
	m.Saved = false
	m.Err = nil
	m.Snapshot = coord.Snapshot()
	m.Screen = ScreenGenerating
	return m, listenSession(coord.Updates())
}

// saveResult persists the completed brief under the verified identity, or
// under the first source book for a synthesis.
func (m Model) saveResult() (tea.Model, tea.Cmd) {
	if m.Result == nil || m.Saved {
		return m, nil
	}
	title, author, meta := m.resultIdentity()
	if title == "" {
		m.Err = fmt.Errorf("nothing to save the brief under")
		return m, nil
	}
	req := client.SaveRequest{
		Title:          title,
		Author:         author,
		SummaryContent: m.Result.Content,
		UsageStats:     m.Result.Stats,
		Metadata:       meta,
	}
	return m, saveBrief(m.Client, req)
}

// resultIdentity picks the book identity the result should be filed under,
// with the verified metadata the service uses for grouping and covers.
func (m Model) resultIdentity() (title, author string, meta map[string]string) {
	if m.Synthesis != nil {
		for _, book := range m.Store.Books() {
			for _, v := range book.Variants {
				if m.Selected[v.ID] {
					return book.Title, book.Author, bookMetadata(book)
				}
			}
		}
		return "", "", nil
	}
	if m.Verification == nil {
		return "", "", nil
	}
	if src, ok := m.Verification.PrimarySource(); ok {
		return src.Title, src.Author, sourceMetadata(src)
	}
	return strings.TrimSpace(m.Fields[fieldTitle]), strings.TrimSpace(m.Fields[fieldAuthor]), nil
}

// sourceMetadata maps a verified source onto the save request's metadata.
func sourceMetadata(src types.Source) map[string]string {
	meta := make(map[string]string)
	if src.ISBN != "" {
		meta["isbn"] = src.ISBN
	}
	if src.Genre != "" {
		meta["genre"] = src.Genre
	}
	if src.PublishedDate != "" {
		meta["published_date"] = src.PublishedDate
	}
	if src.ImageURL != "" {
		meta["image_url"] = src.ImageURL
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

// bookMetadata carries an existing book's identity so a synthesis files
// into the same group. The cover is already local, so no image_url.
func bookMetadata(book types.Book) map[string]string {
	meta := make(map[string]string)
	if book.ISBN != "" {
		meta["isbn"] = book.ISBN
	}
	if book.Genre != "" {
		meta["genre"] = book.Genre
	}
	if book.PublishedDate != "" {
		meta["published_date"] = book.PublishedDate
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

// abortActive stops whichever session is running
func (m *Model) abortActive() {
	if m.Synthesis != nil {
		m.Synthesis.Abort()
	} else if m.Session != nil {
		m.Session.Abort()
	}
}

// focusVariant moves the library cursor to the given variant
func (m *Model) focusVariant(id string) {
	i := 0
	for _, book := range m.Store.Books() {
		for _, v := range book.Variants {
			if v.ID == id {
				m.Cursor = i
				return
			}
			i++
		}
	}
}
