package tui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pustaka/client"
	"pustaka/config"
	"pustaka/session"
	"pustaka/types"
)

func TestSaveRequestCarriesVerifiedMetadata(t *testing.T) {
	var captured client.SaveRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/save" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode save body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "v1"}`))
	}))
	defer srv.Close()

	m := NewModel(config.Config{APIURL: srv.URL, Model: "openai/gpt-4o"})
	m.Verification = &types.VerificationResult{
		IsValid: true,
		Status:  types.VerificationSuccess,
		Sources: []types.Source{{
			SourceName:    "Google Books",
			Title:         "Clean Code",
			Author:        "Robert C. Martin",
			ISBN:          "9780132350884",
			Genre:         "Computers",
			PublishedDate: "2008",
			ImageURL:      "https://books.google.com/cover.jpg",
		}},
	}
	m.Result = &session.Result{Content: "The brief."}

	_, cmd := m.saveResult()
	if cmd == nil {
		t.Fatal("expected a save command")
	}
	msg, ok := cmd().(SavedMsg)
	if !ok || msg.Err != nil {
		t.Fatalf("save failed: %+v", msg)
	}

	if captured.Title != "Clean Code" || captured.Author != "Robert C. Martin" {
		t.Errorf("identity lost: %+v", captured)
	}
	if captured.Metadata["isbn"] != "9780132350884" {
		t.Errorf("isbn lost: %v", captured.Metadata)
	}
	if captured.Metadata["genre"] != "Computers" || captured.Metadata["published_date"] != "2008" {
		t.Errorf("verified fields lost: %v", captured.Metadata)
	}
	if captured.Metadata["image_url"] != "https://books.google.com/cover.jpg" {
		t.Errorf("cover url lost: %v", captured.Metadata)
	}
}

func TestHandleSavedInsertsWithoutReload(t *testing.T) {
	m := NewModel(config.Config{})
	msg := SavedMsg{
		Request: client.SaveRequest{
			Title:    "Clean Code",
			Author:   "Robert C. Martin",
			Metadata: map[string]string{"isbn": "9780132350884"},
		},
		Variant: types.SummaryVariant{ID: "v1", Model: "openai/gpt-4o"},
	}

	next, cmd := m.handleSaved(msg)
	if cmd != nil {
		t.Error("saving should not trigger an archive reload")
	}
	nm := next.(Model)
	book, v, ok := nm.Store.Variant("v1")
	if !ok {
		t.Fatal("saved variant should appear in the local archive")
	}
	if book.ISBN != "9780132350884" {
		t.Errorf("book isbn = %q, want the saved one", book.ISBN)
	}
	if v.Model != "openai/gpt-4o" {
		t.Errorf("variant model = %q", v.Model)
	}
}

func TestHandleBookDeletedPrunesLocalState(t *testing.T) {
	m := NewModel(config.Config{})
	m.Store.Replace([]types.Book{{
		ID:     "b1",
		Title:  "Clean Code",
		Author: "Robert C. Martin",
		Variants: []types.SummaryVariant{
			{ID: "v1", Model: "a"},
			{ID: "v2", Model: "b"},
		},
	}})
	m.Selected["v2"] = true
	m.Cursor = 1

	next, _ := m.handleBookDeleted(BookDeletedMsg{BookID: "b1"})
	nm := next.(Model)
	if nm.Store.Len() != 0 {
		t.Error("book should be gone from the local archive")
	}
	if nm.Selected["v2"] {
		t.Error("selection should drop variants of the deleted book")
	}
	if nm.Cursor != 0 {
		t.Errorf("cursor = %d, want 0", nm.Cursor)
	}
}

func TestStartSynthesisRejectsStaleSelection(t *testing.T) {
	m := NewModel(config.Config{Model: "openai/gpt-4o"})
	m.Store.Replace([]types.Book{{
		ID:       "b1",
		Title:    "Clean Code",
		Variants: []types.SummaryVariant{{ID: "v1"}},
	}})
	m.Selected["v1"] = true
	m.Selected["gone"] = true

	next, cmd := m.startSynthesis()
	if cmd != nil {
		t.Error("no command should run for a stale selection")
	}
	nm := next.(Model)
	if nm.Err == nil {
		t.Error("stale selection should surface an error")
	}
	if nm.Synthesis != nil {
		t.Error("no coordinator should be left running")
	}
}
