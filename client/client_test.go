package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"pustaka/types"
)

func TestVerifyDecodesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/verify" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var hint BookHint
		if err := json.NewDecoder(r.Body).Decode(&hint); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		json.NewEncoder(w).Encode(types.VerificationResult{
			IsValid: true,
			Status:  types.VerificationSuccess,
			Message: "Verified (2+ sources)",
			Sources: []types.Source{{SourceName: "Google Books", Title: "Dune", Author: "Frank Herbert"}},
		})
	}))
	defer srv.Close()

	c := NewLibrary(srv.URL)
	result, err := c.Verify(context.Background(), BookHint{Title: "Dune", Author: "Frank Herbert"})
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsValid || len(result.Sources) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestUpstreamErrorExtractsDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"detail": "OpenRouter API Key is required"}`)
	}))
	defer srv.Close()

	c := NewLibrary(srv.URL)
	_, err := c.OpenSummaryStream(context.Background(), types.GenerationRequest{Model: "gpt-x"})

	var uerr *UpstreamError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if uerr.Message != "OpenRouter API Key is required" {
		t.Errorf("detail not extracted: %q", uerr.Message)
	}
	if uerr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", uerr.StatusCode)
	}
}

func TestUpstreamErrorGenericWhenBodyUnstructured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "<html>panic</html>")
	}))
	defer srv.Close()

	c := NewLibrary(srv.URL)
	_, err := c.Saved(context.Background())

	var uerr *UpstreamError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if uerr.Message != "" {
		t.Errorf("expected empty message for unstructured body, got %q", uerr.Message)
	}
}

func TestUnreachableBackendIsTransportError(t *testing.T) {
	// A server that is already closed: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewLibrary(url)
	_, err := c.Saved(context.Background())

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestOpenStreamReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("Accept = %q", got)
		}
		var req types.SynthesisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.VariantIDs) != 2 {
			t.Errorf("request not forwarded: %+v err=%v", req, err)
		}
		io.WriteString(w, "data: {\"content\": \"merged\"}\ndata: {\"done\": true}\n")
	}))
	defer srv.Close()

	c := NewLibrary(srv.URL)
	body, err := c.OpenSynthesisStream(context.Background(), types.SynthesisRequest{VariantIDs: []string{"a", "b"}})
	if err != nil {
		t.Fatal(err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) == 0 {
		t.Fatal("empty stream body")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req SaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad save body: %v", err)
		}
		json.NewEncoder(w).Encode(types.SummaryVariant{
			ID:             "v-new",
			Model:          req.UsageStats.Model,
			Provider:       req.UsageStats.Provider,
			SummaryContent: req.SummaryContent,
		})
	}))
	defer srv.Close()

	c := NewLibrary(srv.URL)
	variant, err := c.Save(context.Background(), SaveRequest{
		Title:          "Dune",
		Author:         "Frank Herbert",
		SummaryContent: "brief",
		UsageStats:     types.UsageStats{Model: "gpt-x", Provider: "OpenRouter"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if variant.ID != "v-new" || variant.Model != "gpt-x" {
		t.Fatalf("unexpected variant: %+v", variant)
	}
}
