package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const feedJSON = `[
	{"native_id": "392847", "fields": {"title": "Porsche 911 Carrera 4 GTS", "price_eur": "189.000 €"}, "text": "Sport Chrono Paket"},
	{"source": "other", "native_id": "500000", "fields": {"title": "Porsche 911 GTS"}, "text": ""}
]`

func TestFileSourceFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	if err := os.WriteFile(path, []byte(feedJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewFileSource("mobile_de", path)
	records, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].Source != "mobile_de" {
		t.Errorf("missing source should be stamped, got %q", records[0].Source)
	}
	if records[1].Source != "other" {
		t.Errorf("explicit source must be preserved, got %q", records[1].Source)
	}
	if records[0].Field("price_eur") != "189.000 €" {
		t.Errorf("field lost: %q", records[0].Field("price_eur"))
	}
}

func TestFileSourceErrors(t *testing.T) {
	s := NewFileSource("mobile_de", filepath.Join(t.TempDir(), "missing.json"))
	if _, err := s.Fetch(context.Background()); err == nil {
		t.Error("missing file should error")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("{not json"), 0o644)
	s = NewFileSource("mobile_de", path)
	if _, err := s.Fetch(context.Background()); err == nil {
		t.Error("invalid JSON should error")
	}
}

func TestHTTPSourceFetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(feedJSON))
	}))
	defer srv.Close()

	s := NewHTTPSource("mobile_de", []string{srv.URL}, "gtswatch/1.0", time.Millisecond)
	records, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if gotUA != "gtswatch/1.0" {
		t.Errorf("user agent = %q", gotUA)
	}
}

func TestHTTPSourcePartialFailure(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedJSON))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer bad.Close()

	s := NewHTTPSource("mobile_de", []string{bad.URL, good.URL}, "gtswatch/1.0", time.Millisecond)
	records, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("partial failure should still return records: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("records = %d, want 2 from the healthy URL", len(records))
	}
}

func TestHTTPSourceAllURLsFailing(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer bad.Close()

	s := NewHTTPSource("mobile_de", []string{bad.URL}, "gtswatch/1.0", time.Millisecond)
	if _, err := s.Fetch(context.Background()); err == nil {
		t.Error("all URLs failing should surface an error")
	}
}

func TestHTTPSourceContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(feedJSON))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	s := NewHTTPSource("mobile_de", []string{srv.URL}, "gtswatch/1.0", time.Millisecond)
	if _, err := s.Fetch(ctx); err == nil {
		t.Error("cancelled context should abort the fetch")
	}
}
