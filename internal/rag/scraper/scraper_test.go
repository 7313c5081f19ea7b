package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const page = `<html><head><title>Lake Resort</title><style>body{color:red}</style></head>
<body>
  <h1>  Welcome  </h1>
  <script>var x = 1;</script>
  <p>Open daily.
     Boats for hire.</p>
  <!-- a comment -->
  <div><span>Call us</span> <b>today</b></div>
</body></html>`

func TestScrape(t *testing.T) {
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	p, err := NewScraper().Scrape(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}

	want := "Lake Resort\nWelcome\nOpen daily.\nBoats for hire.\nCall us\ntoday"
	if p.Content != want {
		t.Errorf("content =\n%q\nwant\n%q", p.Content, want)
	}
	if gotAgent == "" || gotAgent == "Go-http-client/1.1" {
		t.Errorf("browser user agent not sent: %q", gotAgent)
	}
}

func TestScrape_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewScraper().Scrape(context.Background(), srv.URL)
	if !errors.Is(err, ErrScrapeFailed) {
		t.Errorf("expected ErrScrapeFailed, got %v", err)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := map[string]string{
		"example.com":          "https://example.com",
		" example.com/a ":      "https://example.com/a",
		"http://example.com":   "http://example.com",
		"https://example.com/": "https://example.com/",
	}
	for in, want := range tests {
		if got := NormalizeURL(in); got != want {
			t.Errorf("NormalizeURL(%q) = %q; want %q", in, got, want)
		}
	}
}
