// Package scraper fetches a web page and reduces it to plain text lines.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/customHttpClient"
	"github.com/akolanti/DocChat/internal/metrics"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"golang.org/x/net/html"
)

var ErrScrapeFailed = errors.New("error scraping webpage")

type Page struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

type Scraper struct {
	client    *http.Client
	userAgent string
	logger    *logger_i.Logger
}

func NewScraper() *Scraper {
	return &Scraper{
		client:    customHttpClient.NewClient(config.ScrapeTimeout),
		userAgent: config.ScrapeUserAgent,
		logger:    logger_i.NewLogger("Scraper"),
	}
}

// NormalizeURL adds https:// when the scheme is missing.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}

func (s *Scraper) Scrape(ctx context.Context, rawURL string) (Page, error) {
	log := s.logger.WithTrace(ctx)
	url := NormalizeURL(rawURL)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("scrape", time.Since(start)) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %w", ErrScrapeFailed, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		log.Error("Fetching page failed", "url", url, "error", err)
		return Page{}, fmt.Errorf("%w: %w", ErrScrapeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		log.Error("Page returned an error status", "url", url, "status", resp.StatusCode)
		return Page{}, fmt.Errorf("%w: %s returned %d", ErrScrapeFailed, url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Page{}, fmt.Errorf("%w: parsing %s: %w", ErrScrapeFailed, url, err)
	}

	content := ExtractText(doc)
	log.Info("Scraped webpage", "url", url, "chars", len(content))
	return Page{URL: url, Content: content}, nil
}

// ExtractText drops script and style elements and returns every non-blank line of the
// remaining text nodes, trimmed, one per line.
func ExtractText(doc *goquery.Document) string {
	doc.Find("script, style").Remove()

	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			for _, line := range strings.Split(n.Data, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					lines = append(lines, line)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return strings.Join(lines, "\n")
}
