package duckduckgo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/industrial-rag/backend/internal/retrieval"
	"github.com/industrial-rag/backend/pkg/logger"
)

const (
	searchURL = "https://html.duckduckgo.com/html/"
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Client scrapes the DuckDuckGo HTML endpoint. No API key is required.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: searchURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewClientWithBaseURL points the scraper at a different endpoint, used by tests.
func NewClientWithBaseURL(baseURL string, timeout time.Duration) *Client {
	c := NewClient(timeout)
	c.baseURL = baseURL
	return c
}

func (c *Client) Available() bool {
	return true
}

func (c *Client) TextSearch(ctx context.Context, query string, maxResults int) ([]retrieval.WebResult, error) {
	params := url.Values{}
	params.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	results := make([]retrieval.WebResult, 0, maxResults)
	doc.Find("div.result").EachWithBreak(func(i int, s *goquery.Selection) bool {
		title := strings.TrimSpace(s.Find("a.result__a").Text())
		href, _ := s.Find("a.result__a").Attr("href")
		body := strings.TrimSpace(s.Find(".result__snippet").Text())

		if title == "" || href == "" {
			return true
		}

		results = append(results, retrieval.WebResult{
			Title: title,
			Body:  body,
			URL:   resolveRedirect(href),
		})

		return len(results) < maxResults
	})

	logger.Info("web search completed",
		zap.String("query", query),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg=<url> redirect links.
func resolveRedirect(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}

	if uddg := parsed.Query().Get("uddg"); uddg != "" {
		if target, err := url.QueryUnescape(uddg); err == nil {
			return target
		}
	}

	if parsed.Scheme == "" {
		return "https:" + href
	}

	return href
}

// Disabled is the null web-search capability, selected when the feature is
// turned off in configuration.
type Disabled struct{}

func (Disabled) Available() bool {
	return false
}

func (Disabled) TextSearch(ctx context.Context, query string, maxResults int) ([]retrieval.WebResult, error) {
	return nil, fmt.Errorf("web search is disabled")
}
