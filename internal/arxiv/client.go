package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lenslabs/paperlens/internal/model"
)

// ErrCircuitOpen is returned when the breaker is rejecting calls to arXiv
var ErrCircuitOpen = fmt.Errorf("arxiv API circuit breaker is open")

// sortByParam maps the internal sort order to the API's sortBy parameter
var sortByParam = map[model.SortOrder]string{
	model.SortRelevance:     "relevance",
	model.SortSubmittedDate: "submittedDate",
	model.SortUpdatedDate:   "lastUpdatedDate",
}

// Client talks to the arXiv export API: Atom-feed search plus PDF download.
// All calls go through a shared retry strategy and circuit breaker.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      *RetryStrategy
	breaker    *CircuitBreaker
}

// NewClient creates an arXiv API client with connection pooling
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
				DisableCompression:  false,
			},
		},
		retry:   NewRetryStrategy(RetryConfig{}),
		breaker: NewCircuitBreaker(),
	}
}

// atom feed layout of the export API
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string       `xml:"id"`
	Title     string       `xml:"title"`
	Published string       `xml:"published"`
	Summary   string       `xml:"summary"`
	Authors   []atomAuthor `xml:"author"`
	Links     []atomLink   `xml:"link"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

// Search queries the export API and returns the parsed result sequence in
// feed order. An empty query matches everything.
func (c *Client) Search(ctx context.Context, query string, sort model.SortOrder, maxResults int) ([]model.PaperRecord, error) {
	if query == "" {
		query = "all:"
	}

	sortBy, ok := sortByParam[sort]
	if !ok {
		sortBy = sortByParam[model.SortSubmittedDate]
	}

	params := url.Values{}
	params.Set("search_query", query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", sortBy)
	params.Set("sortOrder", "descending")

	body, err := c.get(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("arxiv search failed: %w", err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse arxiv feed: %w", err)
	}

	records := make([]model.PaperRecord, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		records = append(records, entryToRecord(entry))
	}

	slog.Debug("arXiv search completed",
		"query", query,
		"sort_by", sortBy,
		"results", len(records),
	)

	return records, nil
}

// Download streams the paper PDF into w. Non-2xx responses surface as errors.
func (c *Client) Download(ctx context.Context, record model.PaperRecord, w io.Writer) error {
	if !c.breaker.CanAttempt() {
		return ErrCircuitOpen
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, record.PDFURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.breaker.RecordFailure()
		return fmt.Errorf("download of %s returned status %d", record.ID, resp.StatusCode)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		c.breaker.RecordFailure()
		return fmt.Errorf("failed to read pdf body: %w", err)
	}

	c.breaker.RecordSuccess()
	return nil
}

// get performs a GET with retry and circuit breaking
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.retry.GetMaxAttempts(); attempt++ {
		if !c.breaker.CanAttempt() {
			return nil, ErrCircuitOpen
		}

		if delay := c.retry.CalculateDelay(attempt - 1); delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.breaker.RecordFailure()
			lastErr = err
			if !c.retry.ShouldRetry(attempt, 0, err) {
				break
			}
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 && readErr == nil {
			c.breaker.RecordSuccess()
			return body, nil
		}

		c.breaker.RecordFailure()
		if readErr != nil {
			lastErr = readErr
		} else {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
		}
		if !c.retry.ShouldRetry(attempt, resp.StatusCode, readErr) {
			break
		}

		slog.Warn("Retrying arXiv request",
			"url", rawURL,
			"attempt", attempt,
			"error", lastErr.Error(),
		)
	}

	return nil, lastErr
}

// entryToRecord converts an Atom entry to a PaperRecord. The external
// identifier is the last path segment of the entry id, version suffix kept.
func entryToRecord(entry atomEntry) model.PaperRecord {
	id := entry.ID
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}

	pdfURL := ""
	for _, link := range entry.Links {
		if link.Title == "pdf" {
			pdfURL = link.Href
			break
		}
	}
	if pdfURL == "" {
		pdfURL = "https://arxiv.org/pdf/" + id + ".pdf"
	}

	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		authors = append(authors, strings.TrimSpace(a.Name))
	}

	published, _ := time.Parse(time.RFC3339, strings.TrimSpace(entry.Published))

	return model.PaperRecord{
		ID:        id,
		Title:     strings.Join(strings.Fields(entry.Title), " "),
		Authors:   authors,
		Published: published,
		SourceURL: entry.ID,
		PDFURL:    pdfURL,
		Summary:   strings.TrimSpace(entry.Summary),
	}
}
