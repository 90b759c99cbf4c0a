package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const maxBodySize = 20 << 20

type Fetcher struct {
	httpClient *http.Client
	parser     *Parser
	userAgent  string
}

// NewFetcher creates a fetcher that sends userAgent with every request and
// parses response bodies with parser.
func NewFetcher(httpClient *http.Client, parser *Parser, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		parser:     parser,
		userAgent:  userAgent,
	}
}

// NewHTTPClient returns a client whose requests are bounded by timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// UserAgent returns the User-Agent header value sent with every request.
func (f *Fetcher) UserAgent() string {
	return f.userAgent
}

// Fetch downloads and parses one feed. Any failure is returned as an error;
// nothing is retried.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Document, error) {
	data, err := f.fetchBody(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := f.parser.Run(data)
	if err != nil {
		return nil, err
	}

	slog.Debug("Feed fetched", "url", url, "title", doc.Title, "entries", len(doc.Entries))
	return doc, nil
}

func (f *Fetcher) fetchBody(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &HTTPError{
			URL:        redactURL(url),
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Header:     resp.Header.Clone(),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// HTTPError is a response with a client or server error status. URL never
// carries userinfo credentials.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
	Header     http.Header
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s for url: %s", e.StatusCode, e.Reason(), e.URL)
}

// Reason returns the status text without the numeric code.
func (e *HTTPError) Reason() string {
	reason := strings.TrimSpace(strings.TrimPrefix(e.Status, fmt.Sprint(e.StatusCode)))
	if reason == "" {
		reason = http.StatusText(e.StatusCode)
	}
	return reason
}
