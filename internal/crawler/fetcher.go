package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Default HTTPFetcher settings.
const (
	DefaultUserAgent   = "linkcrawl/1.0 (+https://github.com/nao1215/linkcrawl)"
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// ErrUnsupportedContentType is returned when a page is not HTML.
var ErrUnsupportedContentType = errors.New("unsupported content type")

// Fetcher visits a single page and returns the raw href values found on it.
// An error means the visit failed; a *StatusError carries the HTTP status.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, pageURL string) ([]string, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, pageURL string) ([]string, error) {
	return f(ctx, pageURL)
}

// StatusError reports a page that answered with a non-success status code.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP status %d fetching %s", e.StatusCode, e.URL)
}

// HeaderProvider supplies extra request headers for a host.
type HeaderProvider interface {
	HeadersFor(host string) http.Header
}

// HTTPFetcher fetches pages over HTTP and extracts every a[href] target.
type HTTPFetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	headers     HeaderProvider
}

// HTTPFetcherOption configures an HTTPFetcher.
type HTTPFetcherOption func(*HTTPFetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize limits how many bytes of each response body are parsed.
func WithMaxBodySize(size int64) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithHeaderProvider adds per-host request headers such as cookies.
func WithHeaderProvider(p HeaderProvider) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.headers = p
	}
}

// NewHTTPFetcher creates an HTTPFetcher. A nil client means http.DefaultClient.
func NewHTTPFetcher(client *http.Client, opts ...HTTPFetcherOption) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	f := &HTTPFetcher{
		client:      client,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves pageURL and returns the href attribute of each anchor,
// in document order and exactly as written in the markup.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}

	if f.headers != nil {
		for key, values := range f.headers.HeadersFor(req.URL.Host) {
			for _, v := range values {
				req.Header.Add(key, v)
			}
		}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // drain for connection reuse
		return nil, &StatusError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTML(contentType) {
		return nil, fmt.Errorf("%w: %q at %s", ErrUnsupportedContentType, contentType, pageURL)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, f.maxBodySize), contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode body: %w", err)
	}

	return extractHrefs(body)
}

// extractHrefs parses HTML and collects the raw href of every a[href] element.
func extractHrefs(r io.Reader) ([]string, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc := goquery.NewDocumentFromNode(root)
	hrefs := make([]string, 0)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		hrefs = append(hrefs, href)
	})
	return hrefs, nil
}

// isHTML reports whether the Content-Type names an HTML document.
// A missing header is treated as HTML.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "html")
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
