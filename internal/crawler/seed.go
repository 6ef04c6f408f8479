package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// ErrSeedLoad is wrapped by every SeedLoadError.
var ErrSeedLoad = errors.New("failed to load seeds")

// maxSeedDocumentSize caps the seed document read from a URL or file.
const maxSeedDocumentSize = 10 * 1024 * 1024

// SeedLoader produces the starting URLs of a crawl.
type SeedLoader interface {
	Load(ctx context.Context, source string) ([]string, error)
}

// SeedLoadError describes why a seed source could not be used.
type SeedLoadError struct {
	Source string
	Err    error
}

func (e *SeedLoadError) Error() string {
	return fmt.Sprintf("%s from %s: %v", ErrSeedLoad, e.Source, e.Err)
}

// Is lets errors.Is match ErrSeedLoad.
func (e *SeedLoadError) Is(target error) bool {
	return target == ErrSeedLoad
}

func (e *SeedLoadError) Unwrap() error {
	return e.Err
}

// seedDocument is the on-the-wire seed format: {"links": ["...", ...]}.
type seedDocument struct {
	Links *[]string `json:"links"`
}

// JSONSeedLoader reads a seed document from an http(s) URL or a local file.
// Entries are returned as-is: duplicates and malformed URLs are left for the
// frontier and the fetcher to deal with.
type JSONSeedLoader struct {
	client *http.Client
}

// NewJSONSeedLoader creates a loader. A nil client means http.DefaultClient.
func NewJSONSeedLoader(client *http.Client) *JSONSeedLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &JSONSeedLoader{client: client}
}

// Load reads and decodes the seed document at source.
func (l *JSONSeedLoader) Load(ctx context.Context, source string) ([]string, error) {
	data, err := l.read(ctx, source)
	if err != nil {
		return nil, &SeedLoadError{Source: source, Err: err}
	}

	links, err := parseSeedDocument(data)
	if err != nil {
		return nil, &SeedLoadError{Source: source, Err: err}
	}
	return links, nil
}

func (l *JSONSeedLoader) read(ctx context.Context, source string) ([]byte, error) {
	if !isRemoteSource(source) {
		f, err := os.Open(source) //nolint:gosec // seed path is user input by design
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxSeedDocumentSize))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, */*;q=0.5")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: source, StatusCode: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxSeedDocumentSize))
}

func parseSeedDocument(data []byte) ([]string, error) {
	var doc seedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid seed document: %w", err)
	}
	if doc.Links == nil {
		return nil, errors.New(`invalid seed document: missing "links" array`)
	}
	return *doc.Links, nil
}

func isRemoteSource(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
