package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestJSONSeedLoader(t *testing.T) {
	t.Parallel()

	t.Run("loads links from a URL", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"links": ["http://www.test.com/1", "badlink1", "badlink1"]}`))
		}))
		defer srv.Close()

		links, err := NewJSONSeedLoader(srv.Client()).Load(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"http://www.test.com/1", "badlink1", "badlink1"}
		if !slices.Equal(links, want) {
			t.Errorf("expected %v, got %v", want, links)
		}
	})

	t.Run("loads links from a file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "seeds.json")
		if err := os.WriteFile(path, []byte(`{"links": ["http://a.example/"]}`), 0o600); err != nil {
			t.Fatalf("failed to write seeds: %v", err)
		}

		links, err := NewJSONSeedLoader(nil).Load(context.Background(), path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(links, []string{"http://a.example/"}) {
			t.Errorf("unexpected links: %v", links)
		}
	})

	t.Run("empty links array", func(t *testing.T) {
		t.Parallel()

		links, err := parseSeedDocument([]byte(`{"links": []}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(links) != 0 {
			t.Errorf("expected no links, got %v", links)
		}
	})

	errorCases := []struct {
		name string
		body string
	}{
		{"missing links field", `{"urls": ["x"]}`},
		{"malformed JSON", `{"links": [`},
		{"links is not an array", `{"links": "x"}`},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "seeds.json")
			if err := os.WriteFile(path, []byte(tc.body), 0o600); err != nil {
				t.Fatalf("failed to write seeds: %v", err)
			}

			_, err := NewJSONSeedLoader(nil).Load(context.Background(), path)
			if !errors.Is(err, ErrSeedLoad) {
				t.Errorf("expected ErrSeedLoad, got %v", err)
			}
		})
	}

	t.Run("non 2xx is a seed load error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		_, err := NewJSONSeedLoader(srv.Client()).Load(context.Background(), srv.URL)
		var loadErr *SeedLoadError
		if !errors.As(err, &loadErr) {
			t.Fatalf("expected *SeedLoadError, got %v", err)
		}
		var statusErr *StatusError
		if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
			t.Errorf("expected wrapped 404 StatusError, got %v", err)
		}
		if loadErr.Source != srv.URL {
			t.Errorf("expected source %q, got %q", srv.URL, loadErr.Source)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := NewJSONSeedLoader(nil).Load(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
		if !errors.Is(err, ErrSeedLoad) {
			t.Errorf("expected ErrSeedLoad, got %v", err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
		}
	})
}
